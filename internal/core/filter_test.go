package core

import "testing"

func TestFilterZeroMatchesEverything(t *testing.T) {
	f := Filter{}
	if !f.IsZero() {
		t.Fatalf("zero filter should report IsZero")
	}
	tx := Transaction{ID: 1, AccountID: 9, Description: "x", Amount: dec(5), Type: TypeExpense, Date: NewDate(2024, 1, 1)}
	if !f.Matches(tx, nil) {
		t.Fatalf("zero filter must match any transaction")
	}
}

func TestFilterDateBoundsInclusive(t *testing.T) {
	f := Filter{From: NewDate(2024, 1, 10), To: NewDate(2024, 1, 20)}
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2024, 1, 9), false},
		{NewDate(2024, 1, 10), true}, // lower bound inclusive
		{NewDate(2024, 1, 15), true},
		{NewDate(2024, 1, 20), true}, // upper bound inclusive
		{NewDate(2024, 1, 21), false},
	}
	for i, tc := range cases {
		if got := f.MatchesDate(tc.d); got != tc.want {
			t.Fatalf("case %d got %v, want %v", i, got, tc.want)
		}
	}
}

func TestFilterCategoryMatchesSubcategory(t *testing.T) {
	parent, child := int64(1), int64(4)
	f := Filter{CategoryIDs: []int64{child}}
	tx := Transaction{ID: 1, AccountID: 1, CategoryID: &parent, SubcategoryID: &child, Description: "x", Amount: dec(5), Type: TypeExpense, Date: NewDate(2024, 1, 1)}
	if !f.MatchesCategory(tx) {
		t.Fatalf("subcategory should satisfy the category filter")
	}
}

func TestFilterTagsAnyOf(t *testing.T) {
	f := Filter{TagIDs: []int64{3, 4}}
	tags := map[int64][]int64{1: {2, 4}, 2: {9}}
	a := Transaction{ID: 1}
	b := Transaction{ID: 2}
	c := Transaction{ID: 3}
	if !f.MatchesTags(a, tags) {
		t.Fatalf("transaction with one matching tag should pass")
	}
	if f.MatchesTags(b, tags) {
		t.Fatalf("transaction with no matching tag should fail")
	}
	if f.MatchesTags(c, tags) {
		t.Fatalf("transaction with no tags should fail a tag filter")
	}
}
