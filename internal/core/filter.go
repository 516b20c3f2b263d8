package core

// Filter narrows which transactions a view surfaces. The zero value matches
// everything; balance replay and pair resolution always run over the
// unfiltered set and apply filters to output only.
type Filter struct {
	From        Date
	To          Date
	AccountIDs  []int64
	CategoryIDs []int64
	TagIDs      []int64
}

// IsZero reports whether the filter matches every transaction.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() &&
		len(f.AccountIDs) == 0 && len(f.CategoryIDs) == 0 && len(f.TagIDs) == 0
}

// HasAccounts reports whether an account filter is active.
func (f Filter) HasAccounts() bool {
	return len(f.AccountIDs) > 0
}

// MatchesAccount reports whether id passes the account filter. An empty
// account filter passes every account.
func (f Filter) MatchesAccount(id int64) bool {
	if len(f.AccountIDs) == 0 {
		return true
	}
	for _, a := range f.AccountIDs {
		if a == id {
			return true
		}
	}
	return false
}

// MatchesDate reports whether d falls inside the inclusive [From, To] range.
func (f Filter) MatchesDate(d Date) bool {
	if !f.From.IsZero() && d.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && d.After(f.To) {
		return false
	}
	return true
}

// MatchesCategory reports whether the transaction's category passes the
// category filter. A transaction without a category matches no category, so
// it is excluded whenever a category filter is active. The subcategory also
// satisfies the filter when it is listed.
func (f Filter) MatchesCategory(tx Transaction) bool {
	if len(f.CategoryIDs) == 0 {
		return true
	}
	for _, c := range f.CategoryIDs {
		if tx.CategoryID != nil && *tx.CategoryID == c {
			return true
		}
		if tx.SubcategoryID != nil && *tx.SubcategoryID == c {
			return true
		}
	}
	return false
}

// MatchesTags reports whether the transaction carries at least one of the
// filtered tags. tagsByTx maps transaction id to its attached tag ids.
func (f Filter) MatchesTags(tx Transaction, tagsByTx map[int64][]int64) bool {
	if len(f.TagIDs) == 0 {
		return true
	}
	for _, attached := range tagsByTx[tx.ID] {
		for _, want := range f.TagIDs {
			if attached == want {
				return true
			}
		}
	}
	return false
}

// Matches applies every dimension of the filter to one transaction. Transfer
// account-filter handling is more involved and owned by ResolveTransfers;
// this is the row-level check used for plain income and expense rows.
func (f Filter) Matches(tx Transaction, tagsByTx map[int64][]int64) bool {
	return f.MatchesDate(tx.Date) &&
		f.MatchesAccount(tx.AccountID) &&
		f.MatchesCategory(tx) &&
		f.MatchesTags(tx, tagsByTx)
}
