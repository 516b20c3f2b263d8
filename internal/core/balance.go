package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ReplayResult is the outcome of one full balance replay: the final balance
// per account and the sparse end-of-day snapshot series.
type ReplayResult struct {
	Balances  map[int64]decimal.Decimal
	Snapshots []BalanceSnapshot
}

// SortChronological returns a copy of txs ordered by date, ties broken by id
// ascending. Ids are assigned in write order, so within a day a transfer's
// debit leg always precedes its credit leg.
func SortChronological(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ReplayBalances folds the complete transaction set over each account's
// opening balance and returns the resulting balances plus end-of-day
// snapshots. The fold builds a fresh result on every call; nothing is shared
// or mutated across calls.
//
// Monetary effects are applied exactly once per transfer: only the origin
// leg counts, subtracting from its own account and adding to its destination.
// The credit leg, recognized by having a pair in the set with a lower id, is
// skipped. A transfer row whose pair is missing is applied as an origin leg.
//
// A later transaction on the same (date, account) overwrites that day's
// snapshot: the series holds end-of-day balances, not per-row deltas.
func ReplayBalances(accounts []Account, txs []Transaction) ReplayResult {
	balances := make(map[int64]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		balances[a.ID] = a.OpeningBalance
	}

	present := make(map[int64]bool, len(txs))
	for _, tx := range txs {
		present[tx.ID] = true
	}

	type snapKey struct {
		account int64
		day     string
	}
	snapIdx := make(map[snapKey]int)
	snaps := make([]BalanceSnapshot, 0, len(txs))

	record := func(account int64, d Date) {
		k := snapKey{account: account, day: d.String()}
		if i, ok := snapIdx[k]; ok {
			snaps[i].Balance = balances[account]
			return
		}
		snapIdx[k] = len(snaps)
		snaps = append(snaps, BalanceSnapshot{AccountID: account, Date: d, Balance: balances[account]})
	}

	for _, tx := range SortChronological(txs) {
		switch tx.Type {
		case TypeIncome:
			balances[tx.AccountID] = balances[tx.AccountID].Add(tx.Amount)
			record(tx.AccountID, tx.Date)
		case TypeExpense:
			balances[tx.AccountID] = balances[tx.AccountID].Sub(tx.Amount)
			record(tx.AccountID, tx.Date)
		case TypeTransfer:
			if isCreditLeg(tx, present) {
				continue
			}
			balances[tx.AccountID] = balances[tx.AccountID].Sub(tx.Amount)
			record(tx.AccountID, tx.Date)
			if tx.DestinationAccountID != nil {
				dest := *tx.DestinationAccountID
				balances[dest] = balances[dest].Add(tx.Amount)
				record(dest, tx.Date)
			}
		}
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].Date.Equal(snaps[j].Date) {
			return snaps[i].Date.Before(snaps[j].Date)
		}
		return snaps[i].AccountID < snaps[j].AccountID
	})

	return ReplayResult{Balances: balances, Snapshots: snaps}
}

// isCreditLeg reports whether tx is the later-created mirror of a transfer
// pair that is present in the set.
func isCreditLeg(tx Transaction, present map[int64]bool) bool {
	if tx.Type != TypeTransfer || tx.TransferPairID == nil {
		return false
	}
	return present[*tx.TransferPairID] && *tx.TransferPairID < tx.ID
}

// CurrentBalances replays only transactions dated on or before asOf. Rows
// dated after the evaluation date do not count toward the current balance.
func CurrentBalances(accounts []Account, txs []Transaction, asOf Date) map[int64]decimal.Decimal {
	upTo := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.After(asOf) {
			upTo = append(upTo, tx)
		}
	}
	return ReplayBalances(accounts, upTo).Balances
}

// FilterSnapshots selects snapshots by date range and account set. The
// filter narrows which rows are surfaced, never what was computed: it runs
// after the full replay.
func FilterSnapshots(snaps []BalanceSnapshot, f Filter) []BalanceSnapshot {
	out := make([]BalanceSnapshot, 0, len(snaps))
	for _, s := range snaps {
		if !f.MatchesDate(s.Date) || !f.MatchesAccount(s.AccountID) {
			continue
		}
		out = append(out, s)
	}
	return out
}
