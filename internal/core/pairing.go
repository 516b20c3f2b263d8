package core

// DisplayTransaction is one row of the transaction view. A transfer pair
// collapses into a single entry; IsCredit marks that the shown physical row
// is the later-created credit leg. FromAccountID and ToAccountID carry the
// debited and credited accounts of a transfer, resolved through the pair so
// the direction is right even when the credit leg is the one shown.
type DisplayTransaction struct {
	Transaction
	IsCredit      bool    `json:"is_credit,omitempty"`
	FromAccountID int64   `json:"from_account_id,omitempty"`
	ToAccountID   int64   `json:"to_account_id,omitempty"`
	TagIDs        []int64 `json:"tag_ids,omitempty"`
}

// ResolveTransfers turns the complete transaction set into a display list in
// which every transfer pair yields at most one visible row.
//
// txs must be the unfiltered set: the pair lookup has to see every row no
// matter what the view currently filters. The filter is applied here, to the
// output. Orientation comes from ids: the leg with the lower id is the
// origin/debit leg. Under an account filter the shown leg is the origin when
// the origin's account is selected, the credit leg when only the destination
// account is selected, and none when neither account is.
//
// A transfer row whose pair is missing from the set is displayed as-is: an
// orphaned leg is a recoverable inconsistency, not an error.
//
// Tags are per physical row. The displayed row carries only its own tags,
// and a tag filter admits the pair only when the shown leg has a match.
func ResolveTransfers(txs []Transaction, f Filter, tagsByTx map[int64][]int64) []DisplayTransaction {
	byID := make(map[int64]Transaction, len(txs))
	for _, tx := range txs {
		byID[tx.ID] = tx
	}

	processed := make(map[int64]bool)
	out := make([]DisplayTransaction, 0, len(txs))

	emit := func(shown, origin Transaction, isCredit bool) {
		if !f.MatchesTags(shown, tagsByTx) {
			return
		}
		d := DisplayTransaction{
			Transaction: shown,
			IsCredit:    isCredit,
			TagIDs:      tagsByTx[shown.ID],
		}
		d.FromAccountID = origin.AccountID
		if origin.DestinationAccountID != nil {
			d.ToAccountID = *origin.DestinationAccountID
		}
		out = append(out, d)
	}

	for _, tx := range SortChronological(txs) {
		if processed[tx.ID] {
			continue
		}

		if tx.Type != TypeTransfer {
			if f.Matches(tx, tagsByTx) {
				out = append(out, DisplayTransaction{Transaction: tx, TagIDs: tagsByTx[tx.ID]})
			}
			continue
		}

		pair, paired := pairOf(tx, byID)
		if !paired {
			processed[tx.ID] = true
			if f.MatchesDate(tx.Date) && f.MatchesCategory(tx) && f.MatchesAccount(tx.AccountID) {
				emit(tx, tx, false)
			}
			continue
		}

		origin, credit := tx, pair
		if pair.ID < tx.ID {
			origin, credit = pair, tx
		}

		// Date and category are mirrored across the legs, so one verdict
		// settles the pair.
		if !f.MatchesDate(tx.Date) || !f.MatchesCategory(tx) {
			processed[origin.ID] = true
			processed[credit.ID] = true
			continue
		}

		if !f.HasAccounts() {
			processed[origin.ID] = true
			processed[credit.ID] = true
			emit(origin, origin, false)
			continue
		}

		originIn := f.MatchesAccount(origin.AccountID)
		creditIn := f.MatchesAccount(credit.AccountID)
		switch {
		case originIn:
			// Origin's account selected (with or without the destination):
			// the origin leg represents the pair.
			processed[origin.ID] = true
			processed[credit.ID] = true
			emit(origin, origin, false)
		case creditIn:
			// Only the destination side is selected. Leave the origin leg
			// unprocessed so the sweep reaches the credit leg and shows it.
			if tx.ID == credit.ID {
				processed[origin.ID] = true
				processed[credit.ID] = true
				emit(credit, origin, true)
			}
		default:
			// Neither account selected: this view never shows the pair.
			processed[origin.ID] = true
			processed[credit.ID] = true
		}
	}

	return out
}

func pairOf(tx Transaction, byID map[int64]Transaction) (Transaction, bool) {
	if tx.TransferPairID == nil {
		return Transaction{}, false
	}
	pair, ok := byID[*tx.TransferPairID]
	return pair, ok
}
