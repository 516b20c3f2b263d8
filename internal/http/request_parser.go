package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"conti/internal/core"
)

// errMalformedRequest marks client errors surfaced as 400s: unreadable
// bodies, bad ids, bad dates.
var errMalformedRequest = errors.New("malformed request")

// maxBodySize caps request bodies. Ledger writes are small; anything near
// the limit is not a legitimate request.
const maxBodySize = 1 << 20

// decodeInto reads the JSON request body into dst.
func decodeInto(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", errMalformedRequest)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return nil
}

// idRequest is the body of DELETE routes targeting one entity.
type idRequest struct {
	ID int64 `json:"id"`
}

// decodeID parses a DELETE body and rejects a missing or non-positive id.
func decodeID(r *http.Request) (int64, error) {
	var req idRequest
	if err := decodeInto(r, &req); err != nil {
		return 0, err
	}
	if req.ID <= 0 {
		return 0, fmt.Errorf("%w: id must be positive", errMalformedRequest)
	}
	return req.ID, nil
}

// parseFilter builds the view filter from query parameters: from and to as
// YYYY-MM-DD dates, accounts, categories, and tags as comma-separated id
// lists. Invalid pieces are rejected, not silently dropped.
func parseFilter(r *http.Request) (core.Filter, error) {
	q := r.URL.Query()
	var f core.Filter

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, fmt.Errorf("%w: from=%q", errMalformedRequest, v)
		}
		f.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, fmt.Errorf("%w: to=%q", errMalformedRequest, v)
		}
		f.To = d
	}

	var err error
	if f.AccountIDs, err = parseIDs(q.Get("accounts")); err != nil {
		return core.Filter{}, err
	}
	if f.CategoryIDs, err = parseIDs(q.Get("categories")); err != nil {
		return core.Filter{}, err
	}
	if f.TagIDs, err = parseIDs(q.Get("tags")); err != nil {
		return core.Filter{}, err
	}
	return f, nil
}

// parseIDs splits a comma-separated id list. Empty input yields nil.
func parseIDs(v string) ([]int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id %q", errMalformedRequest, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseYearMonth reads the year and month query parameters and returns the
// first of that month. Missing parameters default to the current month.
func parseYearMonth(r *http.Request) (core.Date, error) {
	today := core.Today()
	year := today.Year()
	month := today.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: year=%q", errMalformedRequest, v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.Date{}, fmt.Errorf("%w: month=%q", errMalformedRequest, v)
		}
		month = m
	}
	return core.NewDate(year, month, 1), nil
}
