// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// SortKey selects the field donations are ordered by.
type SortKey string

const (
	SortByDate     SortKey = "createdAt"
	SortByQuantity SortKey = "quantity"
)

// ParseSortKey accepts the field names and the short forms "date" and "qty".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date", "createdat":
		return SortByDate, nil
	case "qty", "quantity":
		return SortByQuantity, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want date or quantity)", s)
	}
}

// FilterDonations keeps donations whose title or category contains query,
// ignoring case. An empty query keeps everything.
func FilterDonations(ds []Donation, query string) []Donation {
	q := strings.ToLower(query)
	out := make([]Donation, 0, len(ds))
	for _, d := range ds {
		if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Category), q) {
			out = append(out, d)
		}
	}
	return out
}

// SortDonations orders ds ascending by key in place. Donations without a value
// for key (empty date, zero quantity) go last and keep their relative order.
func SortDonations(ds []Donation, key SortKey) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		switch key {
		case SortByQuantity:
			if a.Quantity == 0 || b.Quantity == 0 {
				return a.Quantity != 0 && b.Quantity == 0
			}
			return a.Quantity < b.Quantity
		default:
			if a.CreatedAt == "" || b.CreatedAt == "" {
				return a.CreatedAt != "" && b.CreatedAt == ""
			}
			return a.CreatedAt < b.CreatedAt
		}
	})
}

// CanCancelDonation reports whether the owner may still cancel d.
func CanCancelDonation(d Donation) bool {
	return d.Status != StatusCancelled
}

// CanCancelRequest reports whether the requester may still cancel r.
func CanCancelRequest(r Request) bool {
	return r.Status != StatusCancelled && r.Status != StatusApproved
}

// CanDecideRequest reports whether r is awaiting approval or rejection.
func CanDecideRequest(r Request) bool {
	return r.Status == StatusPending
}

var ErrNoDonorEmail = errors.New("donor email not available")

// ContactLink builds a mailto link to the donor of d.
func ContactLink(d *Donation) (string, error) {
	if d == nil || d.CreatedBy == nil || d.CreatedBy.Email == "" {
		return "", ErrNoDonorEmail
	}
	subject := strings.ReplaceAll(url.QueryEscape("Request about donation: "+d.Title), "+", "%20")
	return "mailto:" + d.CreatedBy.Email + "?subject=" + subject, nil
}
