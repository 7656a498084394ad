// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"strconv"

	"foodshare/cli/internal/session"
)

// Status values used by donations and requests.
const (
	StatusAvailable = "AVAILABLE"
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Person is a user as embedded in donations and requests.
type Person struct {
	ID    session.ID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
}

// Donation is a food donation listing.
type Donation struct {
	ID            session.ID `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Quantity      float64    `json:"quantity"`
	Unit          string     `json:"unit"`
	ExpiryAt      string     `json:"expiryAt"`
	PickupLat     *float64   `json:"pickupLat"`
	PickupLng     *float64   `json:"pickupLng"`
	PickupAddress string     `json:"pickupAddress"`
	ImageURL      string     `json:"imageUrl"`
	Status        string     `json:"status"`
	CreatedAt     string     `json:"createdAt"`
	CreatedByName string     `json:"createdByName"`
	CreatedBy     *Person    `json:"createdBy"`
}

// Name is what AI endpoints are asked about: the title, else the description.
func (d Donation) Name() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Description
}

// HasPickup reports whether both pickup coordinates are set and non-zero.
func (d Donation) HasPickup() bool {
	return d.PickupLat != nil && d.PickupLng != nil && *d.PickupLat != 0 && *d.PickupLng != 0
}

// Donor returns the best known donor name.
func (d Donation) Donor() string {
	switch {
	case d.CreatedByName != "":
		return d.CreatedByName
	case d.CreatedBy != nil && d.CreatedBy.Name != "":
		return d.CreatedBy.Name
	default:
		return "Unknown"
	}
}

// QuantityString formats quantity and unit for display.
func (d Donation) QuantityString() string {
	q := strconv.FormatFloat(d.Quantity, 'f', -1, 64)
	if d.Unit == "" {
		return q
	}
	return q + " " + d.Unit
}

// NewDonation is the payload of POST /donations.
type NewDonation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	ExpiryAt    string   `json:"expiryAt"`
	PickupLat   *float64 `json:"pickupLat"`
	PickupLng   *float64 `json:"pickupLng"`
	ImageBase64 string   `json:"imageBase64"`
}

// Request is a user's request for a donation.
type Request struct {
	ID        session.ID `json:"id"`
	Donation  *Donation  `json:"donation"`
	Requester *Person    `json:"requester"`
	Message   string     `json:"message"`
	Status    string     `json:"status"`
}

type newRequest struct {
	DonationID session.ID `json:"donationId"`
	Message    string     `json:"message"`
}

// FoodQuery parameterises the quantity-aware AI endpoints.
type FoodQuery struct {
	Name     string
	Quantity float64
	Unit     string
}

// FoodQueryFor builds the query for a donation, defaulting quantity to 1 and
// unit to kg.
func FoodQueryFor(d Donation) FoodQuery {
	q := FoodQuery{Name: d.Name(), Quantity: d.Quantity, Unit: d.Unit}
	if q.Quantity == 0 {
		q.Quantity = 1
	}
	if q.Unit == "" {
		q.Unit = "kg"
	}
	return q
}
