// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides typed access to the Foodshare marketplace endpoints.
// Every call goes through the shared request pipeline, so authentication and
// the reaction to rejected credentials are handled there and not here.
package backend

import (
	"context"
	"encoding/json"
	"net/url"

	"foodshare/cli/internal/session"
)

// API defines the backend operations the CLI depends on.
// Implementations may call the real HTTP endpoints or provide mocks for tests.
type API interface {
	AvailableDonations(ctx context.Context) ([]Donation, error)
	MyDonations(ctx context.Context) ([]Donation, error)
	Donation(ctx context.Context, id session.ID) (*Donation, error)
	CreateDonation(ctx context.Context, d NewDonation) (*Donation, error)
	CancelDonation(ctx context.Context, id session.ID) error

	AllRequests(ctx context.Context) ([]Request, error)
	MyRequests(ctx context.Context) ([]Request, error)
	CreateRequest(ctx context.Context, donationID session.ID, message string) error
	CancelRequest(ctx context.Context, id session.ID) error
	DecideRequest(ctx context.Context, id session.ID, approve bool) error

	AcceptPickup(ctx context.Context, donationID session.ID) error
	DisableUser(ctx context.Context, userID session.ID) error

	// AI endpoints answer in loosely specified shapes; the body is returned
	// as-is for the extract package to interpret.
	Categorize(ctx context.Context, name string) (json.RawMessage, error)
	PredictExpiry(ctx context.Context, name string) (json.RawMessage, error)
	Nutrition(ctx context.Context, q FoodQuery) (json.RawMessage, error)
	ConsumeRatio(ctx context.Context, q FoodQuery) (json.RawMessage, error)
	StorageTips(ctx context.Context, name string) (json.RawMessage, error)
	Chat(ctx context.Context, message string) (json.RawMessage, error)
	Recipe(ctx context.Context, ingredients string, servings int) (json.RawMessage, error)
}

// Doer is the part of the request pipeline used here.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, query url.Values, body, out any) error
}
