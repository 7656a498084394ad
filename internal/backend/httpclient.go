// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"foodshare/cli/internal/session"
)

// HTTP implements API over the REST endpoints.
type HTTP struct {
	api Doer
}

func newHTTP(pipeline Doer) *HTTP {
	return &HTTP{api: pipeline}
}

func (h *HTTP) AvailableDonations(ctx context.Context) ([]Donation, error) {
	var out []Donation
	if err := h.api.Get(ctx, "/donations/available", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) MyDonations(ctx context.Context) ([]Donation, error) {
	var out []Donation
	if err := h.api.Get(ctx, "/donations/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) Donation(ctx context.Context, id session.ID) (*Donation, error) {
	var out Donation
	if err := h.api.Get(ctx, "/donations/"+url.PathEscape(id.String()), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDonation posts d. The backend may answer with the created listing or
// with an empty body; the latter yields a nil Donation.
func (h *HTTP) CreateDonation(ctx context.Context, d NewDonation) (*Donation, error) {
	var out *Donation
	if err := h.api.Post(ctx, "/donations", nil, d, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) CancelDonation(ctx context.Context, id session.ID) error {
	return h.api.Post(ctx, "/donations/"+url.PathEscape(id.String())+"/cancel", nil, nil, nil)
}

func (h *HTTP) AllRequests(ctx context.Context) ([]Request, error) {
	var out []Request
	if err := h.api.Get(ctx, "/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) MyRequests(ctx context.Context) ([]Request, error) {
	var out []Request
	if err := h.api.Get(ctx, "/requests/my", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) CreateRequest(ctx context.Context, donationID session.ID, message string) error {
	return h.api.Post(ctx, "/requests", nil, newRequest{DonationID: donationID, Message: message}, nil)
}

func (h *HTTP) CancelRequest(ctx context.Context, id session.ID) error {
	return h.api.Post(ctx, "/requests/"+url.PathEscape(id.String())+"/cancel", nil, nil, nil)
}

// DecideRequest approves or rejects a pending request.
func (h *HTTP) DecideRequest(ctx context.Context, id session.ID, approve bool) error {
	q := url.Values{"approve": {strconv.FormatBool(approve)}}
	return h.api.Post(ctx, "/requests/"+url.PathEscape(id.String())+"/action", q, nil, nil)
}

// AcceptPickup lets a volunteer take a donation; the backend notifies the donor.
func (h *HTTP) AcceptPickup(ctx context.Context, donationID session.ID) error {
	return h.api.Post(ctx, "/volunteer/accept/"+url.PathEscape(donationID.String()), nil, nil, nil)
}

func (h *HTTP) DisableUser(ctx context.Context, userID session.ID) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return h.api.Post(ctx, "/admin/disable-user/"+url.PathEscape(userID.String()), nil, nil, nil)
}

func (h *HTTP) Categorize(ctx context.Context, name string) (json.RawMessage, error) {
	return h.getRaw(ctx, "/ai/categorize", url.Values{"name": {name}})
}

func (h *HTTP) PredictExpiry(ctx context.Context, name string) (json.RawMessage, error) {
	return h.getRaw(ctx, "/ai/predict-expiry", url.Values{"name": {name}})
}

func (h *HTTP) Nutrition(ctx context.Context, q FoodQuery) (json.RawMessage, error) {
	return h.getRaw(ctx, "/ai/nutrition", q.values())
}

func (h *HTTP) ConsumeRatio(ctx context.Context, q FoodQuery) (json.RawMessage, error) {
	return h.getRaw(ctx, "/ai/consume-ratio", q.values())
}

func (h *HTTP) StorageTips(ctx context.Context, name string) (json.RawMessage, error) {
	return h.getRaw(ctx, "/ai/storage-tips", url.Values{"name": {name}})
}

func (h *HTTP) Chat(ctx context.Context, message string) (json.RawMessage, error) {
	var out json.RawMessage
	body := map[string]string{"message": message}
	if err := h.api.Post(ctx, "/ai/chat", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) Recipe(ctx context.Context, ingredients string, servings int) (json.RawMessage, error) {
	var out json.RawMessage
	body := map[string]any{"ingredients": ingredients, "servings": servings}
	if err := h.api.Post(ctx, "/ai/recipe", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTP) getRaw(ctx context.Context, path string, q url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := h.api.Get(ctx, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q FoodQuery) values() url.Values {
	return url.Values{
		"name":     {q.Name},
		"quantity": {strconv.FormatFloat(q.Quantity, 'f', -1, 64)},
		"unit":     {q.Unit},
	}
}
