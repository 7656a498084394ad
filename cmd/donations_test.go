package cmd

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"foodshare/cli/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleDonations = []map[string]any{
	{"id": 1, "title": "Bread", "category": "Bakery", "quantity": 2, "unit": "loaf", "createdAt": "2025-01-02T10:00:00", "status": "AVAILABLE"},
	{"id": 2, "title": "Apples", "category": "Fruit", "quantity": 5, "unit": "kg", "createdAt": "2025-01-01T10:00:00", "status": "AVAILABLE"},
}

func TestDonations_NotLoggedIn(t *testing.T) {
	f := setupCLI(t, "")

	out, err := f.run("", "donations", "available")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "You're not logged in yet!")
	assert.Zero(t, f.be.callCount())
}

func TestDonationsAvailable_SearchAndSort(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/available", 200, sampleDonations)

	out, err := f.run("", "donations", "available", "--search", "FRUIT")
	require.NoError(t, err)
	assert.Contains(t, out, "Apples")
	assert.NotContains(t, out, "Bread")

	out, err = f.run("", "donations", "available", "--sort", "qty")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Bread"), strings.Index(out, "Apples"), "smaller quantity first")

	_, err = f.run("", "donations", "available", "--sort", "colour")
	require.Error(t, err)
}

func TestDonationsMine_ServerMessageShown(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/my", 500, map[string]any{"error": "database down"})

	out, err := f.run("", "donations", "mine")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "database down")
	assert.Equal(t, "tok-user", f.token(), "a server error keeps the session")
}

func TestDonations_RejectedMidCommand(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/my", 401, map[string]any{"error": "Token expired"})

	out, err := f.run("", "donations", "mine")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Session ended")
	assert.Empty(t, f.token())
}

func TestDonationsShow(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/1", 200, map[string]any{
		"id": 1, "title": "Bread", "description": "Sourdough", "quantity": 2, "unit": "loaf",
		"pickupLat": 52.5, "pickupLng": 13.4, "createdBy": map[string]any{"name": "Ann"},
	})

	out, err := f.run("", "donations", "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Sourdough")
	assert.Contains(t, out, "2 loaf")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, out, "52.5, 13.4")
	assert.Contains(t, out, "Expiry:   N/A")
}

func TestDonationsCreate(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("POST", "/donations", 200, map[string]any{"id": 10, "title": "Bread"})

	out, err := f.run("", "donations", "create",
		"--title", "Bread", "--quantity", "lots", "--unit", "loaf", "--lat", "1.5", "--lng", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Donation created")

	body := f.be.body("POST", "/donations")
	assert.Equal(t, "Bread", body["title"])
	assert.Equal(t, float64(0), body["quantity"], "invalid quantity becomes 0")
	assert.Equal(t, 1.5, body["pickupLat"])
	assert.Equal(t, float64(2), body["pickupLng"])
}

func TestDonationsCreate_WithAI(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/ai/categorize", 200, map[string]any{"category": "Bakery"})
	f.be.respond("GET", "/ai/predict-expiry", 200, map[string]any{"expiryDays": "3 days"})
	f.be.respond("POST", "/donations", 200, map[string]any{"id": 11})

	before := time.Now()
	out, err := f.run("", "donations", "create", "--title", "Bread", "--ai-category", "--ai-expiry")
	require.NoError(t, err)
	assert.Contains(t, out, "Predicted expiry +3 days")

	body := f.be.body("POST", "/donations")
	assert.Equal(t, "Bakery", body["category"])
	at, err := time.ParseInLocation(extract.LocalInputLayout, body["expiryAt"].(string), time.Local)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(72*time.Hour), at, 2*time.Minute)
}

func TestDonationsCreate_FarExpiry(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/ai/predict-expiry", 200, map[string]any{"expiryDays": "200000"})
	f.be.respond("POST", "/donations", 200, map[string]any{"id": 12})

	_, err := f.run("", "donations", "create", "--title", "Salt", "--ai-expiry")
	require.NoError(t, err)

	body := f.be.body("POST", "/donations")
	at, err := time.ParseInLocation(extract.LocalInputLayout, body["expiryAt"].(string), time.Local)
	require.NoError(t, err)
	assert.True(t, at.After(time.Now()))
	assert.GreaterOrEqual(t, at.Year(), 2500)
}

func TestDonationsCreate_UnexpectedExpiry(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/ai/predict-expiry", 200, map[string]any{"expiryDays": "soon"})

	out, err := f.run("", "donations", "create", "--title", "Bread", "--ai-expiry")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "AI returned unexpected expiry format")
	assert.False(t, f.be.called("POST", "/donations"))
}

func TestDonationsCreate_BadInput(t *testing.T) {
	f := setupCLI(t, "tok-user")

	_, err := f.run("", "donations", "create", "--title", "Bread", "--expiry", "tomorrow")
	require.Error(t, err)
	_, err = f.run("", "donations", "create", "--title", "Bread", "--lat", "north")
	require.Error(t, err)
	assert.False(t, f.be.called("POST", "/donations"))
}

func TestDonationsCancel(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/4", 200, map[string]any{"id": 4, "title": "Soup", "status": "AVAILABLE"})
	f.be.handle("POST", "/donations/4/cancel", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	out, err := f.run("y\n", "donations", "cancel", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Donation cancelled")
	assert.True(t, f.be.called("POST", "/donations/4/cancel"))
}

func TestDonationsCancel_Declined(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/4", 200, map[string]any{"id": 4, "title": "Soup", "status": "AVAILABLE"})

	_, err := f.run("n\n", "donations", "cancel", "4")
	require.NoError(t, err)
	assert.False(t, f.be.called("POST", "/donations/4/cancel"))
}

func TestDonationsCancel_AlreadyCancelled(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/4", 200, map[string]any{"id": 4, "status": "CANCELLED"})

	out, err := f.run("", "donations", "cancel", "4", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "already cancelled")
	assert.False(t, f.be.called("POST", "/donations/4/cancel"))
}

func TestDonationsTips(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.handle("GET", "/ai/storage-tips", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rice", r.URL.Query().Get("name"))
		reply(w, 200, map[string]any{"tips": "Keep **cold**.\n\n- Seal it\n- Eat soon"})
	})

	out, err := f.run("", "donations", "tips", "--name", "rice")
	require.NoError(t, err)
	assert.Contains(t, out, "Keep cold.")
	assert.Contains(t, out, "• Seal it")
	assert.Contains(t, out, "• Eat soon")
}

func TestDonationsNutrition(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/1", 200, sampleDonations[0])
	f.be.handle("GET", "/ai/nutrition", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Bread", q.Get("name"))
		assert.Equal(t, "2", q.Get("quantity"))
		assert.Equal(t, "loaf", q.Get("unit"))
		reply(w, 200, map[string]any{"nutrients": map[string]any{"protein": "8g", "carbs": 40}})
	})

	out, err := f.run("", "donations", "nutrition", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Carbohydrates")
	assert.Contains(t, out, "Protein")
}

func TestDonationsConsume(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/1", 200, sampleDonations[0])
	f.be.respond("GET", "/ai/consume-ratio", 200, map[string]any{
		"explanation": "Two loaves feed a family.",
		"variants":    []any{map[string]any{"label": "Light", "persons": 6, "serving_g": 150}},
	})

	out, err := f.run("", "donations", "consume", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Two loaves feed a family.")
	assert.Contains(t, out, "Light")
}

func TestDonationsConsume_NoVariants(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/1", 200, sampleDonations[0])
	f.be.respond("GET", "/ai/consume-ratio", 200, map[string]any{"explanation": "Unclear."})

	out, err := f.run("", "donations", "consume", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No variant predictions available.")
}

func TestDashboard(t *testing.T) {
	f := setupCLI(t, "tok-vol")
	f.be.respond("GET", "/donations/available", 200, sampleDonations)
	f.be.respond("GET", "/requests/my", 200, []any{map[string]any{"id": 7, "status": "PENDING", "donation": map[string]any{"title": "Soup"}}})
	f.be.respond("GET", "/donations/my", 200, []any{})

	out, err := f.run("", "dashboard", "--search", "bread")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, Vic (VOLUNTEER)")
	assert.Contains(t, out, "Bread")
	assert.NotContains(t, out, "Apples")
	assert.Contains(t, out, "Soup")
	assert.Contains(t, out, "No donations.")
	assert.Contains(t, out, "volunteer list")
}

func TestDashboard_OneLoadFails(t *testing.T) {
	f := setupCLI(t, "tok-user")
	f.be.respond("GET", "/donations/available", 200, sampleDonations)
	f.be.respond("GET", "/requests/my", 500, map[string]any{})
	f.be.respond("GET", "/donations/my", 200, []any{})

	out, err := f.run("", "dashboard")
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Failed to load your requests")
}
