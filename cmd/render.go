package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/output"
	"foodshare/cli/internal/session"

	"github.com/pterm/pterm"
)

// parseID validates a positional identifier argument.
func parseID(what, s string) (session.ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s id is required", what)
	}
	return session.ID(s), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func renderDonations(w io.Writer, ds []backend.Donation) error {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No donations.")
		return nil
	}
	t := output.NewTable(w, "ID", "TITLE", "CATEGORY", "QUANTITY", "EXPIRY", "STATUS", "DONOR")
	for _, d := range ds {
		t.AddRow(d.ID.String(), d.Title, d.Category, d.QuantityString(), orNA(d.ExpiryAt), d.Status, d.Donor())
	}
	return t.Render()
}

func renderRequests(w io.Writer, rs []backend.Request, withRequester bool) error {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No requests.")
		return nil
	}
	headers := []string{"ID", "DONATION", "STATUS", "MESSAGE"}
	if withRequester {
		headers = append(headers, "REQUESTER")
	}
	t := output.NewTable(w, headers...)
	for _, r := range rs {
		title := ""
		if r.Donation != nil {
			title = r.Donation.Title
		}
		row := []string{r.ID.String(), title, r.Status, r.Message}
		if withRequester {
			who := ""
			if r.Requester != nil {
				who = r.Requester.Name
				if who == "" {
					who = r.Requester.Email
				}
			}
			row = append(row, who)
		}
		t.AddRow(row...)
	}
	return t.Render()
}

func renderDonation(w io.Writer, d *backend.Donation) {
	fmt.Fprintln(w, pterm.Bold.Sprint(d.Title))
	if d.Description != "" {
		fmt.Fprintln(w, d.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Category: %s\n", orNA(d.Category))
	fmt.Fprintf(w, "  Quantity: %s\n", d.QuantityString())
	fmt.Fprintf(w, "  Expiry:   %s\n", orNA(d.ExpiryAt))
	fmt.Fprintf(w, "  Status:   %s\n", orNA(d.Status))
	fmt.Fprintf(w, "  Donor:    %s\n", d.Donor())
	if d.PickupAddress != "" {
		fmt.Fprintf(w, "  Pickup:   %s\n", d.PickupAddress)
	}
	if d.HasPickup() {
		fmt.Fprintf(w, "  Location: %s, %s\n",
			strconv.FormatFloat(*d.PickupLat, 'f', -1, 64),
			strconv.FormatFloat(*d.PickupLng, 'f', -1, 64))
	}
	if d.ImageURL != "" && !strings.HasPrefix(d.ImageURL, "data:") {
		fmt.Fprintf(w, "  Image:    %s\n", d.ImageURL)
	}
}
