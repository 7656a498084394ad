// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/extract"
	"foodshare/cli/internal/notify"
	"foodshare/cli/internal/nutrition"
	"foodshare/cli/internal/output"
	"foodshare/cli/internal/tips"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var donationsCmd = &cobra.Command{
	Use:     "donations",
	Aliases: []string{"donation", "d"},
	Short:   "Browse, publish and manage donations",
}

var (
	availSearch string
	availSort   string
)

var donationsAvailableCmd = &cobra.Command{
	Use:     "available",
	Aliases: []string{"ls", "list"},
	Short:   "List donations that can be requested",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := backend.ParseSortKey(availSort)
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		ds, err := be.AvailableDonations(ctx)
		if err != nil {
			return a.fail("load donations", "Failed to load donations", err)
		}
		ds = backend.FilterDonations(ds, availSearch)
		backend.SortDonations(ds, key)
		return renderDonations(a.out, ds)
	},
}

var donationsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own donations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		ds, err := be.MyDonations(ctx)
		if err != nil {
			return a.fail("load donations", "Failed to load donations", err)
		}
		return renderDonations(a.out, ds)
	},
}

var donationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one donation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		d, err := loadDonation(ctx, be, args[0])
		if err != nil {
			return err
		}
		renderDonation(a.out, d)
		return nil
	},
}

// newDonationFlags are the inputs of donations create.
var newDonationFlags struct {
	title, description, category string
	quantity, unit, expiry       string
	lat, lng, image              string
	aiCategory, aiExpiry         bool
}

var donationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a donation",
	Long: `Publish a donation. The AI helpers can fill in the category and the expiry
from the title (or description) when asked to.

Examples:
  foodshare donations create --title "Sourdough bread" --quantity 3 --unit loaf --expiry 2025-06-01T18:00
  foodshare donations create --title "Apples" --quantity 2 --unit kg --ai-category --ai-expiry
  foodshare donations create --title "Soup" --lat 52.52 --lng 13.40 --image soup.jpg`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := newDonationFlags
		nd := backend.NewDonation{
			Title:       strings.TrimSpace(f.title),
			Description: strings.TrimSpace(f.description),
			Category:    strings.TrimSpace(f.category),
			Quantity:    parseQuantity(f.quantity),
			Unit:        strings.TrimSpace(f.unit),
			ExpiryAt:    strings.TrimSpace(f.expiry),
		}
		if nd.ExpiryAt != "" {
			if _, err := time.ParseInLocation(extract.LocalInputLayout, nd.ExpiryAt, time.Local); err != nil {
				return fmt.Errorf("--expiry must look like %s", extract.LocalInputLayout)
			}
		}
		var err error
		if nd.PickupLat, err = parseCoord("lat", f.lat); err != nil {
			return err
		}
		if nd.PickupLng, err = parseCoord("lng", f.lng); err != nil {
			return err
		}
		if f.image != "" {
			if nd.ImageBase64, err = backend.ImageDataURL(f.image); err != nil {
				return err
			}
		}

		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}

		name := nd.Title
		if name == "" {
			name = nd.Description
		}
		if f.aiCategory {
			if err := suggestCategory(ctx, be, name, &nd); err != nil {
				return err
			}
		}
		if f.aiExpiry {
			if err := suggestExpiry(ctx, be, name, &nd); err != nil {
				return err
			}
		}

		var created *backend.Donation
		err = withSpinner(a.out, "Publishing donation", func() error {
			var cerr error
			created, cerr = be.CreateDonation(ctx, nd)
			return cerr
		})
		if err != nil {
			return a.fail("create donation", "Failed to create donation", err)
		}
		a.note.Notify(notify.Success, "Donation created")
		if created != nil && created.ID != "" {
			fmt.Fprintf(a.out, "   Donation %s. Run 'foodshare donations mine' to see your donations.\n", created.ID)
		}
		return nil
	},
}

func suggestCategory(ctx context.Context, be backend.API, name string, nd *backend.NewDonation) error {
	if name == "" {
		a.note.Notify(notify.Info, "Please add a title or description for AI to categorize")
		return nil
	}
	raw, err := be.Categorize(ctx, name)
	if err != nil {
		return a.fail("categorize", "AI categorize failed", err)
	}
	if c, ok := extract.Category(raw); ok {
		nd.Category = c
		fmt.Fprintf(a.out, "   AI category: %s\n", c)
		return nil
	}
	a.note.Notify(notify.Info, "AI categorization returned unexpected result")
	return nil
}

func suggestExpiry(ctx context.Context, be backend.API, name string, nd *backend.NewDonation) error {
	if name == "" {
		a.note.Notify(notify.Info, "Provide title or description for expiry prediction")
		return nil
	}
	raw, err := be.PredictExpiry(ctx, name)
	if err != nil {
		return a.fail("predict expiry", "Expiry prediction failed", err)
	}
	days, ok := extract.ExpiryDays(raw)
	if !ok {
		a.note.Notify(notify.Error, "AI returned unexpected expiry format")
		return fmt.Errorf("predict expiry: %w", errReported)
	}
	nd.ExpiryAt = extract.FormatLocal(extract.PredictedExpiry(time.Now(), days))
	a.note.Notify(notify.Success, fmt.Sprintf("Predicted expiry +%s", plural(days, "day")))
	return nil
}

var cancelDonationYes bool

var donationsCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Withdraw one of your donations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		d, err := loadDonation(ctx, be, args[0])
		if err != nil {
			return err
		}
		if !backend.CanCancelDonation(*d) {
			fmt.Fprintf(a.out, "Donation %s is already cancelled.\n", d.ID)
			return nil
		}
		if !cancelDonationYes {
			ok, err := a.Prompter().Confirm(fmt.Sprintf("Cancel donation %q?", d.Title))
			if err != nil || !ok {
				return err
			}
		}
		if err := be.CancelDonation(ctx, d.ID); err != nil {
			return a.fail("cancel donation", "Failed to cancel", err)
		}
		a.note.Notify(notify.Success, "Donation cancelled")
		return nil
	},
}

var tipsName string

var donationsTipsCmd = &cobra.Command{
	Use:   "tips [id]",
	Short: "AI storage tips for a donation",
	Long: `Ask the AI how to store a donation. Give a donation id, or --name to ask
about any food.

Examples:
  foodshare donations tips 12
  foodshare donations tips --name "cooked rice"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		name := strings.TrimSpace(tipsName)
		if name == "" {
			if len(args) == 0 {
				return errors.New("give a donation id or --name")
			}
			d, err := loadDonation(ctx, be, args[0])
			if err != nil {
				return err
			}
			name = d.Name()
		}

		var raw []byte
		err = withSpinner(a.out, "Asking for storage tips", func() error {
			var terr error
			raw, terr = be.StorageTips(ctx, name)
			return terr
		})
		if err != nil {
			return a.fail("storage tips", "Failed to fetch storage tips", err)
		}
		fmt.Fprintln(a.out, pterm.Bold.Sprintf("Storage tips: %s", name))
		return tips.Render(a.out, tips.Parse(extract.TipsText(raw)))
	},
}

var donationsNutritionCmd = &cobra.Command{
	Use:   "nutrition <id>",
	Short: "AI nutrition estimate for a donation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		d, err := loadDonation(ctx, be, args[0])
		if err != nil {
			return err
		}
		q := backend.FoodQueryFor(*d)
		var raw []byte
		err = withSpinner(a.out, "Estimating nutrition", func() error {
			var nerr error
			raw, nerr = be.Nutrition(ctx, q)
			return nerr
		})
		if err != nil {
			return a.fail("nutrition", "Failed to fetch nutrition", err)
		}
		return renderNutrition(q, raw)
	},
}

var donationsConsumeCmd = &cobra.Command{
	Use:   "consume <id>",
	Short: "How many people a donation feeds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := requestContext(cmd)
		defer cancel()

		_, be, err := a.Require(ctx, "")
		if err != nil {
			return err
		}
		d, err := loadDonation(ctx, be, args[0])
		if err != nil {
			return err
		}
		var raw []byte
		err = withSpinner(a.out, "Estimating portions", func() error {
			var cerr error
			raw, cerr = be.ConsumeRatio(ctx, backend.FoodQueryFor(*d))
			return cerr
		})
		if err != nil {
			return a.fail("consume ratio", "Failed to fetch consume ratio", err)
		}

		cr := nutrition.ParseConsumeRatio(raw)
		if cr.Explanation != "" {
			fmt.Fprintln(a.out, cr.Explanation)
			fmt.Fprintln(a.out)
		}
		if len(cr.Variants) == 0 {
			fmt.Fprintln(a.out, "No variant predictions available.")
		} else {
			t := output.NewTable(a.out, "VARIANT", "PERSONS", "SERVING")
			for _, v := range cr.Variants {
				t.AddRow(v.Label, strconv.FormatFloat(v.Persons, 'f', -1, 64), v.Serving)
			}
			if err := t.Render(); err != nil {
				return err
			}
			if err := nutrition.Chart(a.out, nutrition.VariantBars(cr.Variants)); err != nil {
				return err
			}
		}
		if cr.AINote != "" {
			fmt.Fprintln(a.out, pterm.Info.Sprint(cr.AINote))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(donationsCmd)
	donationsCmd.AddCommand(donationsAvailableCmd, donationsMineCmd, donationsShowCmd,
		donationsCreateCmd, donationsCancelCmd, donationsTipsCmd, donationsNutritionCmd, donationsConsumeCmd)

	donationsAvailableCmd.Flags().StringVar(&availSearch, "search", "", "filter by title or category")
	donationsAvailableCmd.Flags().StringVar(&availSort, "sort", "date", "sort by date or quantity")

	fl := donationsCreateCmd.Flags()
	fl.StringVar(&newDonationFlags.title, "title", "", "what is being donated")
	fl.StringVar(&newDonationFlags.description, "description", "", "details for requesters")
	fl.StringVar(&newDonationFlags.category, "category", "", "food category")
	fl.StringVar(&newDonationFlags.quantity, "quantity", "", "amount, a number")
	fl.StringVar(&newDonationFlags.unit, "unit", "", "unit of the quantity, e.g. kg")
	fl.StringVar(&newDonationFlags.expiry, "expiry", "", "best before, local time as "+extract.LocalInputLayout)
	fl.StringVar(&newDonationFlags.lat, "lat", "", "pickup latitude")
	fl.StringVar(&newDonationFlags.lng, "lng", "", "pickup longitude")
	fl.StringVar(&newDonationFlags.image, "image", "", "photo to attach (max 5MB)")
	fl.BoolVar(&newDonationFlags.aiCategory, "ai-category", false, "let the AI pick the category")
	fl.BoolVar(&newDonationFlags.aiExpiry, "ai-expiry", false, "let the AI predict the expiry")

	donationsCancelCmd.Flags().BoolVarP(&cancelDonationYes, "yes", "y", false, "do not ask for confirmation")
	donationsTipsCmd.Flags().StringVar(&tipsName, "name", "", "food to ask about instead of a donation")
}

// loadDonation fetches a donation by its id argument, reporting failures.
func loadDonation(ctx context.Context, be backend.API, arg string) (*backend.Donation, error) {
	id, err := parseID("donation", arg)
	if err != nil {
		return nil, err
	}
	d, err := be.Donation(ctx, id)
	if err != nil {
		return nil, a.fail("load donation", "Failed to load donation", err)
	}
	return d, nil
}

func renderNutrition(q backend.FoodQuery, raw []byte) error {
	ns := nutrition.Normalize(raw)
	fmt.Fprintln(a.out, pterm.Bold.Sprintf("Nutrition: %s (%s %s)", q.Name, strconv.FormatFloat(q.Quantity, 'f', -1, 64), q.Unit))
	if len(ns) == 0 {
		fmt.Fprintln(a.out, extract.Pretty(raw))
		return nil
	}
	t := output.NewTable(a.out, "NUTRIENT", "VALUE")
	for _, n := range ns {
		v := strconv.FormatFloat(n.Value, 'f', -1, 64)
		if n.Unit != "" {
			v += " " + n.Unit
		}
		t.AddRow(n.Label, v)
	}
	if err := t.Render(); err != nil {
		return err
	}
	return nutrition.Chart(a.out, nutrition.NutrientBars(ns))
}

// parseQuantity reads a quantity; anything that is not a finite number is 0.
func parseQuantity(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseCoord(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("--%s: %q is not a number", name, s)
	}
	return &f, nil
}

func plural(n float64, unit string) string {
	s := strconv.FormatFloat(n, 'f', -1, 64) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
