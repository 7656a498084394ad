// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodshare/cli/internal/backend"
	"foodshare/cli/internal/extract"
	"foodshare/cli/internal/notify"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var aiRaw bool

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Ask the AI helpers about food",
	Long: `The ai commands call the backend's AI helpers: categorisation, shelf-life
prediction, nutrition estimates, free-form chat and recipe generation.
Use --raw to see the response exactly as returned.`,
}

// aiCall runs one AI request behind a spinner and reports failures with
// fallback. With --raw the response is printed as is and show is skipped.
func aiCall(cmd *cobra.Command, spin, action, fallback string, call func(context.Context, backend.API) (json.RawMessage, error), show func([]byte) error) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	_, be, err := a.Require(ctx, "")
	if err != nil {
		return err
	}
	var raw json.RawMessage
	err = withSpinner(a.out, spin, func() error {
		var cerr error
		raw, cerr = call(ctx, be)
		return cerr
	})
	if err != nil {
		return a.fail(action, fallback, err)
	}
	if msg := extract.Message(raw); msg != "" {
		fmt.Fprintln(a.out, pterm.Warning.Sprint(msg))
	}
	if aiRaw {
		fmt.Fprintln(a.out, extract.Pretty(raw))
		return nil
	}
	return show(raw)
}

func foodName(args []string) (string, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return "", errors.New("name the food to ask about")
	}
	return name, nil
}

var aiCategorizeCmd = &cobra.Command{
	Use:   "categorize <food>",
	Short: "Suggest a category for a food",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := foodName(args)
		if err != nil {
			return err
		}
		return aiCall(cmd, "Categorizing", "categorize", "AI categorize failed",
			func(ctx context.Context, be backend.API) (json.RawMessage, error) { return be.Categorize(ctx, name) },
			func(raw []byte) error {
				if c, ok := extract.Category(raw); ok {
					fmt.Fprintf(a.out, "%s: %s\n", name, pterm.Bold.Sprint(c))
					return nil
				}
				fmt.Fprintln(a.out, extract.Pretty(raw))
				return nil
			})
	},
}

var aiExpiryCmd = &cobra.Command{
	Use:   "expiry <food>",
	Short: "Predict how long a food keeps",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := foodName(args)
		if err != nil {
			return err
		}
		return aiCall(cmd, "Predicting expiry", "predict expiry", "Expiry prediction failed",
			func(ctx context.Context, be backend.API) (json.RawMessage, error) { return be.PredictExpiry(ctx, name) },
			func(raw []byte) error {
				days, ok := extract.ExpiryDays(raw)
				if !ok {
					a.note.Notify(notify.Info, "AI returned unexpected expiry format")
					fmt.Fprintln(a.out, extract.Pretty(raw))
					return nil
				}
				at := extract.FormatLocal(extract.PredictedExpiry(time.Now(), days))
				fmt.Fprintf(a.out, "%s keeps about %s (until %s)\n", name, plural(days, "day"), at)
				return nil
			})
	},
}

var (
	aiQuantity float64
	aiUnit     string
)

var aiNutritionCmd = &cobra.Command{
	Use:   "nutrition <food>",
	Short: "Estimate the nutrition of a food",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := foodName(args)
		if err != nil {
			return err
		}
		q := backend.FoodQuery{Name: name, Quantity: aiQuantity, Unit: aiUnit}
		return aiCall(cmd, "Estimating nutrition", "nutrition", "Nutrition failed",
			func(ctx context.Context, be backend.API) (json.RawMessage, error) { return be.Nutrition(ctx, q) },
			func(raw []byte) error { return renderNutrition(q, raw) })
	},
}

var aiChatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the food assistant anything",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := strings.TrimSpace(strings.Join(args, " "))
		if msg == "" {
			return errors.New("message is empty")
		}
		return aiCall(cmd, "Thinking", "chat", "Chat failed",
			func(ctx context.Context, be backend.API) (json.RawMessage, error) { return be.Chat(ctx, msg) },
			func(raw []byte) error {
				_, err := fmt.Fprintln(a.out, extract.Reply(raw))
				return err
			})
	},
}

var (
	recipeIngredients string
	recipeServings    int
)

var aiRecipeCmd = &cobra.Command{
	Use:   "recipe",
	Short: "Generate a recipe from ingredients",
	Long: `Generate a recipe from what you have.

Example:
  foodshare ai recipe --ingredients "2 potatoes, 1 onion, cheese" --servings 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ingredients := strings.TrimSpace(recipeIngredients)
		if ingredients == "" {
			a.note.Notify(notify.Info, "Add ingredients or food name")
			return errReported
		}
		if recipeServings < 1 {
			return errors.New("--servings must be at least 1")
		}
		return aiCall(cmd, "Cooking up a recipe", "recipe", "Recipe generation failed",
			func(ctx context.Context, be backend.API) (json.RawMessage, error) {
				return be.Recipe(ctx, ingredients, recipeServings)
			},
			func(raw []byte) error {
				renderRecipe(extract.ParseRecipe(raw))
				return nil
			})
	},
}

func renderRecipe(r extract.Recipe) {
	fmt.Fprintln(a.out, pterm.Bold.Sprint(r.Title))
	if r.Prep != "" || r.Cook != "" {
		fmt.Fprintf(a.out, "Prep: %s  Cook: %s\n", orNA(r.Prep), orNA(r.Cook))
	}
	if len(r.Ingredients) > 0 {
		fmt.Fprintln(a.out, "\n"+pterm.Bold.Sprint("Ingredients"))
		for _, s := range r.Ingredients {
			fmt.Fprintln(a.out, "  • "+s)
		}
	}
	if len(r.Instructions) > 0 {
		fmt.Fprintln(a.out, "\n"+pterm.Bold.Sprint("Instructions"))
		for i, s := range r.Instructions {
			fmt.Fprintf(a.out, "  %d. %s\n", i+1, s)
		}
	}
	if r.Nutrition != "" {
		fmt.Fprintln(a.out, "\n"+pterm.Bold.Sprint("Nutrition"))
		fmt.Fprintln(a.out, r.Nutrition)
	}
}

func init() {
	rootCmd.AddCommand(aiCmd)
	aiCmd.AddCommand(aiCategorizeCmd, aiExpiryCmd, aiNutritionCmd, aiChatCmd, aiRecipeCmd)

	aiCmd.PersistentFlags().BoolVar(&aiRaw, "raw", false, "print the response as returned")
	aiNutritionCmd.Flags().Float64Var(&aiQuantity, "quantity", 1, "amount of food")
	aiNutritionCmd.Flags().StringVar(&aiUnit, "unit", "piece", "unit of the amount")
	aiRecipeCmd.Flags().StringVar(&recipeIngredients, "ingredients", "", "what you have, comma separated")
	aiRecipeCmd.Flags().IntVar(&recipeServings, "servings", 2, "number of servings")
}
