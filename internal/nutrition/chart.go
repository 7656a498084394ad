// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

package nutrition

import (
	"fmt"
	"io"
	"math"

	"github.com/pterm/pterm"
)

// Bar is one labelled value of a chart.
type Bar struct {
	Label string
	Value float64
}

// NutrientBars converts nutrients to bars.
func NutrientBars(ns []Nutrient) []Bar {
	out := make([]Bar, 0, len(ns))
	for _, n := range ns {
		out = append(out, Bar{Label: n.Label, Value: n.Value})
	}
	return out
}

// VariantBars converts consume-ratio variants to bars of persons served.
func VariantBars(vs []Variant) []Bar {
	out := make([]Bar, 0, len(vs))
	for _, v := range vs {
		out = append(out, Bar{Label: v.Label, Value: v.Persons})
	}
	return out
}

// Chart writes a horizontal bar chart. Nothing is written for no bars.
// pterm charts are integer based, so values are rounded.
func Chart(w io.Writer, bars []Bar) error {
	if len(bars) == 0 {
		return nil
	}
	pb := make(pterm.Bars, 0, len(bars))
	for _, b := range bars {
		pb = append(pb, pterm.Bar{Label: b.Label, Value: int(math.Round(b.Value))})
	}
	s, err := pterm.DefaultBarChart.
		WithHorizontal().
		WithShowValue().
		WithBars(pb).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, s)
	return err
}
