// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package nutrition turns AI nutrition and consume-ratio payloads into rows
// and bar charts.
package nutrition

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

var labels = map[string]string{
	"carbs":         "Carbohydrates",
	"carbohydrates": "Carbohydrates",
	"protein":       "Protein",
	"fats":          "Fats",
	"fat":           "Fats",
	"fiber":         "Fiber",
	"sugars":        "Sugars",
	"sugar":         "Sugars",
	"vitaminC":      "Vitamin C",
	"vitaminB12":    "Vitamin B12",
	"calcium":       "Calcium",
	"iron":          "Iron",
	"calories":      "Calories",
}

var (
	camelRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	sepRe   = regexp.MustCompile(`[_\-]+`)
	// leading number with an optional unit, e.g. "12g", "3.5 mg", "-1".
	quantityRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*([A-Za-zµ%]*)\s*$`)
)

// Humanize turns a nutrient key into a display label.
func Humanize(key string) string {
	if key == "" {
		return ""
	}
	if l, ok := labels[key]; ok {
		return l
	}
	spaced := camelRe.ReplaceAllString(key, "$1 $2")
	spaced = sepRe.ReplaceAllString(spaced, " ")
	words := strings.Split(spaced, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Nutrient is one numeric entry of a nutrition payload.
type Nutrient struct {
	Key   string
	Label string
	Value float64
	Unit  string
}

// Normalize collects the numeric entries of a nutrition payload. Entries are
// read from the "nutrients" object when present, else from the top level.
// Values may be numbers or strings with a unit suffix. The result is ordered
// by descending value, then by label.
func Normalize(raw []byte) []Nutrient {
	root := gjson.ParseBytes(raw)
	src := root
	if n := root.Get("nutrients"); n.IsObject() {
		src = n
	}
	if !src.IsObject() {
		return nil
	}

	var out []Nutrient
	src.ForEach(func(k, v gjson.Result) bool {
		if n, ok := parse(v); ok {
			n.Key = k.String()
			n.Label = Humanize(n.Key)
			out = append(out, n)
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func parse(v gjson.Result) (Nutrient, bool) {
	switch v.Type {
	case gjson.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return Nutrient{}, false
		}
		return Nutrient{Value: v.Num}, true
	case gjson.String:
		m := quantityRe.FindStringSubmatch(v.Str)
		if m == nil {
			return Nutrient{}, false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Nutrient{}, false
		}
		return Nutrient{Value: f, Unit: m[2]}, true
	default:
		return Nutrient{}, false
	}
}

// Variant is one portion-size prediction of a consume-ratio payload.
type Variant struct {
	Label   string
	Persons float64
	Serving string
}

// ConsumeRatio is a parsed consume-ratio payload.
type ConsumeRatio struct {
	Explanation string
	Variants    []Variant
	AINote      string
}

// ParseConsumeRatio reads explanation, variants and the optional AI note.
func ParseConsumeRatio(raw []byte) ConsumeRatio {
	r := gjson.ParseBytes(raw)
	return ConsumeRatio{
		Explanation: r.Get("explanation").String(),
		Variants:    Variants(raw),
		AINote:      r.Get("aiNote").String(),
	}
}

// Variants reads the "variants" array. Serving is taken from serving_g,
// serving_ml or piecesPerPerson, whichever is set first, else "-".
func Variants(raw []byte) []Variant {
	arr := gjson.GetBytes(raw, "variants")
	if !arr.IsArray() {
		return nil
	}
	var out []Variant
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Variant{
			Label:   v.Get("label").String(),
			Persons: v.Get("persons").Float(),
			Serving: serving(v),
		})
		return true
	})
	return out
}

func serving(v gjson.Result) string {
	switch {
	case truthy(v.Get("serving_g")):
		return v.Get("serving_g").String() + " g"
	case truthy(v.Get("serving_ml")):
		return v.Get("serving_ml").String() + " ml"
	case truthy(v.Get("piecesPerPerson")):
		return v.Get("piecesPerPerson").String() + " pcs/person"
	default:
		return "-"
	}
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	case gjson.True:
		return true
	default:
		return false
	}
}
