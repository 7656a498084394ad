// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package extract interprets AI endpoint responses. The AI backend answers in
// several shapes for the same question (an object with one of a few field
// names, or a bare JSON scalar), so each extractor tries a fixed list of
// strategies in order.
package extract

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// LocalInputLayout is the minute-precision local timestamp used for expiryAt.
const LocalInputLayout = "2006-01-02T15:04"

// MaxExpiryDays bounds an accepted shelf life; larger answers are treated as
// an unexpected format.
const MaxExpiryDays = 1_000_000

// NoTips is shown when the storage tips response carries no text.
const NoTips = "No tips returned."

// ExpiryDays returns the predicted shelf life in days.
//
// The first present field among expiryDays, days and daysToExpire decides;
// expiryDays may be a string and only its leading integer counts. Without any
// of them the body itself may be a number or numeric string. The result must
// be finite and within MaxExpiryDays, otherwise ok is false.
func ExpiryDays(raw []byte) (days float64, ok bool) {
	days, ok = expiryDays(raw)
	if !ok || math.Abs(days) > MaxExpiryDays {
		return 0, false
	}
	return days, true
}

func expiryDays(raw []byte) (float64, bool) {
	r := gjson.ParseBytes(raw)
	if r.IsObject() {
		if v := r.Get("expiryDays"); present(v) {
			return leadingInt(v.String())
		}
		if v := r.Get("days"); present(v) {
			return toNumber(v)
		}
		if v := r.Get("daysToExpire"); present(v) {
			return toNumber(v)
		}
		return 0, false
	}
	return toNumber(r)
}

// maxDurationDays is the largest whole day count a time.Duration can hold.
const maxDurationDays = math.MaxInt64 / int64(24*time.Hour)

// PredictedExpiry adds days to now. Spans too long for a time.Duration are
// added as calendar days plus the fractional remainder.
func PredictedExpiry(now time.Time, days float64) time.Time {
	if math.Abs(days) < float64(maxDurationDays) {
		return now.Add(time.Duration(days * float64(24*time.Hour)))
	}
	whole := math.Trunc(days)
	return now.AddDate(0, 0, int(whole)).Add(time.Duration((days - whole) * float64(24*time.Hour)))
}

// FormatLocal renders t in the local zone with LocalInputLayout.
func FormatLocal(t time.Time) string {
	return t.Local().Format(LocalInputLayout)
}

// Category returns the category suggested by the AI: the category field of an
// object, else a bare string body.
func Category(raw []byte) (string, bool) {
	r := gjson.ParseBytes(raw)
	if r.IsObject() {
		if c := r.Get("category").String(); c != "" {
			return c, true
		}
		return "", false
	}
	if r.Type == gjson.String {
		return r.Str, true
	}
	return "", false
}

// TipsText returns the storage tips text: a bare string body, else the tips
// field, else the text field. Blank text yields "".
func TipsText(raw []byte) string {
	r := gjson.ParseBytes(raw)
	var s string
	switch {
	case r.Type == gjson.String:
		s = r.Str
	case r.IsObject():
		s = r.Get("tips").String()
		if s == "" {
			s = r.Get("text").String()
		}
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Reply returns the conversational text of a chat response, trying the usual
// field names and a bare string. Anything else is returned pretty-printed.
func Reply(raw []byte) string {
	r := gjson.ParseBytes(raw)
	if r.Type == gjson.String {
		return r.Str
	}
	for _, k := range []string{"reply", "response", "answer", "message", "text"} {
		if v := r.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return Pretty(raw)
}

// Message returns an "error" field from an AI payload, if any.
func Message(raw []byte) string {
	return gjson.GetBytes(raw, "error").String()
}

// Pretty indents a JSON document for display. Invalid JSON is returned as-is.
func Pretty(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return string(raw)
	}
	return strings.TrimRight(string(pretty.Pretty(raw)), "\n")
}

// Recipe is a generated recipe.
type Recipe struct {
	Title        string
	Prep         string
	Cook         string
	Ingredients  []string
	Instructions []string
	Nutrition    string
}

// ParseRecipe reads a recipe response. A missing title becomes
// "Generated Recipe"; nutrition is kept as pretty-printed JSON.
func ParseRecipe(raw []byte) Recipe {
	r := gjson.ParseBytes(raw)
	rec := Recipe{
		Title:        r.Get("title").String(),
		Prep:         r.Get("prep").String(),
		Cook:         r.Get("cook").String(),
		Ingredients:  stringList(r.Get("ingredients")),
		Instructions: stringList(r.Get("instructions")),
	}
	if rec.Title == "" {
		rec.Title = "Generated Recipe"
	}
	if n := r.Get("nutrition"); n.Exists() && n.Type != gjson.Null {
		rec.Nutrition = Pretty([]byte(n.Raw))
	}
	return rec
}

func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		if v.Type == gjson.String && v.Str != "" {
			return []string{v.Str}
		}
		return nil
	}
	var out []string
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, item.String())
		return true
	})
	return out
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// toNumber converts a scalar the way a loose numeric coercion would: numbers
// as-is, numeric strings parsed after trimming, empty strings as zero.
func toNumber(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return finite(v.Num)
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	default:
		return 0, false
	}
}

// leadingInt parses the optionally signed decimal integer prefix of s.
func leadingInt(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return finite(n)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
