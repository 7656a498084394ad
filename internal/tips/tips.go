// Copyright (c) 2025 Foodshare
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tips renders the small markdown subset used by AI storage tips:
// paragraphs, "* " or "- " bullet lists, blank-line breaks and **bold**.
package tips

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pterm/pterm"
)

// Kind is the type of a Block.
type Kind int

const (
	Paragraph Kind = iota
	List
	Break
)

// Span is a run of inline text.
type Span struct {
	Text string
	Bold bool
}

// Block is one rendered unit. A Paragraph has exactly one item, a List one
// item per bullet, a Break none.
type Block struct {
	Kind  Kind
	Items [][]Span
}

var (
	bulletRe = regexp.MustCompile(`^(\*|-)\s+`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// Parse splits text into blocks. Line endings are normalised first; lines are
// trimmed; consecutive plain lines are joined with single spaces.
func Parse(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var blocks []Block
	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			blocks = append(blocks, Block{Kind: Break})
			i++
		case bulletRe.MatchString(line):
			b := Block{Kind: List}
			for i < len(lines) {
				l := strings.TrimSpace(lines[i])
				if !bulletRe.MatchString(l) {
					break
				}
				b.Items = append(b.Items, Inline(bulletRe.ReplaceAllString(l, "")))
				i++
			}
			blocks = append(blocks, b)
		default:
			var para []string
			for i < len(lines) {
				l := strings.TrimSpace(lines[i])
				if l == "" || bulletRe.MatchString(l) {
					break
				}
				para = append(para, l)
				i++
			}
			blocks = append(blocks, Block{Kind: Paragraph, Items: [][]Span{Inline(strings.Join(para, " "))}})
		}
	}
	return blocks
}

// Inline splits s into plain and **bold** spans.
func Inline(s string) []Span {
	var spans []Span
	last := 0
	for _, m := range boldRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			spans = append(spans, Span{Text: s[last:m[0]]})
		}
		spans = append(spans, Span{Text: s[m[2]:m[3]], Bold: true})
		last = m[1]
	}
	if last < len(s) {
		spans = append(spans, Span{Text: s[last:]})
	}
	if spans == nil {
		spans = []Span{{Text: s}}
	}
	return spans
}

// Render writes blocks to w, styling bold spans with pterm.
func Render(w io.Writer, blocks []Block) error {
	for _, b := range blocks {
		var err error
		switch b.Kind {
		case Break:
			_, err = fmt.Fprintln(w)
		case List:
			for _, item := range b.Items {
				if _, err = fmt.Fprintln(w, "  • "+spans(item)); err != nil {
					return err
				}
			}
		default:
			for _, item := range b.Items {
				if _, err = fmt.Fprintln(w, spans(item)); err != nil {
					return err
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func spans(ss []Span) string {
	var sb strings.Builder
	for _, s := range ss {
		if s.Bold {
			sb.WriteString(pterm.Bold.Sprint(s.Text))
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}
