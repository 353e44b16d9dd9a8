// Package engine performs the mask and unmask substitutions over raw text
// and structured value trees. All functions are pure; the roster index is
// never mutated and diagnostics are returned, not raised.
package engine

import (
	"regexp"
	"strings"

	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/pii/names"
)

// Diagnostic reports a span the engine refused to mask. Masking an
// ambiguous span incorrectly is worse than not masking it, so such spans
// are left intact and handed to the operator instead.
type Diagnostic struct {
	Span       string  `json:"span"`
	Reason     string  `json:"reason"`
	Candidates []int64 `json:"candidates,omitempty"`
}

const ReasonAmbiguous = "ambiguousVariation"

// capRun matches a run of two or more capitalized words: the shape of a
// personal name. One capitalized word alone is far more often a sentence
// start than a name, so single words are never touched.
var capRun = regexp.MustCompile(`\p{Lu}[\p{Ll}'’-]+(?:[ \t]+\p{Lu}[\p{Ll}'’-]+)+`)

// MaskText replaces every detected roster variant in text with its token.
//
// Unique variants are substituted longest-first (the index orders them) so a
// full form is consumed before any shorter form contained in it. Remaining
// name-shaped spans are then partially redacted when they resolve to nobody,
// or reported and left intact when they resolve ambiguously.
func MaskText(text string, idx *index.Index) (string, []Diagnostic) {
	for _, r := range idx.Replacements() {
		text = r.Pattern.ReplaceAllLiteralString(text, r.Token)
	}

	// Ambiguous variants are scanned with their own patterns, not the
	// name-shaped fallback: initial forms like "M. Nery" must still be
	// reported even though they are not capitalized-word runs.
	var diags []Diagnostic
	reported := map[string]bool{}
	for _, a := range idx.AmbiguousMatches() {
		if span := a.Pattern.FindString(text); span != "" {
			reported[a.Variant] = true
			diags = append(diags, Diagnostic{
				Span:       span,
				Reason:     ReasonAmbiguous,
				Candidates: a.Candidates,
			})
		}
	}

	text = capRun.ReplaceAllStringFunc(text, func(span string) string {
		res := idx.Resolve(span)
		switch res.Kind {
		case index.Unique:
			// Normally consumed by the first pass; resolvable spans that
			// survived (e.g. odd spacing) still get their token.
			return res.Ref.Encode()
		case index.Ambiguous:
			if key := names.Normalize(span); !reported[key] {
				reported[key] = true
				diags = append(diags, Diagnostic{
					Span:       span,
					Reason:     ReasonAmbiguous,
					Candidates: res.Candidates,
				})
			}
			return span
		}
		return redactSpan(span)
	})
	return text, diags
}

// Mask applies MaskText to every string leaf of a value tree.
func Mask(v Value, idx *index.Index) (Value, []Diagnostic) {
	var diags []Diagnostic
	out := v.mapStrings(func(s string) string {
		masked, d := MaskText(s, idx)
		diags = append(diags, d...)
		return masked
	})
	return out, diags
}

// Redact applies the irreversible fallback alone: every name-shaped span is
// partially redacted. Used on egress when no course context is resolvable
// and no roster index exists to substitute tokens from.
func Redact(s string) string {
	return capRun.ReplaceAllStringFunc(s, redactSpan)
}

// RedactValue applies Redact to every string leaf.
func RedactValue(v Value) Value {
	return v.mapStrings(Redact)
}

// redactSpan keeps the first letter of each word and drops the rest. The
// transformation is irreversible on purpose; this is the fail-safe for
// people missing from the roster, not a substitute for tokenization.
func redactSpan(span string) string {
	words := strings.Fields(span)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + "***"
	}
	return strings.Join(words, " ")
}
