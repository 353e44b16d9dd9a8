package engine

import (
	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/pii/token"
)

// UnmaskText resolves every token in text (current, legacy colon, and bare
// grammars) back to the real roster value. A token whose anchor is missing
// from the roster stays as-is; fabricating PII is never an option.
// Unmasking is idempotent: the output contains no tokens left to resolve.
func UnmaskText(text string, idx *index.Index) string {
	return token.Rewrite(text, idx.Lookup)
}

// Unmask applies UnmaskText to every string leaf of a value tree.
func Unmask(v Value, idx *index.Index) Value {
	return v.mapStrings(func(s string) string {
		return UnmaskText(s, idx)
	})
}
