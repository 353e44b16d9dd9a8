// Package names turns a roster display name into the set of textual variants
// a person might be referred to by, for dictionary-based PII detection.
package names

import "strings"

// Name is the parsed view of a display name.
type Name struct {
	First  string
	Middle string
	Last   string
	Suffix string
}

// suffixes recognized at the end of a name, dot-tolerant, case-insensitive.
var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

func isSuffix(tok string) bool {
	return suffixes[strings.ToLower(strings.TrimSuffix(tok, "."))]
}

// Parse splits a display name into components with a deterministic
// heuristic: tokens are whitespace-delimited; a comma means "Last, First
// [Middle]"; a recognized generational suffix is peeled off the end first;
// with three or more plain tokens everything between the first and the last
// token is the middle component.
func Parse(full string) Name {
	full = strings.Join(strings.Fields(full), " ")
	if full == "" {
		return Name{}
	}

	var n Name
	if i := strings.IndexByte(full, ','); i >= 0 {
		last := strings.TrimSpace(full[:i])
		rest := strings.Fields(full[i+1:])
		if len(rest) > 0 && isSuffix(rest[len(rest)-1]) {
			n.Suffix = rest[len(rest)-1]
			rest = rest[:len(rest)-1]
		}
		n.Last = last
		if len(rest) > 0 {
			n.First = rest[0]
			n.Middle = strings.Join(rest[1:], " ")
		}
		return n
	}

	toks := strings.Fields(full)
	if len(toks) > 1 && isSuffix(toks[len(toks)-1]) {
		n.Suffix = toks[len(toks)-1]
		toks = toks[:len(toks)-1]
	}
	switch len(toks) {
	case 0:
	case 1:
		n.First = toks[0]
	case 2:
		n.First, n.Last = toks[0], toks[1]
	default:
		n.First = toks[0]
		n.Last = toks[len(toks)-1]
		n.Middle = strings.Join(toks[1:len(toks)-1], " ")
	}
	return n
}

// Normalize case-folds and whitespace-collapses s for variant matching.
// Display text keeps its original form; only comparisons go through here.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
