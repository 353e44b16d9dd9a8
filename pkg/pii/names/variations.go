package names

import "strings"

// Variation is one textual form a person may be referred to by. Auto marks
// generator output; user-supplied variants arrive with Auto=false from
// storage. Enabled is cleared by the index when a variant turns ambiguous.
type Variation struct {
	Text    string
	Auto    bool
	Enabled bool
}

// Variations produces the deterministic variant set for a display name.
//
// Minimum specificity: no variant is ever a bare first name or nickname;
// everything includes at least a last name. A single-token display name
// therefore generates nothing and such a person can only be masked via
// email, student id, or a user-supplied variation.
func Variations(display string) []Variation {
	n := Parse(display)
	if n.Last == "" || n.First == "" {
		return nil
	}

	var (
		out  []Variation
		seen = map[string]bool{}
	)
	add := func(text string) {
		key := Normalize(text)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, Variation{Text: text, Auto: true, Enabled: true})
	}

	add(display) // as given, suffix and middle included

	first, last := n.First, n.Last
	// Order permutations for the given first name and each nickname.
	for _, f := range append([]string{first}, Related(first)...) {
		add(f + " " + last)
		add(last + ", " + f)
		add(last + " " + f)
	}

	if n.Middle != "" {
		mi := initial(n.Middle)
		add(first + " " + mi + ". " + last)
		add(first + " " + mi + " " + last)
		add(last + ", " + first + " " + mi + ".")
		add(last + ", " + first + " " + mi)
	}

	fi := initial(first)
	add(fi + ". " + last)
	add(fi + " " + last)
	add(last + ", " + fi + ".")
	add(last + ", " + fi)

	return out
}

func initial(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}
