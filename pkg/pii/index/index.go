// Package index builds the per-(owner, course) reverse lookup from every
// known textual variant to the single roster entry it denotes. Ambiguity is
// detected at build time and surfaced, never resolved by precedence.
package index

import (
	"regexp"
	"sort"
	"strings"

	"github.com/quipper/poc/aitutor/be/pkg/pii/names"
	"github.com/quipper/poc/aitutor/be/pkg/pii/token"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

// MatchKind classifies a Resolve result.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Unique
	Ambiguous
)

// Resolution is the outcome of resolving one normalized span.
type Resolution struct {
	Kind       MatchKind
	Ref        token.Ref // set when Kind == Unique
	Candidates []int64   // anchor ids, set when Kind == Ambiguous
}

// Replacement is one unique variant ready for substitution: a compiled
// case-insensitive, whitespace-tolerant, word-bounded pattern and the token
// that replaces it.
type Replacement struct {
	Variant string // normalized form, for diagnostics
	Pattern *regexp.Regexp
	Token   string
}

// AmbiguousMatch is a variant claimed by multiple identities, compiled so
// the engine can detect occurrences and report them without substituting.
type AmbiguousMatch struct {
	Variant    string
	Pattern    *regexp.Regexp
	Candidates []int64
}

type claim struct {
	ref    token.Ref
	custom bool
}

// slot holds every claim on one normalized variant. User-supplied claims
// outrank auto-generated ones; two claims of equal standing for different
// identities make the variant ambiguous.
type slot struct {
	claims []claim
}

func (s *slot) add(ref token.Ref, custom bool) {
	for _, c := range s.claims {
		if c.ref == ref {
			return
		}
	}
	s.claims = append(s.claims, claim{ref: ref, custom: custom})
}

// winners returns the claims that count for resolution: all user-supplied
// ones if any exist, otherwise all auto-generated ones.
func (s *slot) winners() []claim {
	var customs []claim
	for _, c := range s.claims {
		if c.custom {
			customs = append(customs, c)
		}
	}
	if len(customs) > 0 {
		return customs
	}
	return s.claims
}

func (s *slot) resolve() Resolution {
	w := s.winners()
	// Distinct identities among the winning claims; one person claiming a
	// variant through two fields is still unique.
	seen := map[[2]int64]bool{}
	var ids []int64
	first := w[0]
	for _, c := range w {
		key := [2]int64{int64(c.ref.Kind), c.ref.Anchor}
		if !seen[key] {
			seen[key] = true
			ids = append(ids, c.ref.Anchor)
		}
	}
	if len(ids) == 1 {
		return Resolution{Kind: Unique, Ref: first.ref}
	}
	return Resolution{Kind: Ambiguous, Candidates: ids}
}

// Index is immutable after Build and safe for concurrent use.
type Index struct {
	byVariant map[string]*slot
	people    map[int64]*roster.Entry
	groups    map[int64]*groups.Group
	repls     []Replacement
	ambigs    []AmbiguousMatch
}

// Build constructs the index from the current roster, the stored
// user-supplied variations, and the group set.
func Build(entries []*roster.Entry, custom []*roster.Variation, grps []*groups.Group) *Index {
	idx := &Index{
		byVariant: map[string]*slot{},
		people:    map[int64]*roster.Entry{},
		groups:    map[int64]*groups.Group{},
	}
	for _, e := range entries {
		idx.people[e.Anchor] = e
	}
	for _, g := range grps {
		idx.groups[g.Anchor] = g
	}

	for _, v := range custom {
		if !v.Enabled {
			continue
		}
		if _, ok := idx.people[v.Anchor]; !ok {
			continue // variation for someone no longer on the roster
		}
		idx.claim(v.Text, token.Ref{Kind: token.Person, Anchor: v.Anchor, Field: token.FieldName}, true)
	}

	for _, e := range entries {
		ref := func(f token.Field) token.Ref {
			return token.Ref{Kind: token.Person, Anchor: e.Anchor, Field: f}
		}
		for _, v := range names.Variations(e.DisplayName) {
			idx.claim(v.Text, ref(token.FieldName), false)
		}
		if e.Email != "" {
			idx.claim(e.Email, ref(token.FieldEmail), false)
		}
		if e.StudentID != "" {
			idx.claim(e.StudentID, ref(token.FieldCID), false)
		}
	}

	// Group names are matched literally only; team names are masked
	// wholesale, not pattern-matched against partial forms.
	for _, g := range grps {
		idx.claim(g.Name, token.Ref{Kind: token.Group, Anchor: g.Anchor, Field: token.FieldName}, false)
	}

	idx.compile()
	return idx
}

func (idx *Index) claim(text string, ref token.Ref, custom bool) {
	key := names.Normalize(text)
	if key == "" {
		return
	}
	s, ok := idx.byVariant[key]
	if !ok {
		s = &slot{}
		idx.byVariant[key] = s
	}
	s.add(ref, custom)
}

func (idx *Index) compile() {
	for key, s := range idx.byVariant {
		switch res := s.resolve(); res.Kind {
		case Unique:
			idx.repls = append(idx.repls, Replacement{
				Variant: key,
				Pattern: variantPattern(key),
				Token:   res.Ref.Encode(),
			})
		case Ambiguous:
			// Ambiguous variants get patterns too: never substituted, but
			// the engine scans for them to report occurrences.
			idx.ambigs = append(idx.ambigs, AmbiguousMatch{
				Variant:    key,
				Pattern:    variantPattern(key),
				Candidates: res.Candidates,
			})
		}
	}
	// Longest first so "matheus john nery" is consumed before "matheus
	// nery" can partially match inside it. Lexicographic tie-break keeps
	// the order deterministic.
	sort.Slice(idx.repls, func(i, j int) bool {
		a, b := idx.repls[i].Variant, idx.repls[j].Variant
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	sort.Slice(idx.ambigs, func(i, j int) bool {
		a, b := idx.ambigs[i].Variant, idx.ambigs[j].Variant
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
}

// variantPattern compiles a case-insensitive pattern matching the variant
// with any whitespace run between words. Word-boundary assertions are only
// attached next to word characters (RE2 has no lookarounds).
func variantPattern(normalized string) *regexp.Regexp {
	words := strings.Fields(normalized)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	pat := strings.Join(quoted, `\s+`)
	if isWordByte(normalized[0]) {
		pat = `\b` + pat
	}
	if isWordByte(normalized[len(normalized)-1]) {
		pat += `\b`
	}
	return regexp.MustCompile(`(?i)` + pat)
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// Resolve classifies one span. The span is normalized internally.
func (idx *Index) Resolve(span string) Resolution {
	s, ok := idx.byVariant[names.Normalize(span)]
	if !ok {
		return Resolution{Kind: NoMatch}
	}
	return s.resolve()
}

// Replacements returns every unique variant with its token, longest variant
// first. The slice is shared; callers must not modify it.
func (idx *Index) Replacements() []Replacement {
	return idx.repls
}

// Lookup returns the real value behind a token reference, or false when the
// anchor is unknown or the requested field is empty on the roster entry.
func (idx *Index) Lookup(ref token.Ref) (string, bool) {
	if ref.Kind == token.Group {
		g, ok := idx.groups[ref.Anchor]
		if !ok {
			return "", false
		}
		return g.Name, true
	}
	e, ok := idx.people[ref.Anchor]
	if !ok {
		return "", false
	}
	switch ref.Field {
	case token.FieldName:
		return e.DisplayName, true
	case token.FieldEmail:
		if e.Email == "" {
			return "", false
		}
		return e.Email, true
	case token.FieldCID:
		if e.StudentID == "" {
			return "", false
		}
		return e.StudentID, true
	}
	return "", false
}

// AmbiguousMatches returns every variant excluded from masking, longest
// variant first, with its compiled pattern. The slice is shared; callers
// must not modify it.
func (idx *Index) AmbiguousMatches() []AmbiguousMatch {
	return idx.ambigs
}

// AmbiguousVariants lists every variant excluded from masking with the
// anchors that claimed it, for operator diagnostics after a roster sync.
func (idx *Index) AmbiguousVariants() map[string][]int64 {
	out := map[string][]int64{}
	for _, a := range idx.ambigs {
		out[a.Variant] = a.Candidates
	}
	return out
}
