// Package token defines the wire grammar for PII placeholder tokens.
//
// Current grammar: M<anchor>_<field> for people, G<anchor>_name for groups.
// Two older grammars are still accepted when decoding: the colon form
// M<anchor>:<field> and the bare form M<anchor> (always field "name").
// Encoding only ever emits the current grammar.
package token

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes person and group anchors.
type Kind int

const (
	Person Kind = iota
	Group
)

// Field names the roster attribute a person token stands in for.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldCID   Field = "CID"
)

// Ref is a decoded token: which anchor it points at and which field.
// Group tokens always carry FieldName.
type Ref struct {
	Kind   Kind
	Anchor int64
	Field  Field
}

// Encode renders ref in the current grammar.
func (r Ref) Encode() string {
	var b strings.Builder
	if r.Kind == Group {
		b.WriteByte('G')
		b.WriteString(strconv.FormatInt(r.Anchor, 10))
		b.WriteString("_name")
		return b.String()
	}
	b.WriteByte('M')
	b.WriteString(strconv.FormatInt(r.Anchor, 10))
	b.WriteByte('_')
	b.WriteString(string(r.Field))
	return b.String()
}

// pattern matches all three accepted grammars at a word boundary. The bare
// form cannot fire inside M123_foo because '_' extends the word.
var pattern = regexp.MustCompile(`\b(?:M(\d+)(?:[_:](name|email|CID))?|G(\d+)_name)\b`)

// Decode parses s as exactly one token. The second return is false when s is
// not a token; Decode never fails any other way.
func Decode(s string) (Ref, bool) {
	m := pattern.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return Ref{}, false
	}
	return refFromMatch(s, m)
}

func refFromMatch(s string, m []int) (Ref, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return s[m[2*i]:m[2*i+1]]
	}
	if g := group(3); g != "" {
		id, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return Ref{}, false
		}
		return Ref{Kind: Group, Anchor: id, Field: FieldName}, true
	}
	id, err := strconv.ParseInt(group(1), 10, 64)
	if err != nil {
		return Ref{}, false
	}
	f := Field(group(2))
	if f == "" {
		f = FieldName // bare form
	}
	return Ref{Kind: Person, Anchor: id, Field: f}, true
}

// Rewrite replaces every token occurrence in text with fn's result. When fn
// returns false the original token text is kept, so unresolvable tokens pass
// through untouched.
func Rewrite(text string, fn func(Ref) (string, bool)) string {
	return pattern.ReplaceAllStringFunc(text, func(match string) string {
		ref, ok := Decode(match)
		if !ok {
			return match
		}
		repl, ok := fn(ref)
		if !ok {
			return match
		}
		return repl
	})
}

// Contains reports whether text holds at least one token in any grammar.
func Contains(text string) bool {
	return pattern.MatchString(text)
}
