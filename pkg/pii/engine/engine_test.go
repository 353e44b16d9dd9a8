package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

func buildIndex(entries ...*roster.Entry) *index.Index {
	return index.Build(entries, nil, nil)
}

func entry(anchor int64, name, sid, email string) *roster.Entry {
	return &roster.Entry{
		Owner: "t1", Course: "c1", Anchor: anchor,
		DisplayName: name, StudentID: sid, Email: email, Role: "student",
	}
}

func TestMaskTextLongestMatchFirst(t *testing.T) {
	idx := buildIndex(entry(21011, "Matheus John Nery", "", ""))

	out, diags := MaskText("Member: Matheus Nery", idx)
	assert.Equal(t, "Member: M21011_name", out)
	assert.Empty(t, diags)

	// Full form: one token, no leftover "John", no double substitution.
	out, _ = MaskText("Member: Matheus John Nery", idx)
	assert.Equal(t, "Member: M21011_name", out)
}

func TestMaskTextEveryVariant(t *testing.T) {
	e := entry(21011, "Matheus John Nery", "C00777", "m.nery@x.edu")
	idx := buildIndex(e)
	for _, variant := range []string{
		"Matheus John Nery", "Matheus Nery", "Nery, Matheus", "Nery Matheus",
		"Matheus J. Nery", "M. Nery", "nery, m.", "MATHEUS NERY",
	} {
		out, diags := MaskText("saw "+variant+" today", idx)
		assert.Equal(t, "saw M21011_name today", out, "variant %q", variant)
		assert.Empty(t, diags)
	}

	out, _ := MaskText("mail m.nery@x.edu id C00777", idx)
	assert.Equal(t, "mail M21011_email id M21011_CID", out)
}

func TestMaskTextWordBounded(t *testing.T) {
	idx := buildIndex(entry(1, "Ana Lee", "", ""))
	out, _ := MaskText("Banana Leeway is not a person", idx)
	assert.NotContains(t, out, "M1_name")
}

func TestMaskTextAmbiguousReported(t *testing.T) {
	idxShared := index.Build([]*roster.Entry{
		entry(1, "Jordan Reyes", "", ""),
		entry(2, "Jordan Reyes", "", ""),
	}, nil, nil)
	out, diags := MaskText("ping Jordan Reyes please", idxShared)
	assert.Contains(t, out, "Jordan Reyes")
	require.Len(t, diags, 1)
	assert.Equal(t, ReasonAmbiguous, diags[0].Reason)
	assert.ElementsMatch(t, []int64{1, 2}, diags[0].Candidates)
}

func TestMaskTextSharedInitialFormReported(t *testing.T) {
	// Two Nerys share the first-initial forms. Those spans are not runs of
	// capitalized words, so the dedicated ambiguity scan must catch them.
	idx := index.Build([]*roster.Entry{
		entry(1, "Matheus Nery", "", ""),
		entry(2, "Marcos Nery", "", ""),
	}, nil, nil)

	out, diags := MaskText("please grade M. Nery first", idx)
	assert.Equal(t, "please grade M. Nery first", out)
	require.Len(t, diags, 1)
	assert.Equal(t, "M. Nery", diags[0].Span)
	assert.Equal(t, ReasonAmbiguous, diags[0].Reason)
	assert.ElementsMatch(t, []int64{1, 2}, diags[0].Candidates)

	// Full names stay unique and still mask in the same roster.
	out, diags = MaskText("Matheus Nery and Marcos Nery", idx)
	assert.Equal(t, "M1_name and M2_name", out)
	assert.Empty(t, diags)
}

func TestMaskTextUnknownNameRedacted(t *testing.T) {
	idx := buildIndex(entry(1, "Ana Souza", "", ""))
	out, diags := MaskText("Speak to Carlos Pereira about Ana Souza", idx)
	assert.Equal(t, "Speak to C*** P*** about M1_name", out)
	assert.Empty(t, diags)
}

func TestMaskTextLeavesSingleCapitalizedWords(t *testing.T) {
	idx := buildIndex(entry(1, "Ana Souza", "", ""))
	out, _ := MaskText("The assignment is due Friday", idx)
	assert.Equal(t, "The assignment is due Friday", out)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "ask J*** D*** today", Redact("ask John Doe today"))
	assert.Equal(t, "no names here", Redact("no names here"))
}

func TestUnmaskText(t *testing.T) {
	idx := index.Build(
		[]*roster.Entry{entry(21011, "Jackson Smith", "C00123456", "jackson.smith@x.edu")},
		nil,
		[]*groups.Group{{Anchor: 4, Name: "Team 01-Smith"}},
	)

	out := UnmaskText("M21011_name <M21011_email> id M21011_CID team G4_name", idx)
	assert.Equal(t, "Jackson Smith <jackson.smith@x.edu> id C00123456 team Team 01-Smith", out)

	// Legacy and bare grammars.
	assert.Equal(t, "Jackson Smith", UnmaskText("M21011:name", idx))
	assert.Equal(t, "Jackson Smith", UnmaskText("M21011", idx))

	// Unknown anchor stays untouched.
	assert.Equal(t, "hello M999_name", UnmaskText("hello M999_name", idx))
}

func TestUnmaskIdempotent(t *testing.T) {
	idx := buildIndex(entry(5, "Ana Souza", "", "ana@x.edu"))
	once := UnmaskText("M5_name wrote to M5_email", idx)
	twice := UnmaskText(once, idx)
	assert.Equal(t, once, twice)
}

func TestMaskUnmaskRoundTrip(t *testing.T) {
	idx := buildIndex(entry(21011, "Jackson Smith", "C00123456", "jackson.smith@x.edu"))

	src := `{"student":"Jackson Smith","email":"jackson.smith@x.edu","id":"C00123456","score":97.5,"late":false,"notes":null}`
	v, err := DecodeValue([]byte(src))
	require.NoError(t, err)

	masked, diags := Mask(v, idx)
	assert.Empty(t, diags)
	maskedJSON, err := masked.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(maskedJSON), "Jackson")
	assert.NotContains(t, string(maskedJSON), "jackson.smith@x.edu")
	assert.NotContains(t, string(maskedJSON), "C00123456")

	restored := Unmask(masked, idx)
	out, err := restored.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
	// Member order survives the round trip byte-for-byte.
	assert.Equal(t, src, string(out))
}

func TestMaskTreeNonStringLeavesUnchanged(t *testing.T) {
	idx := buildIndex(entry(1, "Ana Souza", "", ""))
	v, err := DecodeValue([]byte(`{"n":12345,"ok":true,"x":null,"arr":[1,"Ana Souza",2]}`))
	require.NoError(t, err)
	masked, _ := Mask(v, idx)
	out, err := masked.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"n":12345,"ok":true,"x":null,"arr":[1,"M1_name",2]}`, string(out))
}

func TestDecodeValueErrors(t *testing.T) {
	_, err := DecodeValue([]byte(`{"a":1} trailing`))
	assert.Error(t, err)
	_, err = DecodeValue([]byte(`{"a":`))
	assert.Error(t, err)
}
