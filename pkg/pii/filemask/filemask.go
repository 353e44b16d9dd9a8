// Package filemask adapts the mask/unmask engines to whole files. Plain
// text formats are transformed in full; packaged office formats are opened
// as ZIP containers and only the entries that hold user-visible text are
// rewritten, with everything else copied through byte-for-byte.
//
// Every failure mode degrades to returning the original bytes: a corrupt
// upload must come back unreadable-but-intact, never half-rewritten.
package filemask

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/quipper/poc/aitutor/be/pkg/pii/engine"
	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
)

// ErrMalformedArchive marks a container that failed to open or an entry
// that was not the UTF-8 XML it should be. Callers treat it as "pass the
// original through", not as a request failure.
var ErrMalformedArchive = errors.New("filemask: malformed archive")

const octetStream = "application/octet-stream"

type format struct {
	mime string
	// entryMatch selects the ZIP entries to rewrite; nil means the whole
	// file is text.
	entryMatch func(name string) bool
}

var formats = map[string]format{
	"csv": {mime: "text/csv"},
	"tsv": {mime: "text/tab-separated-values"},
	"txt": {mime: "text/plain"},
	"docx": {
		mime:       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		entryMatch: docxEntry,
	},
	"xlsx": {
		mime:       "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		entryMatch: xlsxEntry,
	},
	"pptx": {
		mime:       "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		entryMatch: pptxEntry,
	},
}

func docxEntry(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	dir, base := path.Split(name)
	return dir == "word/" && strings.HasSuffix(base, ".xml") &&
		(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer"))
}

func xlsxEntry(name string) bool {
	if name == "xl/sharedStrings.xml" {
		return true
	}
	return strings.HasPrefix(name, "xl/worksheets/") && strings.HasSuffix(name, ".xml")
}

func pptxEntry(name string) bool {
	dir, base := path.Split(name)
	switch dir {
	case "ppt/slides/":
		return strings.HasPrefix(base, "slide") && strings.HasSuffix(base, ".xml")
	case "ppt/notesSlides/":
		return strings.HasPrefix(base, "notesSlide") && strings.HasSuffix(base, ".xml")
	}
	return false
}

// Mask transforms a file for egress. It returns the transformed bytes, the
// output mime type, and any ambiguity diagnostics from the text engine.
func Mask(data []byte, filename string, idx *index.Index) ([]byte, string, []engine.Diagnostic) {
	var diags []engine.Diagnostic
	out, mime := transform(data, filename, func(text string) string {
		masked, d := engine.MaskText(text, idx)
		diags = append(diags, d...)
		return masked
	})
	return out, mime, diags
}

// Unmask transforms a file for ingress, resolving tokens back to roster
// values. Same dispatch and failure policy as Mask.
func Unmask(data []byte, filename string, idx *index.Index) ([]byte, string) {
	out, mime := transform(data, filename, func(text string) string {
		return engine.UnmaskText(text, idx)
	})
	return out, mime
}

func transform(data []byte, filename string, textFn func(string) string) ([]byte, string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	f, known := formats[ext]
	if !known {
		// Best-effort text for unknown extensions, pass-through otherwise.
		if looksLikeText(data) {
			return []byte(textFn(string(data))), octetStream
		}
		return data, octetStream
	}
	if f.entryMatch == nil {
		if !utf8.Valid(data) {
			return data, octetStream
		}
		return []byte(textFn(string(data))), f.mime
	}
	out, err := rewriteZip(data, f.entryMatch, func(s string) string {
		return transformXML(s, textFn)
	})
	if err != nil {
		// MalformedArchive policy: original bytes, never a broken container.
		return data, f.mime
	}
	return out, f.mime
}

// transformXML applies textFn to character data only. Tag internals carry
// structural metadata that text transforms collide with: the fallback
// redaction hits capitalized attribute values like w:ascii="Times New
// Roman", and a worksheet cell reference like r="M21011" parses as a bare
// token.
func transformXML(content string, textFn func(string) string) string {
	var b strings.Builder
	b.Grow(len(content))
	for {
		lt := strings.IndexByte(content, '<')
		if lt < 0 {
			if content != "" {
				b.WriteString(textFn(content))
			}
			return b.String()
		}
		if lt > 0 {
			b.WriteString(textFn(content[:lt]))
		}
		gt := strings.IndexByte(content[lt:], '>')
		if gt < 0 {
			b.WriteString(content[lt:])
			return b.String()
		}
		b.WriteString(content[lt : lt+gt+1])
		content = content[lt+gt+1:]
	}
}

// rewriteZip rebuilds the container, passing matching entries through textFn
// and raw-copying everything else so untouched entries stay byte-identical,
// compressed form included.
func rewriteZip(data []byte, match func(string) bool, textFn func(string) string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrMalformedArchive
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range zr.File {
		if match(entry.Name) {
			if err := rewriteEntry(zw, entry, textFn); err != nil {
				return nil, err
			}
			continue
		}
		if err := copyEntryRaw(zw, entry); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, ErrMalformedArchive
	}
	return buf.Bytes(), nil
}

func rewriteEntry(zw *zip.Writer, entry *zip.File, textFn func(string) string) error {
	rc, err := entry.Open()
	if err != nil {
		return ErrMalformedArchive
	}
	content, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return ErrMalformedArchive
	}
	if !utf8.Valid(content) {
		return ErrMalformedArchive
	}
	hdr := entry.FileHeader
	hdr.CRC32 = 0
	hdr.CompressedSize64 = 0
	hdr.UncompressedSize64 = 0
	w, err := zw.CreateHeader(&hdr)
	if err != nil {
		return ErrMalformedArchive
	}
	if _, err := w.Write([]byte(textFn(string(content)))); err != nil {
		return ErrMalformedArchive
	}
	return nil
}

func copyEntryRaw(zw *zip.Writer, entry *zip.File) error {
	r, err := entry.OpenRaw()
	if err != nil {
		return ErrMalformedArchive
	}
	hdr := entry.FileHeader
	w, err := zw.CreateRaw(&hdr)
	if err != nil {
		return ErrMalformedArchive
	}
	if _, err := io.Copy(w, r); err != nil {
		return ErrMalformedArchive
	}
	return nil
}

// looksLikeText accepts valid UTF-8 with no NUL byte in the first 8 KiB.
// Plain UTF-8 validation alone waves through too much binary content.
func looksLikeText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return !bytes.ContainsRune(probe, 0)
}
