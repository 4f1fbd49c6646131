// Package objectstore names and stores pitch decks and report documents in
// S3-compatible object storage.
package objectstore

import (
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	pitchDeckPrefix = "pitchdecks"
	markdownPrefix  = "markdown"
	pdfPrefix       = "pdfs"
	defaultDeckName = "pitch_deck"
	unknownValue    = "unknown"
	timestampLayout = "20060102_150405"
)

// PitchDeckKey builds the object key for an uploaded deck:
//
//	pitchdecks/<industry>/<Startup_><Industry_><base>_<YYYYMMDD_HHMMSS>.pdf
//
// Startup and industry prefixes are omitted when empty or "unknown".
func PitchDeckKey(startup, industry, originalFilename string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	if originalFilename == "" || base == "" || base == "." {
		base = defaultDeckName
	}

	var name strings.Builder
	if known(startup) {
		name.WriteString(Sanitize(startup) + "_")
	}
	if known(industry) {
		name.WriteString(Sanitize(industry) + "_")
	}
	name.WriteString(Sanitize(base))
	name.WriteString("_" + now.Format(timestampLayout) + ".pdf")

	return path.Join(pitchDeckPrefix, folder(industry), name.String())
}

// MarkdownKey is the key for a converted report: markdown/<industry>/<filename>.
func MarkdownKey(industry, filename string) string {
	return path.Join(markdownPrefix, folder(industry), filepath.Base(filename))
}

// PDFKey is the key for a source report: pdfs/<industry>/<filename>.
func PDFKey(industry, filename string) string {
	return path.Join(pdfPrefix, folder(industry), filepath.Base(filename))
}

// Sanitize replaces every rune that is not a letter or digit with '_'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}

func known(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, unknownValue)
}

func folder(industry string) string {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return "Unknown"
	}
	return Sanitize(industry)
}
