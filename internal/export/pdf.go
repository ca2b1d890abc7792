// Package export renders workout plans as downloadable PDF documents.
package export

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
)

const (
	// FileName is the name offered to the browser for the download.
	FileName = "workout_plan.pdf"

	// ContentType is the MIME type of the exported document.
	ContentType = "application/pdf"

	pageSize   = "A4"
	fontFamily = "DejaVu"
	fontSize   = 12
	lineHeight = 10
)

// ErrEmptyPlan is returned when there is no text to export.
var ErrEmptyPlan = errors.New("no plan text to export")

// DejaVu Sans Condensed covers Latin, Greek, Cyrillic and the common
// arrows and math symbols that show up in generated plans.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var dejaVuSans []byte

// Render writes text as a paginated A4 document: one wrapped text cell
// spanning the printable width, with automatic page breaks.
func Render(w io.Writer, text string) error {
	if text == "" {
		return ErrEmptyPlan
	}

	pdf := fpdf.New("P", "mm", pageSize, "")
	pdf.SetTitle("Workout Plan", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddUTF8FontFromBytes(fontFamily, "", dejaVuSans)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)
	pdf.MultiCell(0, lineHeight, basicPlane(text), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// basicPlane replaces runes above U+FFFF, and invalid UTF-8, with U+FFFD.
// The embedded font is addressed with two-byte codes, so emoji and other
// supplementary-plane runes cannot be drawn.
func basicPlane(text string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return utf8.RuneError
		}
		return r
	}, text)
}

// WriteTempFile renders text into a new temporary file and returns its
// path. Every call creates a fresh file; removing it is up to the caller.
func WriteTempFile(text string) (string, error) {
	f, err := os.CreateTemp("", "workout_plan_*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := Render(f, text); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), nil
}
