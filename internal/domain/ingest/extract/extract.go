// Package extract turns uploaded statement documents into plain text. It
// assumes machine-generated, text-extractable PDFs; scanned statements are
// out of scope.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor returns the plain text of a document. maxPages <= 0 extracts
// every page; otherwise extraction stops after maxPages pages.
type Extractor interface {
	Text(ctx context.Context, r io.ReaderAt, size int64, maxPages int) (string, error)
}

// PDF extracts text from PDF documents.
type PDF struct{}

// NewPDF creates a PDF text extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Text extracts the plain text of up to maxPages pages.
func (e *PDF) Text(ctx context.Context, r io.ReaderAt, size int64, maxPages int) (text string, err error) {
	// The pdf package panics on some malformed documents; a corrupt upload
	// must surface as an error, not take down the worker.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extract pdf text: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := doc.NumPage()
	if maxPages > 0 && maxPages < pages {
		pages = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := pageText(page)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// pageText reconstructs line breaks from text positions. GetPlainText joins
// rows without separators, which would glue transaction lines together.
func pageText(page pdf.Page) (string, error) {
	texts := page.Content().Text

	var sb strings.Builder
	var lastY float64
	for i, t := range texts {
		if i > 0 && t.Y != lastY {
			sb.WriteString("\n")
		}
		sb.WriteString(t.S)
		lastY = t.Y
	}
	return sb.String(), nil
}

// Plain treats the document bytes as pre-extracted text, with pages
// separated by form feeds. Used by tests and text-format fixtures.
type Plain struct{}

// NewPlain creates a plain-text extractor.
func NewPlain() *Plain {
	return &Plain{}
}

// Text returns up to maxPages form-feed separated pages.
func (e *Plain) Text(ctx context.Context, r io.ReaderAt, size int64, maxPages int) (string, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return "", fmt.Errorf("read document: %w", err)
	}

	pages := bytes.Split(buf, []byte{'\f'})
	if maxPages > 0 && maxPages < len(pages) {
		pages = pages[:maxPages]
	}
	return string(bytes.Join(pages, []byte{'\n'})), nil
}
