// Package pdfx splits a source PDF into ordered page units using MuPDF.
package pdfx

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/lumelodos/tomelate/internal/logger"
)

// DefaultDPI is the rasterization resolution for pages sent to transcription.
const DefaultDPI = 300

// Page is one extracted page unit, classified blank or renderable.
// Page numbers are 1-based and contiguous within a job.
type Page struct {
	Number int
	PNG    []byte
	Blank  bool
}

// Extractor renders PDF pages to raster images via go-fitz.
type Extractor struct {
	DPI float64
}

func NewExtractor(dpi float64) *Extractor {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Extractor{DPI: dpi}
}

// Extract opens the source document and returns every page in order. Any
// open, parse, or render failure aborts the whole extraction: page ordering
// integrity depends on the sequence being complete, so no partial result is
// ever returned.
func (e *Extractor) Extract(ctx context.Context, path string) ([]Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source document %s: %w", path, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("source document %s has no pages", path)
	}

	pages := make([]Page, 0, total)
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		number := i + 1
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read text layer of page %d: %w", number, err)
		}
		img, err := doc.ImageDPI(i, e.DPI)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", number, err)
		}

		// Scanned pages carry no text layer, so text absence alone cannot
		// classify a page as blank; an all-uniform raster can.
		if strings.TrimSpace(text) == "" && isUniform(img) {
			logger.Info("Page is blank", "page", number)
			pages = append(pages, Page{Number: number, Blank: true})
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", number, err)
		}
		pages = append(pages, Page{Number: number, PNG: buf.Bytes()})
	}

	return pages, nil
}

// uniformSampleGrid bounds blank detection to a coarse pixel sample per axis.
const uniformSampleGrid = 48

// uniformTolerance allows for scanner noise around a uniform background.
const uniformTolerance = 0x0300

// isUniform reports whether the rendered page is visually empty: every
// sampled pixel sits within tolerance of the first one.
func isUniform(img image.Image) bool {
	bounds := img.Bounds()
	if bounds.Empty() {
		return true
	}

	stepX := bounds.Dx() / uniformSampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := bounds.Dy() / uniformSampleGrid
	if stepY < 1 {
		stepY = 1
	}

	r0, g0, b0, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			if delta(r, r0) > uniformTolerance || delta(g, g0) > uniformTolerance || delta(b, b0) > uniformTolerance {
				return false
			}
		}
	}
	return true
}

func delta(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
