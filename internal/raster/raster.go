// Package raster converts filled PDFs into per-page JPEG images. Rendering
// is delegated to a PageRenderer so the pipeline stays testable without a
// poppler install; the production renderer shells out to pdftoppm.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/ledongthuc/pdf"
)

// Options control raster output.
type Options struct {
	// DPI is the render resolution. Zero means DefaultDPI.
	DPI int

	// Quality is the JPEG quality 1..100. Zero means DefaultQuality.
	Quality int
}

const (
	DefaultDPI     = 150
	DefaultQuality = 90
)

func (o Options) dpi() int {
	if o.DPI <= 0 {
		return DefaultDPI
	}
	return o.DPI
}

func (o Options) quality() int {
	if o.Quality <= 0 {
		return DefaultQuality
	}
	return o.Quality
}

// PageRenderer renders a single page of a PDF to JPEG bytes.
type PageRenderer interface {
	RenderPage(ctx context.Context, pdfData []byte, page int, opts Options) ([]byte, error)
}

// PageCount reports how many pages a document has.
func PageCount(pdfData []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	n := r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

// Unavailable is a PageRenderer used when no real renderer could be set up.
// Every render attempt fails with the recorded cause.
type Unavailable struct {
	Err error
}

func (u Unavailable) RenderPage(context.Context, []byte, int, Options) ([]byte, error) {
	return nil, fmt.Errorf("page rendering unavailable: %w", u.Err)
}

// Pdftoppm renders pages with the poppler pdftoppm utility.
type Pdftoppm struct {
	binary string
}

// NewPdftoppm verifies the binary is on PATH. An empty name means "pdftoppm".
func NewPdftoppm(binary string) (*Pdftoppm, error) {
	if binary == "" {
		binary = "pdftoppm"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm is not installed at %q: %w", binary, err)
	}
	return &Pdftoppm{binary: path}, nil
}

// RenderPage writes the document to a scratch directory, renders one page and
// returns the JPEG bytes. The scratch files are removed on every path.
func (p *Pdftoppm) RenderPage(ctx context.Context, pdfData []byte, page int, opts Options) ([]byte, error) {
	dir, err := os.MkdirTemp("", "reportform-raster-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "page.pdf")
	if err := os.WriteFile(src, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	prefix := filepath.Join(dir, "out")
	cmd := exec.CommandContext(ctx, p.binary,
		"-jpeg",
		"-jpegopt", "quality="+strconv.Itoa(opts.quality()),
		"-r", strconv.Itoa(opts.dpi()),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-singlefile",
		src, prefix,
	)
	if out, err := cmd.Output(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, exitErr.Stderr)
		}
		_ = out
		return nil, fmt.Errorf("pdftoppm page %d: %w", page, err)
	}

	data, err := os.ReadFile(prefix + ".jpg")
	if err != nil {
		return nil, fmt.Errorf("read rendered page %d: %w", page, err)
	}
	return data, nil
}
