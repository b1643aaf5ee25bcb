package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/butthurt/reportform/internal/analytics"
	"github.com/butthurt/reportform/internal/assets"
	"github.com/butthurt/reportform/internal/export"
	"github.com/butthurt/reportform/internal/form"
	"github.com/butthurt/reportform/internal/raster"
)

var (
	assetsDir  = flag.String("assets", "./assets", "Directory containing form templates and fonts")
	outDir     = flag.String("out", ".", "Directory to write exported files into")
	formatFlag = flag.String("format", "", "Output format: pdf, jpg (overrides the format in the link)")
	dpi        = flag.Int("dpi", raster.DefaultDPI, "Render resolution for JPEG output")
	quality    = flag.Int("quality", raster.DefaultQuality, "JPEG quality 1-100")
	pdftoppm   = flag.String("pdftoppm", "pdftoppm", "Path to the pdftoppm binary")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	help       = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: form link or query string required\n\n")
		printUsage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(link string) error {
	values, err := parseLink(link)
	if err != nil {
		return err
	}
	parsed := form.ParseQuery(values)

	language := parsed.Language
	if language == "" {
		language = "en"
	}
	format := parsed.Export
	if *formatFlag != "" {
		f, ok := form.ParseExportFormat(*formatFlag)
		if !ok {
			return fmt.Errorf("unknown format %q, want pdf or jpg", *formatFlag)
		}
		format = f
	}
	if format == "" {
		format = form.ExportPDF
	}

	store, err := assets.NewStore(*assetsDir)
	if err != nil {
		return err
	}
	catalog, err := store.Translations()
	if err != nil {
		return err
	}
	onValues, err := store.OnValues()
	if err != nil {
		return err
	}

	var renderer raster.PageRenderer
	if format == form.ExportJPEG {
		r, err := raster.NewPdftoppm(*pdftoppm)
		if err != nil {
			return err
		}
		renderer = r
	} else {
		renderer = raster.Unavailable{Err: fmt.Errorf("not requested")}
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	pipeline := export.New(store, catalog, onValues, renderer, analytics.Nop{}, logger, export.Options{
		Raster: raster.Options{DPI: *dpi, Quality: *quality},
	})

	result, err := pipeline.Export(context.Background(), export.Request{
		State:    parsed.State,
		Language: language,
		Format:   format,
		Force:    true,
	})
	if err != nil {
		return err
	}

	if err := export.SaveAll(*outDir, result); err != nil {
		return err
	}
	for _, f := range result.Files {
		fmt.Println(f.Name)
	}
	return nil
}

// parseLink accepts a bare query string, a ?-prefixed one, or a full URL.
func parseLink(link string) (url.Values, error) {
	raw := link
	if strings.Contains(raw, "?") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse link: %w", err)
		}
		raw = u.RawQuery
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse link: %w", err)
	}
	return values, nil
}

func printHelp() {
	fmt.Println("Report Export - Fill and export a Hurt Feelings Report from a share link")
	fmt.Println()
	fmt.Println("Takes the query string of a saved form link, fills the PDF template,")
	fmt.Println("flattens it, and writes the result as a PDF or per-page JPEG files.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -assets     Directory containing form templates and fonts (default ./assets)")
	fmt.Println("  -out        Directory to write exported files into (default .)")
	fmt.Println("  -format     Output format: pdf, jpg (overrides the format in the link)")
	fmt.Println("  -dpi        Render resolution for JPEG output")
	fmt.Println("  -quality    JPEG quality 1-100")
	fmt.Println("  -pdftoppm   Path to the pdftoppm binary")
	fmt.Println("  -verbose    Enable verbose output")
	fmt.Println("  -help       Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println(`  report-export "language=de&p1a=Jane+Doe&p41=1"`)
	fmt.Println(`  report-export -format jpg "https://example.com/?p1a=Jane+Doe&p5=Hurt"`)
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  report-export [options] <link-or-query>")
}
