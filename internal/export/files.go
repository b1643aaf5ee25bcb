package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// SaveAll writes every produced file into dir, all or nothing. Files land
// under temporary names first and are renamed into place only after each one
// was written completely, so an interrupted export never leaves a partial
// download next to good ones.
func SaveAll(dir string, res *Result) error {
	if len(res.Files) == 0 {
		return fmt.Errorf("nothing to save")
	}
	staging, err := os.MkdirTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, f := range res.Files {
		if err := os.WriteFile(filepath.Join(staging, f.Name), f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	for _, f := range res.Files {
		if err := os.Rename(filepath.Join(staging, f.Name), filepath.Join(dir, f.Name)); err != nil {
			return fmt.Errorf("publish %s: %w", f.Name, err)
		}
	}
	return nil
}

// Archive bundles a multi-file result into a zip. Single-file results are
// passed through untouched.
func (r *Result) Archive() (name string, data []byte, err error) {
	if len(r.Files) == 0 {
		return "", nil, fmt.Errorf("empty result")
	}
	if len(r.Files) == 1 {
		return r.Files[0].Name, r.Files[0].Data, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range r.Files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return "", nil, fmt.Errorf("archive %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return "", nil, fmt.Errorf("archive %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", nil, fmt.Errorf("close archive: %w", err)
	}
	return r.BaseName + ".zip", buf.Bytes(), nil
}
