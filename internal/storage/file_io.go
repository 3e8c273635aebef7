package storage

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"

	"mindnoscape/workbook/internal/model"
	"mindnoscape/workbook/internal/workbook"
)

// Supported file formats.
const (
	FormatXML   = "xml"
	FormatJSON  = "json"
	FormatXMind = "xmind"
)

// Entry names inside an xmind archive.
const (
	contentEntry = "content.xml"
	stylesEntry  = "styles.xml"
)

// ExportFilename builds a file name for a workbook export.
func ExportFilename(name string, format string) string {
	base := slug.Make(name)
	if base == "" {
		base = "workbook"
	}
	return base + "." + format
}

// FileExport exports a workbook to a file in the specified format.
func FileExport(w *workbook.Workbook, filename string, format string) error {
	var data []byte
	var err error
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(w.Outline(), "", "  ")
	case FormatXML:
		data, _, err = w.Marshal()
	case FormatXMind:
		data, err = marshalArchive(w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal workbook: %w", err)
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FileImport imports a workbook from a file in the specified format.
func FileImport(filename string, format string, opts ...workbook.Option) (*workbook.Workbook, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var w *workbook.Workbook
	switch format {
	case FormatJSON:
		var outline model.OutlineWorkbook
		if err := json.Unmarshal(data, &outline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data: %w", err)
		}
		w, err = workbook.FromOutline(&outline, opts...)
	case FormatXML:
		w, err = workbook.Parse(data, nil, opts...)
	case FormatXMind:
		w, err = unmarshalArchive(data, opts...)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workbook: %w", err)
	}
	return w, nil
}

func marshalArchive(w *workbook.Workbook) ([]byte, error) {
	content, styles, err := w.Marshal()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range []struct {
		name string
		data []byte
	}{{contentEntry, content}, {stylesEntry, styles}} {
		f, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", entry.name, err)
		}
		if _, err := f.Write(entry.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalArchive(data []byte, opts ...workbook.Option) (*workbook.Workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		if f.Name != contentEntry && f.Name != stylesEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		entries[f.Name] = b
	}

	content, ok := entries[contentEntry]
	if !ok {
		return nil, fmt.Errorf("archive has no %s", contentEntry)
	}
	return workbook.Parse(content, entries[stylesEntry], opts...)
}
