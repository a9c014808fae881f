package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/checksum"
	"github.com/starford/cpidash/internal/models"
)

// Source encodings reported in models.Source.Encoding.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVFile implements Provider backed by a single CSV file on disk.
type CSVFile struct {
	path string // absolute
	cols Columns
}

// NewCSVFile creates a provider for path. The file does not need to exist
// yet; Load reports a missing file.
func NewCSVFile(path string, cols Columns) (*CSVFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: source is a directory: %s", abs)
	}
	return &CSVFile{path: abs, cols: cols}, nil
}

// Path returns the absolute source path.
func (f *CSVFile) Path() string { return f.path }

// Load reads the file, detects its encoding and maps its columns.
func (f *CSVFile) Load() (*models.Source, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	text, enc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}
	rows, err := ParseCSV(text, f.cols)
	if err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", f.path, err)
	}
	return &models.Source{
		Path:     f.path,
		Checksum: checksum.Sum(data),
		Encoding: enc,
		Rows:     rows,
	}, nil
}

// Decode strips a UTF-8 BOM and converts Shift_JIS input to UTF-8.
// Input that is already valid UTF-8 is returned unchanged.
func Decode(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, "", err
	}
	return out, EncodingShiftJIS, nil
}

// ParseCSV reads UTF-8 CSV text with a header row into raw records.
// The region, item, period, index and YoY columns are required; the period
// code column is optional.
func ParseCSV(data []byte, cols Columns) ([]models.RawRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file has no header row", apperr.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := colIndex[name]; !dup {
			colIndex[name] = i
		}
	}

	required := []string{cols.Region, cols.Item, cols.Period, cols.Index, cols.YoY}
	var missing []string
	for _, name := range required {
		if _, ok := colIndex[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrMissingColumn, strings.Join(missing, ", "))
	}

	cell := func(rec []string, name string) string {
		if name == "" {
			return ""
		}
		i, ok := colIndex[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []models.RawRecord
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, models.RawRecord{
			Line:        line,
			Region:      cell(rec, cols.Region),
			Item:        cell(rec, cols.Item),
			PeriodLabel: cell(rec, cols.Period),
			PeriodCode:  cell(rec, cols.PeriodCode),
			Index:       cell(rec, cols.Index),
			YoY:         cell(rec, cols.YoY),
		})
	}
	return rows, nil
}

// WriteAtomic replaces path with content: tmp file → fsync → rename.
func WriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cpidash-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
