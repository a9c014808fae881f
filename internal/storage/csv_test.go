package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/checksum"
)

const sampleCSV = "地域（2020年基準）,2020年基準品目,時間軸（年・月）,時間軸（年・月）コード,指数,前年同月比【%】\n" +
	"全国,0001 総合,2020年6月,2020000606,100.0,0.1\n" +
	"東京都区部,0001 総合,2020年12月,2020001212,99.5,-1.0\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_UTF8(t *testing.T) {
	p := writeFile(t, "cpi.csv", []byte(sampleCSV))
	f, err := NewCSVFile(p, DefaultColumns())
	if err != nil {
		t.Fatalf("NewCSVFile: %v", err)
	}
	src, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Encoding != EncodingUTF8 {
		t.Errorf("encoding = %q", src.Encoding)
	}
	if src.Checksum != checksum.Sum([]byte(sampleCSV)) {
		t.Errorf("checksum mismatch")
	}
	if len(src.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(src.Rows))
	}
	r := src.Rows[1]
	if r.Line != 3 || r.Region != "東京都区部" || r.Item != "0001 総合" || r.PeriodLabel != "2020年12月" ||
		r.PeriodCode != "2020001212" || r.Index != "99.5" || r.YoY != "-1.0" {
		t.Errorf("row = %+v", r)
	}
}

func TestLoad_BOMStripped(t *testing.T) {
	p := writeFile(t, "bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, sampleCSV...))
	f, _ := NewCSVFile(p, DefaultColumns())
	src, err := f.Load()
	if err != nil {
		t.Fatalf("Load with BOM: %v", err)
	}
	if len(src.Rows) != 2 || src.Rows[0].Region != "全国" {
		t.Errorf("rows = %+v", src.Rows)
	}
}

func TestLoad_ShiftJIS(t *testing.T) {
	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}
	p := writeFile(t, "sjis.csv", encoded)
	f, _ := NewCSVFile(p, DefaultColumns())
	src, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Encoding != EncodingShiftJIS {
		t.Errorf("encoding = %q, want shift_jis", src.Encoding)
	}
	if src.Rows[0].Item != "0001 総合" || src.Rows[0].PeriodLabel != "2020年6月" {
		t.Errorf("decoded row = %+v", src.Rows[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	f, err := NewCSVFile(filepath.Join(t.TempDir(), "nope.csv"), DefaultColumns())
	if err != nil {
		t.Fatalf("NewCSVFile: %v", err)
	}
	if _, err := f.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load err = %v, want ErrNotExist", err)
	}
}

func TestNewCSVFile_RejectsDirectory(t *testing.T) {
	if _, err := NewCSVFile(t.TempDir(), DefaultColumns()); err == nil {
		t.Error("expected error for directory source")
	}
}

func TestParseCSV_MissingColumns(t *testing.T) {
	data := []byte("地域（2020年基準）,2020年基準品目,指数\n全国,総合,100\n")
	_, err := ParseCSV(data, DefaultColumns())
	if !errors.Is(err, apperr.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if !strings.Contains(err.Error(), "時間軸（年・月）") || !strings.Contains(err.Error(), "前年同月比【%】") {
		t.Errorf("error should name missing columns: %v", err)
	}
}

func TestParseCSV_EmptyFile(t *testing.T) {
	if _, err := ParseCSV(nil, DefaultColumns()); !errors.Is(err, apperr.ErrMissingColumn) {
		t.Errorf("err = %v, want ErrMissingColumn", err)
	}
}

func TestParseCSV_OptionalPeriodCodeAndRaggedRows(t *testing.T) {
	data := []byte(" 指数 ,地域（2020年基準）,2020年基準品目,時間軸（年・月）,前年同月比【%】,注記\n" +
		"101.2,全国,総合,2021年6月\n")
	rows, err := ParseCSV(data, DefaultColumns())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	r := rows[0]
	if r.Index != "101.2" || r.Region != "全国" || r.YoY != "" || r.PeriodCode != "" || r.Line != 2 {
		t.Errorf("row = %+v", r)
	}
}

func TestParseCSV_CustomColumns(t *testing.T) {
	cols := Columns{Region: "area", Item: "item", Period: "period", Index: "cpi", YoY: "yoy"}
	rows, err := ParseCSV([]byte("area,item,period,cpi,yoy\n全国,総合,2020年6月,100,0\n"), cols)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(rows) != 1 || rows[0].Item != "総合" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestWriteAtomic(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sub", "cpi.csv")
	if err := WriteAtomic(p, []byte("v1")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if err := WriteAtomic(p, []byte("v2")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil || string(got) != "v2" {
		t.Errorf("content = %q, err = %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
