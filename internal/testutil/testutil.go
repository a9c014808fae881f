// Package testutil provides shared test helpers for setting up datasets and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/cpidash/internal/dataset"
	"github.com/starford/cpidash/internal/index"
	"github.com/starford/cpidash/internal/storage"
)

// Header is the e-Stat CSV header row.
const Header = "地域（2020年基準）,2020年基準品目,時間軸（年・月）,時間軸（年・月）コード,指数,前年同月比【%】\n"

// SampleCSV is a small dataset: two items, two regions, 2020–2022.
// 東京都区部 2022年12月 has no published index.
const SampleCSV = Header +
	"全国,0001 総合,2020年6月,2020000606,100.0,0.1\n" +
	"全国,0001 総合,2020年12月,2020001212,99.8,-1.2\n" +
	"全国,0001 総合,2021年6月,2021000606,99.6,-0.5\n" +
	"全国,0001 総合,2021年12月,2021001212,100.3,0.5\n" +
	"全国,0001 総合,2022年6月,2022000606,101.8,2.4\n" +
	"全国,0001 総合,2022年12月,2022001212,104.1,4.0\n" +
	"東京都区部,0001 総合,2020年6月,2020000606,100.1,0.2\n" +
	"東京都区部,0001 総合,2021年6月,2021000606,99.5,-0.1\n" +
	"東京都区部,0001 総合,2022年12月,2022001212,-,3.9\n" +
	"全国,0002 食料,2021年6月,2021000606,100.4,0.3\n" +
	"全国,0002 食料,2022年6月,2022000606,104.5,4.1\n"

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "cpidash-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSource writes content to a temporary CSV file and returns a provider for it.
func TestSource(t *testing.T, content string) (string, storage.Provider) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cpi_data.csv")
	if err := storage.WriteAtomic(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewCSVFile(path, storage.DefaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	return path, store
}

// Env is a loaded dataset with its ledger.
type Env struct {
	Path   string
	DB     *index.DB
	Holder *dataset.Holder
	Syncer *index.Syncer
}

// LoadedEnv writes content, syncs it once and returns the populated holder.
func LoadedEnv(t *testing.T, content string) *Env {
	t.Helper()
	path, store := TestSource(t, content)
	db := TestDB(t)
	holder := dataset.NewHolder()
	s := index.NewSyncer(db, store, holder, dataset.PolicyFail, Logger())
	if _, _, err := s.Sync(); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	return &Env{Path: path, DB: db, Holder: holder, Syncer: s}
}
