package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "cpidash-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM loads`).Scan(&count); err != nil {
		t.Fatalf("loads table missing: %v", err)
	}
}

func TestLatestLoad_Empty(t *testing.T) {
	db := testDB(t)
	if _, err := db.LatestLoad(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	loads, err := db.ListLoads(0)
	if err != nil || loads == nil || len(loads) != 0 {
		t.Errorf("ListLoads = %#v, %v", loads, err)
	}
}

func TestRecordAndListLoads(t *testing.T) {
	db := testDB(t)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		err := db.RecordLoad(models.LoadInfo{
			ID:        id,
			Source:    "/data/cpi.csv",
			Checksum:  "sum-" + id,
			Encoding:  "utf-8",
			Rows:      10 + i,
			NullIndex: i,
			LoadedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordLoad(%s): %v", id, err)
		}
	}

	latest, err := db.LatestLoad()
	if err != nil {
		t.Fatalf("LatestLoad: %v", err)
	}
	if latest.ID != "c" || latest.Rows != 12 || latest.NullIndex != 2 || !latest.LoadedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("latest = %+v", latest)
	}

	loads, err := db.ListLoads(2)
	if err != nil {
		t.Fatalf("ListLoads: %v", err)
	}
	if len(loads) != 2 || loads[0].ID != "c" || loads[1].ID != "b" {
		t.Errorf("loads = %+v", loads)
	}
}

func TestRecordLoad_DuplicateID(t *testing.T) {
	db := testDB(t)
	info := models.LoadInfo{ID: "x", Source: "s", Checksum: "c", Encoding: "utf-8", LoadedAt: time.Now()}
	if err := db.RecordLoad(info); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordLoad(info); err == nil {
		t.Error("expected primary key violation")
	}
}
