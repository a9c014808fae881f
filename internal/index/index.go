package index

import "github.com/starford/cpidash/internal/models"

// LoadLedger defines the interface for load history operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type LoadLedger interface {
	RecordLoad(info models.LoadInfo) error
	LatestLoad() (*models.LoadInfo, error)
	ListLoads(limit int) ([]models.LoadInfo, error)
	Close() error
}

// Verify *DB satisfies LoadLedger at compile time.
var _ LoadLedger = (*DB)(nil)
