package index

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/cpidash/internal/apperr"
	"github.com/starford/cpidash/internal/checksum"
	"github.com/starford/cpidash/internal/dataset"
	"github.com/starford/cpidash/internal/models"
	"github.com/starford/cpidash/internal/storage"
)

// Sync outcomes passed to EventCallback.
const (
	KindReloaded  = "reloaded"
	KindUnchanged = "unchanged"
	KindFailed    = "failed"
)

// Syncer loads the source, normalizes it and installs the result in the
// holder, recording each distinct load in the ledger.
type Syncer struct {
	db     *DB
	store  storage.Provider
	holder *dataset.Holder
	policy dataset.MalformedPolicy
	logger *slog.Logger
}

// NewSyncer wires a Syncer.
func NewSyncer(db *DB, store storage.Provider, holder *dataset.Holder, policy dataset.MalformedPolicy, logger *slog.Logger) *Syncer {
	if policy == "" {
		policy = dataset.PolicyFail
	}
	return &Syncer{db: db, store: store, holder: holder, policy: policy, logger: logger}
}

// Sync brings the holder up to date with the source file:
//   - a changed file is normalized, recorded and swapped in
//   - an unchanged file is only installed when the holder is empty
//   - on any error the current snapshot stays in place
func (s *Syncer) Sync() (string, models.LoadInfo, error) {
	src, err := s.store.Load()
	if err != nil {
		return KindFailed, models.LoadInfo{}, err
	}

	if cur := s.holder.Current(); cur != nil && cur.Info.Checksum == src.Checksum {
		s.logger.Debug("sync: source unchanged", slog.String("checksum", checksum.Short(src.Checksum)))
		return KindUnchanged, cur.Info, nil
	}

	tbl, rep, err := dataset.Normalize(src.Rows, s.policy)
	if err != nil {
		return KindFailed, models.LoadInfo{}, fmt.Errorf("normalize %s: %w", src.Path, err)
	}
	if rep.Skipped > 0 {
		s.logger.Warn("sync: skipped rows with unparseable period label",
			slog.Int("skipped", rep.Skipped),
			slog.Any("lines", rep.SkippedLines))
	}

	info := models.LoadInfo{
		ID:        uuid.NewString(),
		Source:    src.Path,
		Checksum:  src.Checksum,
		Encoding:  src.Encoding,
		Rows:      rep.Rows,
		Skipped:   rep.Skipped,
		NullIndex: rep.NullIndex,
		NullYoY:   rep.NullYoY,
		LoadedAt:  time.Now().UTC(),
	}

	kind := KindReloaded
	latest, err := s.db.LatestLoad()
	switch {
	case err == nil && latest.Checksum == src.Checksum:
		// Same bytes as the last recorded load (typically a restart).
		info = *latest
		kind = KindUnchanged
	case err == nil || errors.Is(err, apperr.ErrNotFound):
		if err := s.db.RecordLoad(info); err != nil {
			s.logger.Warn("sync: record load failed", slog.String("error", err.Error()))
		}
	default:
		s.logger.Warn("sync: ledger lookup failed", slog.String("error", err.Error()))
	}

	s.holder.Swap(&dataset.Snapshot{Table: tbl, Info: info})
	s.logger.Info("sync: dataset installed",
		slog.String("kind", kind),
		slog.String("source", src.Path),
		slog.String("encoding", src.Encoding),
		slog.String("checksum", checksum.Short(src.Checksum)),
		slog.Int("rows", rep.Rows),
		slog.Int("null_index", rep.NullIndex),
		slog.Int("null_yoy", rep.NullYoY))
	return kind, info, nil
}
