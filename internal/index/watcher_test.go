package index

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/starford/cpidash/internal/models"
	"github.com/starford/cpidash/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type eventLog struct {
	mu    sync.Mutex
	kinds []string
}

func (l *eventLog) record(kind string, _ models.LoadInfo, _ error) {
	l.mu.Lock()
	l.kinds = append(l.kinds, kind)
	l.mu.Unlock()
}

func (l *eventLog) has(kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range l.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func TestWatcher_ReloadsOnReplace(t *testing.T) {
	path, s, holder, _ := syncEnv(t, csvV1)
	if _, _, err := s.Sync(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events eventLog
	go s.Watch(ctx, events.record)
	time.Sleep(100 * time.Millisecond)

	if err := storage.WriteAtomic(path, []byte(csvV2)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return holder.Current().Table.Len() == 3
	}, "replaced source not reloaded by watcher")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return events.has(KindReloaded)
	}, "expected reloaded callback")
}

func TestWatcher_FailedReloadKeepsSnapshot(t *testing.T) {
	path, s, holder, _ := syncEnv(t, csvV1)
	if _, _, err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	before := holder.Current()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events eventLog
	go s.Watch(ctx, events.record)
	time.Sleep(100 * time.Millisecond)

	if err := storage.WriteAtomic(path, []byte(csvBroken)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return events.has(KindFailed)
	}, "expected failed callback")
	if holder.Current() != before {
		t.Error("snapshot replaced after failed reload")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path, s, _, _ := syncEnv(t, csvV1)
	if _, _, err := s.Sync(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events eventLog
	go s.Watch(ctx, events.record)
	time.Sleep(100 * time.Millisecond)

	if err := storage.WriteAtomic(path+".bak", []byte(csvV2)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	events.mu.Lock()
	n := len(events.kinds)
	events.mu.Unlock()
	if n != 0 {
		t.Errorf("got %d callbacks for an unrelated file", n)
	}
}
