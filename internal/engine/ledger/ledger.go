// Package ledger tracks live GPU-backed objects for leak diagnostics and
// shutdown teardown. It observes resources; it never owns them.
package ledger

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-render/internal/logger"
)

// Resource is anything holding a native handle that must be released exactly once.
type Resource interface {
	Dispose()
}

// Leak describes a resource that is still registered.
type Leak struct {
	ID      uuid.UUID
	Kind    string
	Created time.Time
	Age     time.Duration
	Site    string
}

type entry struct {
	id      uuid.UUID
	kind    string
	created time.Time
	site    string
}

// Ledger is a mutex-guarded registry of live resources.
type Ledger struct {
	mu      sync.Mutex
	entries map[Resource]entry
	now     func() time.Time
}

var defaultLedger = New()

// Default returns the process-wide ledger used by the GPU backends.
func Default() *Ledger {
	return defaultLedger
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		entries: make(map[Resource]entry),
		now:     time.Now,
	}
}

func log() *zap.Logger {
	return logger.Named("ledger")
}

// Register records r with its creation time and allocation site.
// Registering the same resource twice keeps the first record.
func (l *Ledger) Register(r Resource) uuid.UUID {
	site := callSite(3)

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[r]; ok {
		log().Warn("resource registered twice",
			zap.String("kind", e.kind),
			zap.String("id", e.id.String()),
			zap.String("site", site))
		return e.id
	}

	e := entry{
		id:      uuid.New(),
		kind:    fmt.Sprintf("%T", r),
		created: l.now(),
		site:    site,
	}
	l.entries[r] = e
	return e.id
}

// Unregister removes r. It reports whether r was registered.
func (l *Ledger) Unregister(r Resource) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[r]; !ok {
		return false
	}
	delete(l.entries, r)
	return true
}

// Len returns the number of live resources.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// CollectAll disposes every registered resource and returns how many were
// collected. Dispose runs without the lock held because disposal unregisters.
func (l *Ledger) CollectAll() int {
	l.mu.Lock()
	live := make([]Resource, 0, len(l.entries))
	for r := range l.entries {
		live = append(live, r)
	}
	l.mu.Unlock()

	for _, r := range live {
		r.Dispose()
	}

	// Resources whose Dispose does not unregister would otherwise linger.
	l.mu.Lock()
	for _, r := range live {
		delete(l.entries, r)
	}
	l.mu.Unlock()

	if len(live) > 0 {
		log().Info("collected GPU resources", zap.Int("count", len(live)))
	}
	return len(live)
}

// DumpLeaks logs and returns every live resource, oldest first.
func (l *Ledger) DumpLeaks() []Leak {
	l.mu.Lock()
	now := l.now()
	leaks := make([]Leak, 0, len(l.entries))
	for _, e := range l.entries {
		leaks = append(leaks, Leak{
			ID:      e.id,
			Kind:    e.kind,
			Created: e.created,
			Age:     now.Sub(e.created),
			Site:    e.site,
		})
	}
	l.mu.Unlock()

	sort.SliceStable(leaks, func(i, j int) bool {
		if leaks[i].Created.Equal(leaks[j].Created) {
			return leaks[i].ID.String() < leaks[j].ID.String()
		}
		return leaks[i].Created.Before(leaks[j].Created)
	})

	for _, lk := range leaks {
		log().Warn("leaked GPU resource",
			zap.String("kind", lk.Kind),
			zap.String("id", lk.ID.String()),
			zap.Duration("age", lk.Age),
			zap.String("site", lk.Site))
	}
	return leaks
}

// callSite formats up to four caller frames starting skip frames up.
func callSite(skip int) string {
	pcs := make([]uintptr, 4)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return "unknown"
	}
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		f, more := frames.Next()
		if b.Len() > 0 {
			b.WriteString(" <- ")
		}
		fmt.Fprintf(&b, "%s:%d", shortFile(f.File), f.Line)
		if !more {
			break
		}
	}
	return b.String()
}

func shortFile(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		if j := strings.LastIndex(path[:i], "/"); j >= 0 {
			return path[j+1:]
		}
	}
	return path
}
