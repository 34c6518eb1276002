// Package report collects recoverable failures (data fetch, invalid area
// data, marker rendering) so they can be logged once and inspected later.
package report

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Kind classifies a reported failure.
type Kind int

const (
	KindDataFetch Kind = iota
	KindInvalidArea
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindDataFetch:
		return "data_fetch"
	case KindInvalidArea:
		return "invalid_area"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// Reporter receives recoverable failures.
type Reporter interface {
	Report(kind Kind, err error)
}

// Entry is one distinct failure and how many times it was seen.
type Entry struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type entryKey struct {
	kind Kind
	msg  string
}

// Tracker is a Reporter that deduplicates failures by kind and message.
// Only the first occurrence of a failure is logged.
type Tracker struct {
	log *zap.Logger

	mu      sync.Mutex
	entries map[entryKey]int
}

func NewTracker(logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		log:     logger,
		entries: make(map[entryKey]int),
	}
}

func (t *Tracker) Report(kind Kind, err error) {
	if err == nil {
		return
	}
	key := entryKey{kind: kind, msg: err.Error()}

	t.mu.Lock()
	t.entries[key]++
	first := t.entries[key] == 1
	t.mu.Unlock()

	if first {
		t.log.Warn("recoverable failure", zap.Stringer("kind", kind), zap.Error(err))
	}
}

// Count returns how many failures of the given kind were reported.
func (t *Tracker) Count(kind Kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, c := range t.entries {
		if k.kind == kind {
			n += c
		}
	}
	return n
}

// Snapshot returns all distinct failures ordered by kind then message.
func (t *Tracker) Snapshot() []Entry {
	t.mu.Lock()
	out := make([]Entry, 0, len(t.entries))
	for k, c := range t.entries {
		out = append(out, Entry{Kind: k.kind.String(), Message: k.msg, Count: c})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// Discard drops every report.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Kind, error) {}
