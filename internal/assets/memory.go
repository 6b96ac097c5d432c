package assets

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hpungsan/dayreel/internal/media"
)

// Memory is an in-memory Store. Safe for concurrent use.
type Memory struct {
	loc *time.Location

	mu    sync.RWMutex
	items map[string]media.Descriptor
	order map[string]int // insertion sequence, for stable ties
	seq   int
	err   error
}

// NewMemory returns an empty in-memory library. Day boundaries use loc.
func NewMemory(loc *time.Location) *Memory {
	if loc == nil {
		loc = time.Local
	}
	return &Memory{
		loc:   loc,
		items: make(map[string]media.Descriptor),
		order: make(map[string]int),
	}
}

// Add inserts or replaces assets.
func (m *Memory) Add(ds ...media.Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range ds {
		d.Provenance = media.Native()
		if _, ok := m.items[d.AssetID]; !ok {
			m.seq++
			m.order[d.AssetID] = m.seq
		}
		m.items[d.AssetID] = d
	}
}

// SetErr makes every subsequent read fail with err, simulating an unreachable
// library. A nil err restores normal reads.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Remove deletes an asset, simulating out-of-band deletion.
func (m *Memory) Remove(assetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, assetID)
	delete(m.order, assetID)
}

// FetchNativeMedia implements Store.
func (m *Memory) FetchNativeMedia(_ context.Context, day time.Time) ([]media.Descriptor, error) {
	start, end := dayBounds(day, m.loc)

	m.mu.RLock()
	if err := m.err; err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	var out []media.Descriptor
	for _, d := range m.items {
		if !d.Date.Before(start) && d.Date.Before(end) {
			out = append(out, d)
		}
	}
	order := make(map[string]int, len(out))
	for _, d := range out {
		order[d.AssetID] = m.order[d.AssetID]
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return order[out[i].AssetID] < order[out[j].AssetID]
	})
	return out, nil
}

// FetchNativeMediaCount implements Store.
func (m *Memory) FetchNativeMediaCount(ctx context.Context, day time.Time) (int, error) {
	ds, err := m.FetchNativeMedia(ctx, day)
	return len(ds), err
}

// ResolveExists implements Store.
func (m *Memory) ResolveExists(_ context.Context, assetID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.items[assetID]
	return ok, nil
}

// Lookup implements Store.
func (m *Memory) Lookup(_ context.Context, assetID string) (media.Descriptor, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return media.Descriptor{}, false, m.err
	}
	d, ok := m.items[assetID]
	return d, ok, nil
}
