package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hpungsan/dayreel/internal/config"
	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
)

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeAssets is an AssetResolver over a fixed set of ids.
type fakeAssets struct {
	mu  sync.Mutex
	ids map[string]bool
	err error
}

func newFakeAssets(ids ...string) *fakeAssets {
	f := &fakeAssets{ids: make(map[string]bool)}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeAssets) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

func (f *fakeAssets) ResolveExists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

func newPins(t *testing.T, assets AssetResolver) *Pins {
	t.Helper()
	p := NewPins(setupDB(t), assets, time.UTC, logging.Nop())
	p.Now = func() time.Time { return fixedNow }
	return p
}

func newPreferences(t *testing.T) *Preferences {
	t.Helper()
	p := NewPreferences(setupDB(t), time.UTC, logging.Nop())
	p.Now = func() time.Time { return fixedNow }
	return p
}

func TestSetPreferred_Idempotent(t *testing.T) {
	ctx := context.Background()
	p := newPreferences(t)
	d := day(2024, 3, 5)

	for i := 0; i < 2; i++ {
		if !p.SetPreferred(ctx, d.Add(time.Duration(i)*5*time.Hour), "X") {
			t.Fatalf("SetPreferred call %d returned false", i+1)
		}
	}

	if n := p.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	id, ok := p.GetPreferred(ctx, d.Add(23*time.Hour))
	if !ok || id != "X" {
		t.Errorf("GetPreferred = %q, %v; want X", id, ok)
	}
}

func TestSetPreferred_Overwrites(t *testing.T) {
	ctx := context.Background()
	p := newPreferences(t)
	d := day(2024, 3, 5)

	p.SetPreferred(ctx, d, "a")
	p.SetPreferred(ctx, d, "b")

	id, _ := p.GetPreferred(ctx, d)
	if id != "b" {
		t.Errorf("GetPreferred = %q, want b", id)
	}
	if n := p.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestRemovePreferred(t *testing.T) {
	ctx := context.Background()
	p := newPreferences(t)
	d := day(2024, 3, 5)

	if p.RemovePreferred(ctx, d) {
		t.Error("RemovePreferred on empty day returned true")
	}
	p.SetPreferred(ctx, d, "a")
	if !p.RemovePreferred(ctx, d) {
		t.Error("RemovePreferred returned false")
	}
	if _, ok := p.GetPreferred(ctx, d); ok {
		t.Error("preference still present after remove")
	}
}

func TestPreferencesRemoveIfAsset(t *testing.T) {
	ctx := context.Background()
	p := newPreferences(t)
	d := day(2024, 3, 5)
	p.SetPreferred(ctx, d, "new")

	if p.RemoveIfAsset(ctx, d, "old") {
		t.Error("RemoveIfAsset removed a preference naming a different asset")
	}
	if !p.RemoveIfAsset(ctx, d, "new") {
		t.Error("RemoveIfAsset did not remove matching preference")
	}
}

func TestPreferencesCleanup(t *testing.T) {
	ctx := context.Background()
	p := newPreferences(t)
	today := media.StartOfDay(fixedNow, time.UTC)
	for _, offset := range []int{0, -400, -800} {
		p.SetPreferred(ctx, today.AddDate(0, 0, offset), "x")
	}

	if n := p.Cleanup(ctx, media.OlderThanTwoYears); n != 1 {
		t.Errorf("Cleanup(2y) = %d, want 1", n)
	}
	if n := p.Cleanup(ctx, media.OlderThanOneYear); n != 1 {
		t.Errorf("Cleanup(1y) = %d, want 1", n)
	}
	if n := p.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	if n := p.Cleanup(ctx, media.OlderThanAll); n != 1 {
		t.Errorf("Cleanup(all) = %d, want 1", n)
	}
	if all := p.All(ctx); len(all) != 0 {
		t.Errorf("All = %v, want empty", all)
	}
}

func TestPin_SameDayRejected(t *testing.T) {
	ctx := context.Background()
	p := newPins(t, newFakeAssets("A"))
	d := day(2024, 3, 5)

	if got := p.Pin(ctx, "A", d, d.Add(6*time.Hour)); got != PinRejectedSameDay {
		t.Errorf("Pin = %s, want %s", got, PinRejectedSameDay)
	}
	if _, ok := p.GetPin(ctx, d); ok {
		t.Error("same-day pin was stored")
	}
}

func TestPin_Rejections(t *testing.T) {
	ctx := context.Background()
	assets := newFakeAssets("A")
	p := newPins(t, assets)
	source, target := day(2024, 2, 20), day(2024, 3, 6)

	tests := []struct {
		name    string
		assetID string
		err     error
		want    PinOutcome
	}{
		{"empty asset", "", nil, PinRejectedEmptyAsset},
		{"missing asset", "gone", nil, PinRejectedUnresolvable},
		{"lookup error", "A", fmt.Errorf("library offline"), PinRejectedUnresolvable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assets.err = tc.err
			defer func() { assets.err = nil }()
			if got := p.Pin(ctx, tc.assetID, source, target); got != tc.want {
				t.Errorf("Pin = %s, want %s", got, tc.want)
			}
			if n := p.Count(ctx); n != 0 {
				t.Errorf("Count = %d, want 0", n)
			}
		})
	}
}

func TestPin_Supersedes(t *testing.T) {
	ctx := context.Background()
	p := newPins(t, newFakeAssets("v1", "v2"))
	target := day(2024, 3, 6)

	if got := p.Pin(ctx, "v1", day(2024, 2, 1), target); got != PinCreated {
		t.Fatalf("first Pin = %s, want created", got)
	}
	if got := p.Pin(ctx, "v2", day(2024, 2, 2), target); got != PinReplaced {
		t.Fatalf("second Pin = %s, want replaced", got)
	}

	all := p.AllPins(ctx)
	if len(all) != 1 {
		t.Fatalf("AllPins = %d pins, want 1", len(all))
	}
	if all[0].AssetID != "v2" || !all[0].SourceDay.Equal(day(2024, 2, 2)) {
		t.Errorf("pin = %+v, want v2 from 2024-02-02", all[0])
	}
	if !p.IsPinned(ctx, "v2", target) || p.IsPinned(ctx, "v1", target) {
		t.Error("IsPinned does not match the superseding pin")
	}
	if !all[0].IsCrossDate() {
		t.Error("stored pin is not cross-date")
	}
}

func TestAllPins_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	p := newPins(t, newFakeAssets("a"))
	for _, d := range []int{3, 9, 6} {
		p.Pin(ctx, "a", day(2024, 1, 1), day(2024, 4, d))
	}

	all := p.AllPins(ctx)
	if len(all) != 3 {
		t.Fatalf("AllPins = %d pins, want 3", len(all))
	}
	for i, want := range []int{9, 6, 3} {
		if all[i].TargetDay.Day() != want {
			t.Errorf("all[%d].TargetDay = %v, want day %d", i, all[i].TargetDay, want)
		}
	}

	page := p.List(ctx, 1, 2)
	if len(page) != 1 || page[0].TargetDay.Day() != 3 {
		t.Errorf("List(1, 2) = %v, want the day 3 pin", page)
	}
}

func TestPinsCleanup(t *testing.T) {
	ctx := context.Background()
	p := newPins(t, newFakeAssets("a"))
	today := media.StartOfDay(fixedNow, time.UTC)
	source := day(2000, 1, 1)
	for _, offset := range []int{0, -400, -800} {
		if got := p.Pin(ctx, "a", source, today.AddDate(0, 0, offset)); !got.Stored() {
			t.Fatalf("Pin(offset %d) = %s", offset, got)
		}
	}

	removed := p.Cleanup(ctx, media.OlderThanOneYear)
	if removed != 2 {
		t.Errorf("Cleanup(1y) = %d, want 2", removed)
	}
	if n := p.Count(ctx); n != 3-removed {
		t.Errorf("Count = %d, want %d", n, 3-removed)
	}
	if _, ok := p.GetPin(ctx, today); !ok {
		t.Error("today's pin was removed")
	}
}

func TestCleanupOrphaned(t *testing.T) {
	ctx := context.Background()
	assets := newFakeAssets("keep", "gone1", "gone2")
	p := newPins(t, assets)
	source := day(2024, 1, 1)
	p.Pin(ctx, "keep", source, day(2024, 2, 1))
	p.Pin(ctx, "gone1", source, day(2024, 2, 2))
	p.Pin(ctx, "gone2", source, day(2024, 2, 3))

	assets.remove("gone1")
	assets.remove("gone2")

	if n := p.CleanupOrphaned(ctx); n != 2 {
		t.Errorf("CleanupOrphaned = %d, want 2", n)
	}
	if n := p.CleanupOrphaned(ctx); n != 0 {
		t.Errorf("second CleanupOrphaned = %d, want 0", n)
	}
	if !p.IsPinned(ctx, "keep", day(2024, 2, 1)) {
		t.Error("resolvable pin was removed")
	}
}

func TestCleanupOrphaned_LookupErrorKeepsPins(t *testing.T) {
	ctx := context.Background()
	assets := newFakeAssets("a")
	p := newPins(t, assets)
	p.Pin(ctx, "a", day(2024, 1, 1), day(2024, 2, 1))

	assets.err = fmt.Errorf("library offline")
	if n := p.CleanupOrphaned(ctx); n != 0 {
		t.Errorf("CleanupOrphaned = %d, want 0", n)
	}
	if n := p.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestCleanupOrphaned_ConcurrentWithReads(t *testing.T) {
	ctx := context.Background()
	assets := newFakeAssets()
	database := setupDB(t)
	db.ConfigurePool(database, &config.Config{DBMaxOpenConns: 1, DBMaxIdleConns: 1})
	p := NewPins(database, assets, time.UTC, logging.Nop())
	for i := 1; i <= 20; i++ {
		id := fmt.Sprintf("a%d", i)
		assets.ids[id] = true
		p.Pin(ctx, id, day(2023, 1, 1), day(2024, 1, i))
	}
	for i := 1; i <= 20; i += 2 {
		assets.remove(fmt.Sprintf("a%d", i))
	}

	var wg sync.WaitGroup
	results := make([]int, 3)
	for w := 0; w < 3; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w] = p.CleanupOrphaned(ctx)
		}(w)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.GetPin(ctx, day(2024, 1, i+1))
		}(i)
	}
	wg.Wait()

	total := results[0] + results[1] + results[2]
	if total != 10 {
		t.Errorf("orphans removed across passes = %d, want 10", total)
	}
	if n := p.Count(ctx); n != 10 {
		t.Errorf("Count = %d, want 10", n)
	}
}

func TestUnavailableStores(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	log := logging.Wrap(zap.New(core))

	prefs := NewPreferences(nil, time.UTC, log)
	pins := NewPins(nil, newFakeAssets("a"), time.UTC, log)
	d := day(2024, 3, 5)

	if prefs.SetPreferred(ctx, d, "a") {
		t.Error("SetPreferred succeeded without persistence")
	}
	if _, ok := prefs.GetPreferred(ctx, d); ok {
		t.Error("GetPreferred returned a value without persistence")
	}
	if prefs.Count(ctx) != 0 || prefs.Cleanup(ctx, media.OlderThanAll) != 0 {
		t.Error("preference counts should be zero without persistence")
	}

	if got := pins.Pin(ctx, "a", day(2024, 1, 1), d); got != PinUnavailable {
		t.Errorf("Pin = %s, want %s", got, PinUnavailable)
	}
	if pins.AllPins(ctx) != nil || pins.Count(ctx) != 0 || pins.CleanupOrphaned(ctx) != 0 {
		t.Error("pin reads should be empty without persistence")
	}

	if logs.FilterMessage("persistence unavailable").Len() == 0 {
		t.Error("expected persistence unavailable warnings")
	}
}
