package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/media"
)

// CleanupTarget selects which store an age cleanup applies to.
type CleanupTarget string

const (
	CleanupPreferred CleanupTarget = "preferred"
	CleanupPins      CleanupTarget = "pins"
	CleanupAll       CleanupTarget = "all"
)

// CleanupInput contains parameters for the Cleanup operation.
type CleanupInput struct {
	Target    CleanupTarget // default: all
	OlderThan string        // required: all, 1y, 2y
}

// CleanupOutput contains the result of the Cleanup operation.
type CleanupOutput struct {
	PreferencesRemoved int    `json:"preferences_removed"`
	PinsRemoved        int    `json:"pins_removed"`
	Message            string `json:"message"`
}

// Cleanup deletes preferences and/or pins for days older than the cutoff.
func Cleanup(ctx context.Context, d *Deps, input CleanupInput) (*CleanupOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	target := CleanupTarget(strings.ToLower(strings.TrimSpace(string(input.Target))))
	if target == "" {
		target = CleanupAll
	}
	if target != CleanupPreferred && target != CleanupPins && target != CleanupAll {
		return nil, errors.NewInvalidRequest("target must be one of: preferred, pins, all")
	}
	olderThan, err := media.ParseOlderThan(input.OlderThan)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	out := &CleanupOutput{}
	if target == CleanupPreferred || target == CleanupAll {
		out.PreferencesRemoved = d.Preferences.Cleanup(ctx, olderThan)
	}
	if target == CleanupPins || target == CleanupAll {
		out.PinsRemoved = d.Pins.Cleanup(ctx, olderThan)
	}
	out.Message = fmt.Sprintf("removed %s and %s",
		english.Plural(out.PreferencesRemoved, "preference", ""),
		english.Plural(out.PinsRemoved, "pin", ""))

	d.Log.Info("cleanup", "target", string(target), "older_than", string(olderThan),
		"preferences_removed", out.PreferencesRemoved, "pins_removed", out.PinsRemoved)
	return out, nil
}

// CleanupOrphansOutput contains the result of the CleanupOrphans operation.
type CleanupOrphansOutput struct {
	PinsRemoved int    `json:"pins_removed"`
	Message     string `json:"message"`
}

// CleanupOrphans removes pins whose asset has left the library.
func CleanupOrphans(ctx context.Context, d *Deps) (*CleanupOrphansOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	n := d.Pins.CleanupOrphaned(ctx)
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err, "orphan cleanup", n)
	}
	return &CleanupOrphansOutput{
		PinsRemoved: n,
		Message:     fmt.Sprintf("removed %s", english.Plural(n, "orphaned pin", "")),
	}, nil
}
