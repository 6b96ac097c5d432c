// Package assets provides the photo/video library the resolvers read from.
// The library is owned elsewhere and can change out-of-band; callers must
// treat every answer as a snapshot.
package assets

import (
	"context"
	"time"

	"github.com/hpungsan/dayreel/internal/media"
)

// Store is a read-only view of the media library.
type Store interface {
	// FetchNativeMedia returns the assets created on the local calendar day
	// containing day, earliest first, all with native provenance.
	FetchNativeMedia(ctx context.Context, day time.Time) ([]media.Descriptor, error)

	// FetchNativeMediaCount returns len(FetchNativeMedia(day)).
	FetchNativeMediaCount(ctx context.Context, day time.Time) (int, error)

	// ResolveExists reports whether assetID is still in the library.
	ResolveExists(ctx context.Context, assetID string) (bool, error)

	// Lookup returns the descriptor for assetID with native provenance.
	Lookup(ctx context.Context, assetID string) (media.Descriptor, bool, error)
}

// dayBounds returns [start, next start) of the local day containing day.
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	start := media.StartOfDay(day, loc)
	return start, start.AddDate(0, 0, 1)
}
