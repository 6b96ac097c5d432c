package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/resolve"
)

// PlanSchemaVersion is written to every plan header.
const PlanSchemaVersion = "1.0"

// ExportPlanInput contains parameters for the ExportPlan operation.
type ExportPlanInput struct {
	Start string // required
	End   string // required
	Path  string // optional, default: <exports>/plan-<start>-<end>-<timestamp>.jsonl
}

// ExportPlanOutput contains the result of the ExportPlan operation.
type ExportPlanOutput struct {
	PlanID     string          `json:"plan_id"`
	Path       string          `json:"path"`
	Count      int             `json:"count"`
	Size       string          `json:"size"`
	ExportedAt int64           `json:"exported_at"`
	Summary    resolve.Summary `json:"summary"`
}

// PlanHeader is the first line of a compilation plan.
type PlanHeader struct {
	DayreelPlan   bool            `json:"_dayreel_plan"`
	PlanID        string          `json:"plan_id"`
	SchemaVersion string          `json:"schema_version"`
	ExportedAt    int64           `json:"exported_at"`
	Start         string          `json:"start"`
	End           string          `json:"end"`
	Timezone      string          `json:"timezone"`
	Summary       resolve.Summary `json:"summary"`
}

// ExportPlan writes the selection for a range as a JSONL compilation plan:
// a header line followed by one DaySelection per line, in day order. The file
// is written to a temp name and renamed into place, so an existing plan is
// never left half-written.
func ExportPlan(ctx context.Context, d *Deps, input ExportPlanInput) (*ExportPlanOutput, error) {
	r, err := d.parseRange(input.Start, input.End)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = filepath.Join(d.ExportsDir, fmt.Sprintf("plan-%s-%s-%s.jsonl",
			d.formatDay(r.Start), d.formatDay(r.End), now.Format("20060102T150405")))
	}
	if err := ValidatePath(exportPath, PathCheckWrite, d.Config, d.ExportsDir); err != nil {
		return nil, err
	}

	sels, err := d.Selector.Select(ctx, r)
	if err != nil {
		return nil, cancelled(err, "export", len(sels))
	}
	sum := resolve.SummarizeSelections(sels, d.Config.DefaultClipSeconds)
	sum.TotalDays = r.Len(d.Location)

	header := PlanHeader{
		DayreelPlan:   true,
		PlanID:        newPlanID(now),
		SchemaVersion: PlanSchemaVersion,
		ExportedAt:    now.Unix(),
		Start:         d.formatDay(r.Start),
		End:           d.formatDay(r.End),
		Timezone:      d.Location.String(),
		Summary:       sum,
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create plan file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := writeJSONLine(file, header); err != nil {
		return nil, err
	}
	for i, sel := range sels {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err, "export", i)
		}
		if err := writeJSONLine(file, sel); err != nil {
			return nil, err
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	info, err := file.Stat()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close plan file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlinked destination
	if fi, err := os.Lstat(exportPath); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("plan destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize plan: %w", err))
	}
	success = true

	d.Log.Info("exported plan", "plan_id", header.PlanID, "path", exportPath, "days", len(sels))
	return &ExportPlanOutput{
		PlanID:     header.PlanID,
		Path:       exportPath,
		Count:      len(sels),
		Size:       humanize.Bytes(uint64(info.Size())),
		ExportedAt: header.ExportedAt,
		Summary:    sum,
	}, nil
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// newPlanID returns a ULID so plans sort by creation time.
func newPlanID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
