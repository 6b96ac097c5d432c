package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/media"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on any bad line or existing id (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite existing ids, skip bad lines
)

// ImportInput contains parameters for the ImportAssets operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the ImportAssets operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes a manifest line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ManifestRecord is one asset line of a library manifest.
type ManifestRecord struct {
	DayreelLibrary bool     `json:"_dayreel_library,omitempty"`
	ID             string   `json:"id"`
	CreatedAt      string   `json:"created_at"` // RFC 3339
	Kind           string   `json:"kind"`
	Duration       *float64 `json:"duration,omitempty"`
}

type parsedRecord struct {
	line int
	row  db.AssetRow
}

// ImportAssets loads a JSONL library manifest into the local catalog.
func ImportAssets(ctx context.Context, d *Deps, input ImportInput) (*ImportOutput, error) {
	if err := d.requireDB(); err != nil {
		return nil, err
	}
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}
	if err := ValidatePath(input.Path, PathCheckRead, d.Config, d.ExportsDir); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open manifest: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseManifest(file, time.Now())

	if input.Mode == ImportModeError {
		if len(parseErrors) > 0 {
			return &ImportOutput{Errors: parseErrors}, nil
		}
		rows := make([]db.AssetRow, len(records))
		for i, rec := range records {
			rows[i] = rec.row
		}
		dup, err := db.InsertAssets(ctx, d.DB, rows)
		if err == db.ErrUniqueConstraint {
			return &ImportOutput{Errors: []ImportError{{
				ID:      dup,
				Code:    "ID_COLLISION",
				Message: fmt.Sprintf("asset with id %q already exists", dup),
			}}}, nil
		}
		if err != nil {
			return nil, err
		}
		return &ImportOutput{Imported: len(rows), Errors: []ImportError{}}, nil
	}

	out := &ImportOutput{Skipped: len(parseErrors), Errors: append([]ImportError{}, parseErrors...)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err, "import", out.Imported)
		}
		if err := db.UpsertAsset(ctx, d.DB, rec.row); err != nil {
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				ID:      rec.row.ID,
				Code:    "INSERT_FAILED",
				Message: err.Error(),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}
	d.Log.Info("imported assets", "path", input.Path, "imported", out.Imported, "skipped", out.Skipped)
	return out, nil
}

// parseManifest reads manifest lines. Blank lines and the optional header are ignored.
func parseManifest(r io.Reader, importedAt time.Time) ([]parsedRecord, []ImportError) {
	var records []parsedRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec ManifestRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.DayreelLibrary {
			continue
		}

		row, err := rec.toRow(importedAt)
		if err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		records = append(records, parsedRecord{line: lineNum, row: row})
	}
	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, parseErrors
}

func (rec ManifestRecord) toRow(importedAt time.Time) (db.AssetRow, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return db.AssetRow{}, fmt.Errorf("missing id field")
	}
	created, err := time.Parse(time.RFC3339, strings.TrimSpace(rec.CreatedAt))
	if err != nil {
		return db.AssetRow{}, fmt.Errorf("created_at must be RFC 3339: %v", err)
	}
	kind := media.Kind(strings.ToLower(strings.TrimSpace(rec.Kind)))
	if kind == "" {
		return db.AssetRow{}, fmt.Errorf("missing kind field")
	}
	if rec.Duration != nil && *rec.Duration < 0 {
		return db.AssetRow{}, fmt.Errorf("duration must not be negative")
	}
	return db.AssetRow{
		ID:         id,
		CreatedAt:  created.UnixMilli(),
		Kind:       string(kind),
		Duration:   rec.Duration,
		ImportedAt: importedAt.Unix(),
	}, nil
}
