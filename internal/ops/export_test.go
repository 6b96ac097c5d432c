package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/dayreel/internal/errors"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	return lines
}

func TestExportPlan_HappyPath(t *testing.T) {
	ctx := context.Background()
	d := setupDeps(t)
	seedScenario(t, d)
	if _, err := Pin(ctx, d, PinInput{AssetID: "v9", TargetDate: "2024-03-06"}); err != nil {
		t.Fatalf("Pin failed: %v", err)
	}

	exportPath := filepath.Join(d.ExportsDir, "march.jsonl")
	out, err := ExportPlan(ctx, d, ExportPlanInput{Start: "2024-03-01", End: "2024-03-07", Path: exportPath})
	if err != nil {
		t.Fatalf("ExportPlan failed: %v", err)
	}
	if out.Path != exportPath || out.Count != 2 {
		t.Errorf("ExportPlan = %+v", out)
	}
	if _, err := ulid.Parse(out.PlanID); err != nil {
		t.Errorf("PlanID %q is not a ULID: %v", out.PlanID, err)
	}
	if out.Summary.TotalDays != 7 || out.Summary.CheatingPinCount != 1 {
		t.Errorf("Summary = %+v", out.Summary)
	}

	lines := readLines(t, exportPath)
	if len(lines) != 3 {
		t.Fatalf("plan has %d lines, want header + 2", len(lines))
	}

	var header PlanHeader
	if err := json.Unmarshal([]byte(lines[0]), &header); err != nil {
		t.Fatalf("header is not JSON: %v", err)
	}
	if !header.DayreelPlan || header.PlanID != out.PlanID || header.SchemaVersion != PlanSchemaVersion {
		t.Errorf("header = %+v", header)
	}
	if header.Start != "2024-03-01" || header.End != "2024-03-07" || header.Timezone != "UTC" {
		t.Errorf("header range = %s..%s %s", header.Start, header.End, header.Timezone)
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &second); err != nil {
		t.Fatalf("line 3 is not JSON: %v", err)
	}
	if first["day"] != "2024-03-05" || first["asset_id"] != "v1" || first["reason"] != "automatic" {
		t.Errorf("line 2 = %v", first)
	}
	if second["day"] != "2024-03-06" || second["reason"] != "pinned_cross_date" || second["source_day"] != "2024-02-20" || second["cheating"] != true {
		t.Errorf("line 3 = %v", second)
	}

	// no temp files left behind
	entries, _ := os.ReadDir(d.ExportsDir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestExportPlan_DefaultPath(t *testing.T) {
	d := setupDeps(t)
	seedScenario(t, d)

	out, err := ExportPlan(context.Background(), d, ExportPlanInput{Start: "2024-03-05", End: "2024-03-05"})
	if err != nil {
		t.Fatalf("ExportPlan failed: %v", err)
	}
	if filepath.Dir(out.Path) != d.ExportsDir {
		t.Errorf("Path = %s, want a file in %s", out.Path, d.ExportsDir)
	}
	if !strings.HasPrefix(filepath.Base(out.Path), "plan-2024-03-05-2024-03-05-") {
		t.Errorf("default file name = %s", filepath.Base(out.Path))
	}
}

func TestExportPlan_OverwritesExisting(t *testing.T) {
	d := setupDeps(t)
	seedScenario(t, d)
	exportPath := filepath.Join(d.ExportsDir, "plan.jsonl")
	if err := os.WriteFile(exportPath, []byte("old\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := ExportPlan(context.Background(), d, ExportPlanInput{Start: "2024-03-05", End: "2024-03-05", Path: exportPath}); err != nil {
		t.Fatalf("ExportPlan failed: %v", err)
	}
	if lines := readLines(t, exportPath); len(lines) != 2 || lines[0] == "old" {
		t.Errorf("plan was not replaced: %v", lines)
	}
}

func TestExportPlan_RejectsOutsideDir(t *testing.T) {
	d := setupDeps(t)
	_, err := ExportPlan(context.Background(), d, ExportPlanInput{
		Start: "2024-03-05",
		End:   "2024-03-05",
		Path:  filepath.Join(t.TempDir(), "plan.jsonl"),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("error = %v, want INVALID_REQUEST", err)
	}
}

func TestExportPlan_Cancelled(t *testing.T) {
	d := setupDeps(t)
	seedScenario(t, d)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exportPath := filepath.Join(d.ExportsDir, "cancelled.jsonl")
	_, err := ExportPlan(ctx, d, ExportPlanInput{Start: "2024-03-01", End: "2024-03-31", Path: exportPath})
	if !errors.Is(err, errors.ErrCancelled) {
		t.Fatalf("error = %v, want CANCELLED", err)
	}
	if _, err := os.Stat(exportPath); !os.IsNotExist(err) {
		t.Error("cancelled export left a plan file")
	}
}
