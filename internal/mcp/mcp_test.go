package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/dayreel/internal/config"
	"github.com/hpungsan/dayreel/internal/db"
	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/logging"
	"github.com/hpungsan/dayreel/internal/media"
	"github.com/hpungsan/dayreel/internal/ops"
)

// testSetup creates a temporary database and deps in UTC.
func testSetup(t *testing.T) *ops.Deps {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.AllowUnsafePaths = true // allow temp dirs in tests

	d, err := ops.NewDeps(database, cfg, tmpDir, logging.Nop())
	if err != nil {
		t.Fatalf("failed to build deps: %v", err)
	}
	return d
}

// seed adds a video and a live photo on 2024-03-05 and a video on 2024-02-20.
func seed(t *testing.T, d *ops.Deps) {
	t.Helper()
	twelve, four := 12.0, 4.0
	items := []media.Descriptor{
		{AssetID: "v1", Kind: media.KindVideo, Date: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC), Duration: &twelve},
		{AssetID: "lp1", Kind: media.KindLivePhoto, Date: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)},
		{AssetID: "v9", Kind: media.KindVideo, Date: time.Date(2024, 2, 20, 18, 0, 0, 0, time.UTC), Duration: &four},
	}
	for _, item := range items {
		if err := d.Catalog.Add(context.Background(), item); err != nil {
			t.Fatalf("Catalog.Add(%s) failed: %v", item.AssetID, err)
		}
	}
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleResolveDay(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError string
		wantAsset any
		wantCount float64
	}{
		{name: "day with media", args: map[string]any{"date": "2024-03-05"}, wantAsset: "v1", wantCount: 2},
		{name: "empty day", args: map[string]any{"date": "2024-03-07"}, wantAsset: nil, wantCount: 0},
		{name: "missing date", args: map[string]any{}, wantError: "INVALID_REQUEST"},
		{name: "bad date", args: map[string]any{"date": "03/05/2024"}, wantError: "INVALID_DATE"},
		{name: "wrong type", args: map[string]any{"date": 20240305}, wantError: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleResolveDay(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantError != "" {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.wantError)
				return
			}
			output := parseOutput(t, result)
			if output["representative_asset_id"] != tt.wantAsset {
				t.Errorf("representative_asset_id = %v, want %v", output["representative_asset_id"], tt.wantAsset)
			}
			if output["media_count"] != tt.wantCount {
				t.Errorf("media_count = %v, want %v", output["media_count"], tt.wantCount)
			}
		})
	}
}

func TestHandleResolveMonth(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)

	result, err := h.HandleResolveMonth(context.Background(), makeRequest(map[string]any{"year": 2024, "month": 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	days, ok := output["days"].([]any)
	if !ok || len(days)%7 != 0 || len(days) == 0 {
		t.Fatalf("days = %v, want a whole number of weeks", output["days"])
	}

	result, _ = h.HandleResolveMonth(context.Background(), makeRequest(map[string]any{"year": 2024, "month": 13}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleResolveMonth(context.Background(), makeRequest(map[string]any{"year": "twenty", "month": 3}))
	assertErrorCode(t, result, "INVALID_REQUEST")
	if msg := extractErrorMessage(result); !strings.Contains(msg, "year must be int") {
		t.Errorf("message = %q, want it to name the year argument", msg)
	}
}

func TestHandlePreferred(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)
	ctx := context.Background()

	result, _ := h.HandleSetPreferred(ctx, makeRequest(map[string]any{"date": "2024-03-05", "asset_id": "lp1"}))
	if output := parseOutput(t, result); output["stored"] != true {
		t.Fatalf("stored = %v, want true", output["stored"])
	}

	result, _ = h.HandleGetPreferred(ctx, makeRequest(map[string]any{"date": "2024-03-05"}))
	if output := parseOutput(t, result); output["asset_id"] != "lp1" {
		t.Errorf("asset_id = %v, want lp1", output["asset_id"])
	}

	result, _ = h.HandleResolveDay(ctx, makeRequest(map[string]any{"date": "2024-03-05"}))
	if output := parseOutput(t, result); output["representative_asset_id"] != "lp1" {
		t.Errorf("representative_asset_id = %v, want lp1", output["representative_asset_id"])
	}

	// another day's asset cannot be preferred
	result, _ = h.HandleSetPreferred(ctx, makeRequest(map[string]any{"date": "2024-03-05", "asset_id": "v9"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleClearPreferred(ctx, makeRequest(map[string]any{"date": "2024-03-05"}))
	if output := parseOutput(t, result); output["removed"] != true {
		t.Errorf("removed = %v, want true", output["removed"])
	}
}

func TestHandlePin(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)
	ctx := context.Background()

	tests := []struct {
		name        string
		args        map[string]any
		wantOutcome string
		wantStored  bool
	}{
		{
			name:        "cross-date pin",
			args:        map[string]any{"asset_id": "v9", "target_date": "2024-03-06"},
			wantOutcome: "created",
			wantStored:  true,
		},
		{
			name:        "replace",
			args:        map[string]any{"asset_id": "v1", "target_date": "2024-03-06"},
			wantOutcome: "replaced",
			wantStored:  true,
		},
		{
			name:        "same day",
			args:        map[string]any{"asset_id": "v1", "source_date": "2024-03-05", "target_date": "2024-03-05"},
			wantOutcome: "rejected_same_day",
		},
		{
			name:        "unknown asset with explicit source",
			args:        map[string]any{"asset_id": "gone", "source_date": "2024-01-01", "target_date": "2024-03-06"},
			wantOutcome: "rejected_unresolvable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandlePin(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			output := parseOutput(t, result)
			if output["outcome"] != tt.wantOutcome {
				t.Errorf("outcome = %v, want %s", output["outcome"], tt.wantOutcome)
			}
			if output["stored"] != tt.wantStored {
				t.Errorf("stored = %v, want %v", output["stored"], tt.wantStored)
			}
		})
	}

	// unknown asset without a source day cannot be dated
	result, _ := h.HandlePin(ctx, makeRequest(map[string]any{"asset_id": "gone", "target_date": "2024-03-06"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleGetPin(ctx, makeRequest(map[string]any{"target_date": "2024-03-06"}))
	if output := parseOutput(t, result); output["asset_id"] != "v1" {
		t.Errorf("pin asset_id = %v, want v1", output["asset_id"])
	}

	result, _ = h.HandleListPins(ctx, makeRequest(map[string]any{"limit": 10}))
	output := parseOutput(t, result)
	if items := output["items"].([]any); len(items) != 1 {
		t.Errorf("items = %d, want 1", len(items))
	}

	result, _ = h.HandleUnpin(ctx, makeRequest(map[string]any{"target_date": "2024-03-06"}))
	if output := parseOutput(t, result); output["removed"] != true {
		t.Errorf("removed = %v, want true", output["removed"])
	}

	result, _ = h.HandleGetPin(ctx, makeRequest(map[string]any{"target_date": "2024-03-06"}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleCleanup(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)
	ctx := context.Background()

	parseOutput(t, mustCall(t, h.HandlePin, map[string]any{"asset_id": "v9", "target_date": "2024-03-06"}))
	parseOutput(t, mustCall(t, h.HandleSetPreferred, map[string]any{"date": "2024-03-05", "asset_id": "lp1"}))

	result, _ := h.HandleCleanup(ctx, makeRequest(map[string]any{"older_than": "forever"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	result, _ = h.HandleCleanup(ctx, makeRequest(map[string]any{"older_than": "all", "target": "pins"}))
	output := parseOutput(t, result)
	if output["pins_removed"] != float64(1) || output["preferences_removed"] != float64(0) {
		t.Errorf("cleanup = %v", output)
	}

	parseOutput(t, mustCall(t, h.HandlePin, map[string]any{"asset_id": "v9", "target_date": "2024-03-06"}))
	if _, err := d.Catalog.Remove(ctx, "v9"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	result, _ = h.HandleCleanupOrphans(ctx, makeRequest(nil))
	if output := parseOutput(t, result); output["pins_removed"] != float64(1) {
		t.Errorf("orphans = %v", output)
	}
}

func TestHandleSelectTimeframe(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)
	ctx := context.Background()

	parseOutput(t, mustCall(t, h.HandlePin, map[string]any{"asset_id": "v9", "target_date": "2024-03-06"}))

	result, _ := h.HandleSelectTimeframe(ctx, makeRequest(map[string]any{"start": "2024-03-01", "end": "2024-03-31"}))
	output := parseOutput(t, result)
	if output["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", output["count"])
	}
	sels := output["selections"].([]any)
	second := sels[1].(map[string]any)
	if second["reason"] != "pinned_cross_date" || second["cheating"] != true {
		t.Errorf("second selection = %v", second)
	}

	result, _ = h.HandleSummarize(ctx, makeRequest(map[string]any{"start": "2024-03-01", "end": "2024-03-31"}))
	output = parseOutput(t, result)
	if output["total_days"] != float64(31) || output["estimated_duration"] != "16s" {
		t.Errorf("summary = %v", output)
	}

	result, _ = h.HandleSelectTimeframe(ctx, makeRequest(map[string]any{"start": "2024-03-31", "end": "2024-03-01"}))
	assertErrorCode(t, result, "INVALID_RANGE")
}

func TestHandleSelectTimeframe_CancelledContextReturnsCancelled(t *testing.T) {
	d := testSetup(t)
	seed(t, d)
	h := NewHandlers(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.HandleSelectTimeframe(ctx, makeRequest(map[string]any{"start": "2024-03-01", "end": "2024-03-31"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestHandleExportImport(t *testing.T) {
	d := testSetup(t)
	h := NewHandlers(d)
	ctx := context.Background()
	dir := t.TempDir()

	manifest := filepath.Join(dir, "library.jsonl")
	lines := `{"_dayreel_library": true}
{"id": "v1", "created_at": "2024-03-05T14:00:00Z", "kind": "video", "duration": 12}
{"id": "lp1", "created_at": "2024-03-05T09:00:00Z", "kind": "live_photo"}
`
	if err := os.WriteFile(manifest, []byte(lines), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	result, _ := h.HandleImportAssets(ctx, makeRequest(map[string]any{"path": manifest}))
	if output := parseOutput(t, result); output["imported"] != float64(2) {
		t.Fatalf("import = %v", output)
	}

	// second import collides in error mode
	result, _ = h.HandleImportAssets(ctx, makeRequest(map[string]any{"path": manifest}))
	output := parseOutput(t, result)
	if output["imported"] != float64(0) || len(output["errors"].([]any)) != 1 {
		t.Errorf("re-import = %v", output)
	}

	result, _ = h.HandleImportAssets(ctx, makeRequest(map[string]any{"path": manifest, "mode": "replace"}))
	if output := parseOutput(t, result); output["imported"] != float64(2) {
		t.Errorf("replace import = %v", output)
	}

	planPath := filepath.Join(dir, "plan.jsonl")
	result, _ = h.HandleExportPlan(ctx, makeRequest(map[string]any{"start": "2024-03-01", "end": "2024-03-07", "path": planPath}))
	output = parseOutput(t, result)
	if output["path"] != planPath || output["count"] != float64(1) {
		t.Errorf("export = %v", output)
	}
	if _, err := os.Stat(planPath); err != nil {
		t.Errorf("plan not written: %v", err)
	}

	result, _ = h.HandleStatus(ctx, makeRequest(nil))
	if output := parseOutput(t, result); output["assets"] != float64(2) {
		t.Errorf("status = %v", output)
	}
}

func TestServerRegistration(t *testing.T) {
	d := testSetup(t)

	s := NewServer(d, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"day_resolve",
		"day_month",
		"preferred_set",
		"preferred_get",
		"preferred_clear",
		"pin_set",
		"pin_get",
		"pin_remove",
		"pin_list",
		"cleanup_age",
		"cleanup_orphans",
		"timeframe_select",
		"timeframe_summary",
		"plan_export",
		"assets_import",
		"store_status",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	d := testSetup(t)
	d.Config.DisabledTools = []string{"cleanup_age", "cleanup_orphans", "cleanup_age"}

	tools := NewServer(d, "test").ListTools()
	if len(tools) != 14 {
		t.Errorf("registered tool count = %d, want 14", len(tools))
	}
	for _, name := range []string{"cleanup_age", "cleanup_orphans"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["day_resolve"]; !ok {
		t.Error("day_resolve should be registered")
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	d := testSetup(t)
	d.Config.DisabledTypes = []string{"pin", "plan"}

	tools := NewServer(d, "test").ListTools()
	if len(tools) != 10 {
		t.Errorf("registered tool count = %d, want 10", len(tools))
	}
	for name := range tools {
		if typ := GetTypeForTool(name); typ == "pin" || typ == "plan" {
			t.Errorf("tool %q of disabled type should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	d := testSetup(t)
	d.Config.DisabledTools = AllToolNames()

	if tools := NewServer(d, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"cleanup_age", "pin_set"}, wantLen: 0},
		{name: "one unknown", input: []string{"cleanup_age", "fake_tool"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unknown := ValidateDisabledTools(tt.input); len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"pin", "capsule"}); len(unknown) != 1 || unknown[0] != "capsule" {
		t.Errorf("ValidateDisabledTypes() = %v, want [capsule]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 16 {
		t.Errorf("AllToolNames() returned %d names, want 16", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
	types := make(map[string]bool)
	for _, name := range names {
		types[GetTypeForTool(name)] = true
	}
	if len(types) != len(KnownTypes) {
		t.Errorf("tools span %d types, KnownTypes has %d", len(types), len(KnownTypes))
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}
	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorKeepsCode(t *testing.T) {
	r := errorResult(fmt.Errorf("day 3: %w", errors.NewCancelled("select", 2)))
	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrCancelled) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrCancelled)
	}
}

func TestErrorResult_NonDayreelError(t *testing.T) {
	r := errorResult(fmt.Errorf("boom"))
	errObj := errorObject(t, r)
	if errObj["code"] != "INTERNAL" || errObj["message"] != "an internal error occurred" {
		t.Errorf("error = %v", errObj)
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewNotFound("pin", "2024-03-06")))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func mustCall(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorObject(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("no error object in payload: %v", payload)
	}
	return errObj
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()
	if !result.IsError {
		t.Errorf("expected error %s, got success: %v", expectedCode, extractErrorMessage(result))
		return
	}
	if code := errorObject(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}
	return text.Text
}
