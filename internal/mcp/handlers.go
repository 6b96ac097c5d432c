package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/dayreel/internal/errors"
	"github.com/hpungsan/dayreel/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(d *ops.Deps) *Handlers {
	return &Handlers{deps: d}
}

// Request types for each tool

// DateRequest carries a single day.
type DateRequest struct {
	Date string `json:"date"`
}

// MonthRequest represents the arguments for day_month.
type MonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// SetPreferredRequest represents the arguments for preferred_set.
type SetPreferredRequest struct {
	Date    string `json:"date"`
	AssetID string `json:"asset_id"`
}

// PinRequest represents the arguments for pin_set.
type PinRequest struct {
	AssetID    string `json:"asset_id"`
	TargetDate string `json:"target_date"`
	SourceDate string `json:"source_date,omitempty"`
}

// TargetRequest carries a pinned day.
type TargetRequest struct {
	TargetDate string `json:"target_date"`
}

// ListPinsRequest represents the arguments for pin_list.
type ListPinsRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// CleanupRequest represents the arguments for cleanup_age.
type CleanupRequest struct {
	OlderThan string `json:"older_than"`
	Target    string `json:"target,omitempty"`
}

// RangeRequest carries an inclusive date range.
type RangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ExportRequest represents the arguments for plan_export.
type ExportRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Path  string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for assets_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// Handler implementations

// HandleResolveDay handles the day_resolve tool call.
func (h *Handlers) HandleResolveDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ResolveDay(ctx, h.deps, ops.ResolveDayInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleResolveMonth handles the day_month tool call.
func (h *Handlers) HandleResolveMonth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MonthRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ResolveMonth(ctx, h.deps, ops.ResolveMonthInput{Year: input.Year, Month: input.Month})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSetPreferred handles the preferred_set tool call.
func (h *Handlers) HandleSetPreferred(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SetPreferredRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SetPreferred(ctx, h.deps, ops.SetPreferredInput{Date: input.Date, AssetID: input.AssetID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGetPreferred handles the preferred_get tool call.
func (h *Handlers) HandleGetPreferred(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.GetPreferred(ctx, h.deps, ops.GetPreferredInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleClearPreferred handles the preferred_clear tool call.
func (h *Handlers) HandleClearPreferred(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DateRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ClearPreferred(ctx, h.deps, ops.ClearPreferredInput{Date: input.Date})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePin handles the pin_set tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PinRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Pin(ctx, h.deps, ops.PinInput{
		AssetID:    input.AssetID,
		SourceDate: input.SourceDate,
		TargetDate: input.TargetDate,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleGetPin handles the pin_get tool call.
func (h *Handlers) HandleGetPin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.GetPin(ctx, h.deps, ops.GetPinInput{TargetDate: input.TargetDate})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUnpin handles the pin_remove tool call.
func (h *Handlers) HandleUnpin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TargetRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Unpin(ctx, h.deps, ops.UnpinInput{TargetDate: input.TargetDate})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleListPins handles the pin_list tool call.
func (h *Handlers) HandleListPins(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListPinsRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ListPins(ctx, h.deps, ops.ListPinsInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCleanup handles the cleanup_age tool call.
func (h *Handlers) HandleCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CleanupRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Cleanup(ctx, h.deps, ops.CleanupInput{
		Target:    ops.CleanupTarget(input.Target),
		OlderThan: input.OlderThan,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCleanupOrphans handles the cleanup_orphans tool call.
func (h *Handlers) HandleCleanupOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CleanupOrphans(ctx, h.deps)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSelectTimeframe handles the timeframe_select tool call.
func (h *Handlers) HandleSelectTimeframe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RangeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.SelectTimeframe(ctx, h.deps, ops.TimeframeInput{Start: input.Start, End: input.End})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSummarize handles the timeframe_summary tool call.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RangeRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Summarize(ctx, h.deps, ops.TimeframeInput{Start: input.Start, End: input.End})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExportPlan handles the plan_export tool call.
func (h *Handlers) HandleExportPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ExportPlan(ctx, h.deps, ops.ExportPlanInput{
		Start: input.Start,
		End:   input.End,
		Path:  input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImportAssets handles the assets_import tool call.
func (h *Handlers) HandleImportAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.ImportAssets(ctx, h.deps, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStatus handles the store_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Status(ctx, h.deps)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var dErr *errors.DayreelError
	if stderrors.As(err, &dErr) {
		errorObj := map[string]any{
			"code":    dErr.Code,
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		if dErr.Code != errors.ErrInternal && dErr.Details != nil {
			errorObj["details"] = dErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
