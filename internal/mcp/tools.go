package mcp

import "github.com/mark3labs/mcp-go/mcp"

var dayResolveToolDef = mcp.NewTool("day_resolve",
	mcp.WithDescription("Resolve the representative media of one calendar day. A pin wins over a preferred asset, which wins over automatic selection. Stale pins and preferences are removed as a side effect."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day to resolve (YYYY-MM-DD) in the configured timezone")),
)

var dayMonthToolDef = mcp.NewTool("day_month",
	mcp.WithDescription("Resolve every cell of a month grid, including leading and trailing days from adjacent months."),
	mcp.WithNumber("year", mcp.Required(), mcp.Description("Four-digit year")),
	mcp.WithNumber("month", mcp.Required(), mcp.Description("Month number, 1-12")),
)

var preferredSetToolDef = mcp.NewTool("preferred_set",
	mcp.WithDescription("Set the preferred asset for a day. The asset must be one of the day's own media; use pin_set to borrow from another day."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day (YYYY-MM-DD)")),
	mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset to prefer")),
)

var preferredGetToolDef = mcp.NewTool("preferred_get",
	mcp.WithDescription("Get the stored preferred asset for a day, if any."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day (YYYY-MM-DD)")),
)

var preferredClearToolDef = mcp.NewTool("preferred_clear",
	mcp.WithDescription("Remove the preferred asset for a day."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Day (YYYY-MM-DD)")),
)

var pinSetToolDef = mcp.NewTool("pin_set",
	mcp.WithDescription("Pin an asset onto a target day. The source day must differ from the target day. Replaces any existing pin on the target day."),
	mcp.WithString("asset_id", mcp.Required(), mcp.Description("Asset to pin")),
	mcp.WithString("target_date", mcp.Required(), mcp.Description("Day the asset should represent (YYYY-MM-DD)")),
	mcp.WithString("source_date", mcp.Description("Day the asset belongs to (default: its creation day)")),
)

var pinGetToolDef = mcp.NewTool("pin_get",
	mcp.WithDescription("Get the pin on a target day."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("target_date", mcp.Required(), mcp.Description("Pinned day (YYYY-MM-DD)")),
)

var pinRemoveToolDef = mcp.NewTool("pin_remove",
	mcp.WithDescription("Remove the pin on a target day."),
	mcp.WithString("target_date", mcp.Required(), mcp.Description("Pinned day (YYYY-MM-DD)")),
)

var pinListToolDef = mcp.NewTool("pin_list",
	mcp.WithDescription("List pins, most recent target day first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var cleanupAgeToolDef = mcp.NewTool("cleanup_age",
	mcp.WithDescription("Delete preferences and pins whose day is older than a threshold."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("older_than", mcp.Required(), mcp.Enum("all", "1y", "2y"), mcp.Description("Age threshold")),
	mcp.WithString("target", mcp.Enum("preferred", "pins", "all"), mcp.Description("Which store to clean (default all)")),
)

var cleanupOrphansToolDef = mcp.NewTool("cleanup_orphans",
	mcp.WithDescription("Delete pins whose asset no longer exists in the library."),
	mcp.WithDestructiveHintAnnotation(true),
)

var timeframeSelectToolDef = mcp.NewTool("timeframe_select",
	mcp.WithDescription("Select one media per day over an inclusive date range for compilation. Read-only: never removes stale entries. Days with no media are omitted."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("start", mcp.Required(), mcp.Description("First day (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Required(), mcp.Description("Last day, inclusive (YYYY-MM-DD)")),
)

var timeframeSummaryToolDef = mcp.NewTool("timeframe_summary",
	mcp.WithDescription("Summarize a range selection: counts by reason and kind plus the estimated compilation length."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("start", mcp.Required(), mcp.Description("First day (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Required(), mcp.Description("Last day, inclusive (YYYY-MM-DD)")),
)

var planExportToolDef = mcp.NewTool("plan_export",
	mcp.WithDescription("Write a range selection as a JSONL compilation plan."),
	mcp.WithString("start", mcp.Required(), mcp.Description("First day (YYYY-MM-DD)")),
	mcp.WithString("end", mcp.Required(), mcp.Description("Last day, inclusive (YYYY-MM-DD)")),
	mcp.WithString("path", mcp.Description("Output .jsonl path (default: a new file in the exports directory)")),
)

var assetsImportToolDef = mcp.NewTool("assets_import",
	mcp.WithDescription("Load a JSONL library manifest into the local asset catalog."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Manifest .jsonl path")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Collision handling (default error)")),
)

var storeStatusToolDef = mcp.NewTool("store_status",
	mcp.WithDescription("Report schema version, timezone and row counts."),
	mcp.WithReadOnlyHintAnnotation(true),
)
