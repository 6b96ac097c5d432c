package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/dayreel/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"day", "preferred", "pin", "cleanup", "timeframe", "plan", "assets", "store"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"day_resolve": {
		def:     dayResolveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResolveDay },
	},
	"day_month": {
		def:     dayMonthToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleResolveMonth },
	},
	"preferred_set": {
		def:     preferredSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSetPreferred },
	},
	"preferred_get": {
		def:     preferredGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetPreferred },
	},
	"preferred_clear": {
		def:     preferredClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClearPreferred },
	},
	"pin_set": {
		def:     pinSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePin },
	},
	"pin_get": {
		def:     pinGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetPin },
	},
	"pin_remove": {
		def:     pinRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUnpin },
	},
	"pin_list": {
		def:     pinListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListPins },
	},
	"cleanup_age": {
		def:     cleanupAgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCleanup },
	},
	"cleanup_orphans": {
		def:     cleanupOrphansToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCleanupOrphans },
	},
	"timeframe_select": {
		def:     timeframeSelectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectTimeframe },
	},
	"timeframe_summary": {
		def:     timeframeSummaryToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarize },
	},
	"plan_export": {
		def:     planExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExportPlan },
	},
	"assets_import": {
		def:     assetsImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImportAssets },
	},
	"store_status": {
		def:     storeStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStatus },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "pin_set" → "pin").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Dayreel tools registered.
// Tools listed in Config.DisabledTools or belonging to Config.DisabledTypes
// are excluded from registration.
func NewServer(d *ops.Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"dayreel",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(d)

	// expand types first, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(d.Config.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range d.Config.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(d *ops.Deps, version string) error {
	s := NewServer(d, version)
	return server.ServeStdio(s)
}
