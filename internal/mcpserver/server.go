// Package mcpserver exposes the grocery state as read-only MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"smart-grocery/internal/model"
	"smart-grocery/internal/service"
)

const (
	serverName    = "smart-grocery"
	serverVersion = "1.0.0"
)

// Server is the MCP server over the persisted grocery state.
type Server struct {
	mcpServer *server.MCPServer
	state     *service.StateService
	list      *service.ListService
	budget    *service.BudgetService
	history   *service.HistoryService
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewServer registers the tools. Every call re-reads the stored blob so the
// answers follow changes made by the bot process.
func NewServer(state *service.StateService, logger *zap.SugaredLogger) *Server {
	s := &Server{
		state:   state,
		list:    service.NewListService(state),
		budget:  service.NewBudgetService(state),
		history: service.NewHistoryService(state),
		logger:  logger,
		now:     time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_items",
			mcp.WithDescription("List the items on the current shopping list with bill and spent totals"),
		),
		s.handleListItems,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("budget_summary",
			mcp.WithDescription("Monthly budget, amount spent this month, remaining amount and per-category totals"),
		),
		s.handleBudgetSummary,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("search_history",
			mcp.WithDescription("Search saved shopping trips by date (M/D/YYYY) or item name; empty filter lists all"),
			mcp.WithString("filter", mcp.Description("Date fragment or item name, case-insensitive")),
		),
		s.handleSearchHistory,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reminder_status",
			mcp.WithDescription("The scheduled shopping reminder, if any, and how many items are still pending"),
		),
		s.handleReminderStatus,
	)
}

type listResult struct {
	Currency string              `json:"currency"`
	Items    []model.GroceryItem `json:"items"`
	Totals   service.ListTotals  `json:"totals"`
}

type reminderResult struct {
	Scheduled bool       `json:"scheduled"`
	At        *time.Time `json:"at,omitempty"`
	Overdue   bool       `json:"overdue"`
	Pending   int        `json:"pendingItems"`
}

func (s *Server) reload(ctx context.Context) *mcp.CallToolResult {
	if err := s.state.Reload(ctx); err != nil {
		s.logger.Warnw("reload state", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to read state: %v", err))
	}
	return nil
}

func (s *Server) handleListItems(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if failed := s.reload(ctx); failed != nil {
		return failed, nil
	}
	return jsonResult(listResult{
		Currency: s.state.Snapshot().Currency,
		Items:    s.list.Items(),
		Totals:   s.list.Totals(),
	})
}

func (s *Server) handleBudgetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if failed := s.reload(ctx); failed != nil {
		return failed, nil
	}
	return jsonResult(s.budget.Summary(s.now()))
}

func (s *Server) handleSearchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if failed := s.reload(ctx); failed != nil {
		return failed, nil
	}
	filter := req.GetString("filter", "")
	entries := s.history.Search(filter)
	if len(entries) == 0 {
		return mcp.NewToolResultText("No shopping trips found."), nil
	}
	return jsonResult(entries)
}

func (s *Server) handleReminderStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if failed := s.reload(ctx); failed != nil {
		return failed, nil
	}
	result := reminderResult{Pending: s.state.PendingCount()}
	if at := s.state.ReminderTarget(); at != nil {
		result.Scheduled = true
		result.At = at
		result.Overdue = !s.now().Before(*at)
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
