// Package mcp exposes the board to agents as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ldi/taskboard/internal/board"
)

// NewServer creates a new MCP server wrapping the board service.
func NewServer(svc *board.Service) *server.MCPServer {
	s := server.NewMCPServer("Taskboard", "0.1.0")

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks, optionally filtered by status and/or priority."),
		mcp.WithString("status", mcp.Description("Filter by status (TODO|IN_PROGRESS|DONE)")),
		mcp.WithString("priority", mcp.Description("Filter by priority (LOW|MEDIUM|HIGH)")),
	), listTasksHandler(svc))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(svc))

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task. High priority tasks require a description."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("status", mcp.Description("Initial status (defaults to TODO)")),
		mcp.WithString("priority", mcp.Description("Priority (defaults to MEDIUM)")),
		mcp.WithString("link", mcp.Description("Informational link")),
	), createTaskHandler(svc))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update fields of an existing task. A completed task cannot be reopened."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithString("priority", mcp.Description("New priority")),
		mcp.WithString("link", mcp.Description("New link")),
		mcp.WithBoolean("ready", mcp.Description("Assert the readiness gate when moving IN_PROGRESS -> DONE")),
	), updateTaskHandler(svc))

	s.AddTool(mcp.NewTool("advance_task",
		mcp.WithDescription("Move a task to the next status (TODO -> IN_PROGRESS -> DONE)."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithBoolean("ready", mcp.Description("Assert the readiness gate when moving IN_PROGRESS -> DONE")),
	), advanceTaskHandler(svc))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(svc))

	s.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Get task counts by status and priority."),
	), statisticsHandler(svc))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func listTasksHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filters := board.Filters{
			Status:   mcp.ParseString(request, "status", ""),
			Priority: mcp.ParseString(request, "priority", ""),
		}

		tasks, err := svc.List(ctx, filters)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.MarshalIndent(tasks, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func getTaskHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		task, err := svc.Get(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.MarshalIndent(task, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func createTaskHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := board.CreateRequest{
			Title:       mcp.ParseString(request, "title", ""),
			Description: mcp.ParseString(request, "description", ""),
			Status:      mcp.ParseString(request, "status", ""),
			Priority:    mcp.ParseString(request, "priority", ""),
			Link:        mcp.ParseString(request, "link", ""),
		}

		task, err := svc.Create(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d created with status %s", task.ID, task.Status)), nil
	}
}

func updateTaskHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		req := board.UpdateRequest{
			Ready: mcp.ParseBoolean(request, "ready", false),
		}
		if v := mcp.ParseString(request, "title", ""); v != "" {
			req.Title = &v
		}
		if v := mcp.ParseString(request, "description", ""); v != "" {
			req.Description = &v
		}
		if v := mcp.ParseString(request, "status", ""); v != "" {
			req.Status = &v
		}
		if v := mcp.ParseString(request, "priority", ""); v != "" {
			req.Priority = &v
		}
		if v := mcp.ParseString(request, "link", ""); v != "" {
			req.Link = &v
		}

		task, err := svc.Update(ctx, id, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d updated (status %s)", task.ID, task.Status)), nil
	}
}

func advanceTaskHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))
		ready := mcp.ParseBoolean(request, "ready", false)

		task, err := svc.Advance(ctx, id, ready)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d advanced to %s", task.ID, task.Status)), nil
	}
}

func deleteTaskHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		if err := svc.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d deleted", id)), nil
	}
}

func statisticsHandler(svc *board.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := svc.Statistics(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
