package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aschepis/backscratcher/diary/journal"
	"github.com/aschepis/backscratcher/diary/metrics"
)

// Tool names registered by NewServer.
const (
	ToolJournalAppend = "journal_append"
	ToolJournalRead   = "journal_read"
	ToolJournalAsk    = "journal_ask"
	ToolMetricsWindow = "metrics_window"
	ToolThreadList    = "thread_list"
	ToolThreadCreate  = "thread_create"
	ToolThreadShow    = "thread_show"
	ToolThreadSend    = "thread_send"
	ToolThreadClear   = "thread_clear"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	srv.AddTool(journalAppendTool(), svc.handleJournalAppend)
	srv.AddTool(journalReadTool(), svc.handleJournalRead)
	srv.AddTool(journalAskTool(), svc.handleJournalAsk)
	srv.AddTool(metricsWindowTool(), svc.handleMetricsWindow)
	srv.AddTool(threadListTool(), svc.handleThreadList)
	srv.AddTool(threadCreateTool(), svc.handleThreadCreate)
	srv.AddTool(threadShowTool(), svc.handleThreadShow)
	srv.AddTool(threadSendTool(), svc.handleThreadSend)
	srv.AddTool(threadClearTool(), svc.handleThreadClear)
}

func journalAppendTool() mcp.Tool {
	exercises := make([]string, 0, len(metrics.ExerciseTypes))
	for _, t := range metrics.ExerciseTypes {
		exercises = append(exercises, string(t))
	}
	return mcp.NewTool(
		ToolJournalAppend,
		mcp.WithDescription("Append an entry to the journal file of the current month."),
		mcp.WithString("text",
			mcp.Description("Free-form entry text."),
		),
		mcp.WithString("at",
			mcp.Description("Optional timestamp (RFC3339 or 'YYYY-MM-DD HH:MM'); defaults to now."),
		),
		mcp.WithNumber("satisfaction",
			mcp.Description("Optional satisfaction score from 0 to 5."),
		),
		mcp.WithNumber("neuralgia",
			mcp.Description("Optional neuralgia score from 0 to 5."),
		),
		mcp.WithString("exercise",
			mcp.Description("Optional exercise type."),
			mcp.Enum(exercises...),
		),
		mcp.WithNumber("minutes",
			mcp.Description("Exercise duration in minutes."),
		),
		mcp.WithNumber("distance",
			mcp.Description("Exercise distance."),
		),
	)
}

func (s *Service) handleJournalAppend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text         string   `json:"text"`
		At           string   `json:"at"`
		Satisfaction *int     `json:"satisfaction"`
		Neuralgia    *int     `json:"neuralgia"`
		Exercise     string   `json:"exercise"`
		Minutes      float64  `json:"minutes"`
		Distance     *float64 `json:"distance"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	opts := AppendOptions{
		Text: args.Text,
		Template: metrics.TemplateInput{
			Satisfaction: args.Satisfaction,
			Neuralgia:    args.Neuralgia,
			Minutes:      args.Minutes,
			Distance:     args.Distance,
		},
	}
	if strings.TrimSpace(args.Exercise) != "" {
		opts.Template.Exercise = metrics.ParseExerciseType(args.Exercise)
	}
	if strings.TrimSpace(args.At) != "" {
		at, err := journal.ParseTimestamp(args.At, time.Local)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid at value: %v", err)), nil
		}
		opts.At = &at
	}

	res, err := s.Append(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(res)
}

func journalReadTool() mcp.Tool {
	return mcp.NewTool(
		ToolJournalRead,
		mcp.WithDescription("Read the concatenated journal across every month."),
		mcp.WithNumber("last",
			mcp.Description("Only return this many trailing entries; 0 returns everything."),
		),
	)
}

func (s *Service) handleJournalRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.Read(ctx, request.GetInt("last", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func journalAskTool() mcp.Tool {
	return mcp.NewTool(
		ToolJournalAsk,
		mcp.WithDescription("Ask a question answered from the most recent journal entries."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the journal."),
		),
	)
}

func (s *Service) handleJournalAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := s.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func metricsWindowTool() mcp.Tool {
	return mcp.NewTool(
		ToolMetricsWindow,
		mcp.WithDescription("Daily satisfaction, neuralgia and exercise over a trailing window of days."),
		mcp.WithNumber("days",
			mcp.Description("Window length in days; defaults to the configured window."),
		),
		mcp.WithString("anchor",
			mcp.Description("Last day of the window as YYYY-MM-DD; defaults to today."),
		),
	)
}

func (s *Service) handleMetricsWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var anchor time.Time
	if raw := strings.TrimSpace(request.GetString("anchor", "")); raw != "" {
		t, err := journal.ParseTimestamp(raw, time.UTC)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid anchor value: %v", err)), nil
		}
		anchor = t
	}
	res, err := s.Trend(ctx, request.GetInt("days", 0), anchor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(res)
}

func threadListTool() mcp.Tool {
	return mcp.NewTool(
		ToolThreadList,
		mcp.WithDescription("List conversation threads."),
	)
}

func (s *Service) handleThreadList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.ListThreads(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(map[string]any{"threads": names})
}

func threadCreateTool() mcp.Tool {
	return mcp.NewTool(
		ToolThreadCreate,
		mcp.WithDescription("Create a conversation thread, or reuse it if the title already exists."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Thread title."),
		),
	)
}

func (s *Service) handleThreadCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := s.CreateThread(ctx, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(map[string]string{"name": name})
}

func threadShowTool() mcp.Tool {
	return mcp.NewTool(
		ToolThreadShow,
		mcp.WithDescription("Show every message of a thread."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Thread name."),
		),
	)
}

func (s *Service) handleThreadShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	thread, err := s.ShowThread(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(thread)
}

func threadSendTool() mcp.Tool {
	return mcp.NewTool(
		ToolThreadSend,
		mcp.WithDescription("Send a message to a thread and return the reply."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Thread name; created when missing."),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Message to send."),
		),
		mcp.WithBoolean("with_journal",
			mcp.Description("Include recent journal entries as context."),
		),
	)
}

func (s *Service) handleThreadSend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Name        string `json:"name"`
		Message     string `json:"message"`
		WithJournal bool   `json:"with_journal"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	reply, err := s.SendToThread(ctx, args.Name, args.Message, args.WithJournal)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(reply), nil
}

func threadClearTool() mcp.Tool {
	return mcp.NewTool(
		ToolThreadClear,
		mcp.WithDescription("Remove every message from a thread."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Thread name."),
		),
	)
}

func (s *Service) handleThreadClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ClearThread(ctx, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("cleared " + name), nil
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
