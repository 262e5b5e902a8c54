package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lthms/regroup/internal/regroup"
	"github.com/lthms/regroup/internal/scene"
)

// MCPCmd serves the reconciliation tools over stdio.
type MCPCmd struct{}

func (cmd *MCPCmd) Run(a *app) error {
	setupFileLogger(a.cfg.LogFile)
	return runMCPServer(context.Background(), a.cfg)
}

type sceneArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"Path of a YAML scene file"`
	Document string `json:"document,omitempty" jsonschema:"Inline YAML scene document, used when path is empty"`
}

type reconcileArgs struct {
	Path     string   `json:"path,omitempty" jsonschema:"Path of a YAML scene file"`
	Document string   `json:"document,omitempty" jsonschema:"Inline YAML scene document, used when path is empty"`
	Bricks   []string `json:"bricks,omitempty" jsonschema:"Ids of the bricks that changed; empty means every brick"`
	DryRun   bool     `json:"dry_run,omitempty" jsonschema:"Do not write the scene file back"`
}

type reconcileReply struct {
	Summary  string         `json:"summary"`
	Changed  bool           `json:"changed"`
	Result   regroup.Result `json:"result"`
	Journal  []string       `json:"journal,omitempty"`
	Logs     []string       `json:"logs,omitempty"`
	Document string         `json:"document,omitempty"`
}

// mcpServer holds the tool handlers. Passes are serialized: a scene file
// must not be reconciled by two calls at once.
type mcpServer struct {
	cfg  Config
	pass chan struct{}
}

func newMCPServer(cfg Config) *mcpServer {
	return &mcpServer{cfg: cfg, pass: make(chan struct{}, 1)}
}

func runMCPServer(ctx context.Context, cfg Config) error {
	srv := newMCPServer(cfg)
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "regroup",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reconcile_scene",
		Description: "Reconcile the group and model hierarchy of a brick scene with brick connectivity. Returns a JSON summary, the edit journal and the pass logs.",
	}, srv.handleReconcile)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_scene",
		Description: "Print the hierarchy and connections of a brick scene as a text tree.",
	}, srv.handleDescribe)

	slog.Debug("mcp: starting server")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (m *mcpServer) load(args sceneArgs) (*scene.Scene, error) {
	switch {
	case args.Path != "":
		return scene.ReadFile(args.Path)
	case args.Document != "":
		return scene.Parse([]byte(args.Document))
	default:
		return nil, errors.New("path or document is required")
	}
}

func (m *mcpServer) handleReconcile(ctx context.Context, req *mcp.CallToolRequest, args reconcileArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("mcp: reconcile_scene called", "path", args.Path, "bricks", len(args.Bricks))

	select {
	case m.pass <- struct{}{}:
		defer func() { <-m.pass }()
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	s, err := m.load(sceneArgs{Path: args.Path, Document: args.Document})
	if err != nil {
		return nil, nil, fmt.Errorf("load scene: %w", err)
	}

	buf := newRingBuffer(mcpLogLines)
	logger := slog.New(newSlogRingHandler(buf, slog.LevelDebug, slog.Default().Handler()))
	o, err := reconcileScene(s, args.Bricks, passOptions{epsilon: m.cfg.Epsilon, journal: true, logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("reconcile: %w", err)
	}

	reply := reconcileReply{
		Summary: summarize(o.res),
		Changed: o.res.Changed(),
		Result:  o.res,
		Logs:    replyLogs(buf),
	}
	for _, e := range o.journal {
		reply.Journal = append(reply.Journal, e.String())
	}

	switch {
	case args.Path == "":
		doc, err := s.Marshal()
		if err != nil {
			return nil, nil, err
		}
		reply.Document = string(doc)
	case !args.DryRun && o.res.Changed():
		if err := s.WriteFile(args.Path); err != nil {
			return nil, nil, err
		}
	}

	out, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(out)},
		},
	}, nil, nil
}

// mcpLogLines bounds the pass logs returned by reconcile_scene.
const mcpLogLines = 200

// replyLogs returns the buffered lines, led by a marker when older lines
// were dropped.
func replyLogs(buf *ringBuffer) []string {
	lines := buf.Lines()
	if n := buf.Dropped(); n > 0 {
		lines = append([]string{fmt.Sprintf("… %d earlier lines dropped", n)}, lines...)
	}
	return lines
}

func (m *mcpServer) handleDescribe(ctx context.Context, req *mcp.CallToolRequest, args sceneArgs) (*mcp.CallToolResult, any, error) {
	slog.Debug("mcp: describe_scene called", "path", args.Path)

	s, err := m.load(args)
	if err != nil {
		return nil, nil, fmt.Errorf("load scene: %w", err)
	}
	title := args.Path
	if title == "" {
		title = "scene"
	}

	var sb strings.Builder
	sb.WriteString(renderScene(s, title, false, 0))
	sb.WriteString("\n")
	if edges := s.Edges(); len(edges) > 0 {
		sb.WriteString("\nconnections:\n")
		for _, e := range edges {
			fmt.Fprintf(&sb, "  %s -- %s\n", s.Key(e[0]), s.Key(e[1]))
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: sb.String()},
		},
	}, nil, nil
}
