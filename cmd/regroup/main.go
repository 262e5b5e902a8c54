package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lthms/regroup/internal/store"
)

// CLI is the top-level command structure for regroup.
type CLI struct {
	Debug  bool   `env:"REGROUP_DEBUG" help:"Enable debug logging."`
	Config string `env:"REGROUP_CONFIG" type:"path" help:"Read configuration from this file only."`
	DB     string `name:"db" env:"REGROUP_DB" type:"path" help:"Scene database (overrides store.path)."`

	Reconcile  ReconcileCmd  `cmd:"" help:"Reconcile the group hierarchy of scene files."`
	Connect    ConnectCmd    `cmd:"" help:"Connect two bricks, then reconcile them."`
	Disconnect DisconnectCmd `cmd:"" help:"Disconnect two bricks, then reconcile them."`
	Show       ShowCmd       `cmd:"" help:"Print the hierarchy of a scene."`
	Save       SaveCmd       `cmd:"" help:"Save a scene file into the database."`
	Export     ExportCmd     `cmd:"" help:"Write a saved scene back out as YAML."`
	History    HistoryCmd    `cmd:"" help:"List the reconciliation passes recorded for a scene."`
	Scenes     ScenesCmd     `cmd:"" help:"List the scenes saved in the database."`
	Drop       DropCmd       `cmd:"" help:"Delete a saved scene and its history."`
	MCP        MCPCmd        `cmd:"" name:"mcp" help:"Serve reconciliation tools over MCP on stdio."`
}

// app carries the resolved configuration and output streams to commands.
type app struct {
	cfg    Config
	stdout io.Writer
}

func (a *app) openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.StorePath), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return store.Open(store.Config{DBPath: a.cfg.StorePath})
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// sceneName derives the database name of a scene file: its base name
// without extension.
func sceneName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func main() {
	cli := CLI{}
	parser, err := kong.New(&cli,
		kong.Name("regroup"),
		kong.Description("Keep brick groups and models in step with brick connectivity."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			os.Exit(code)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "regroup: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	setupLogger(cli.Debug)
	cfg, err := loadConfig(cli.Config)
	ctx.FatalIfErrorf(err)
	if cfg.Debug && !cli.Debug {
		setupLogger(true)
	}
	cfg.Debug = cfg.Debug || cli.Debug
	if cli.DB != "" {
		cfg.StorePath = cli.DB
	}
	slog.Debug("config: loaded", "store", cfg.StorePath, "undo", cfg.Undo, "epsilon", cfg.Epsilon)

	err = ctx.Run(&app{cfg: cfg, stdout: os.Stdout})
	ctx.FatalIfErrorf(err)
}
