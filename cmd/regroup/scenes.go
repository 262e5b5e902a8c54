package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/lthms/regroup/internal/scene"
)

// ShowCmd prints the hierarchy of a scene file or a saved scene.
type ShowCmd struct {
	File  string `arg:"" optional:"" type:"existingfile" help:"Scene file."`
	Scene string `short:"s" help:"Show a scene saved in the database instead."`
	Edges bool   `help:"Also list brick connections."`
}

func (cmd *ShowCmd) Run(a *app) error {
	s, title, err := a.sceneFrom(cmd.File, cmd.Scene)
	if err != nil {
		return err
	}
	styled, width := stdoutStyled()
	a.printf("%s\n", renderScene(s, title, styled, width))
	if cmd.Edges {
		for _, e := range s.Edges() {
			a.printf("%s -- %s\n", s.Key(e[0]), s.Key(e[1]))
		}
	}
	return nil
}

// sceneFrom loads a scene from a file, or from the database by name.
func (a *app) sceneFrom(path, name string) (*scene.Scene, string, error) {
	switch {
	case name != "":
		st, err := a.openStore()
		if err != nil {
			return nil, "", err
		}
		defer st.Close()
		s, err := st.LoadScene(context.Background(), name)
		return s, name, err
	case path != "":
		s, err := scene.ReadFile(path)
		return s, path, err
	default:
		return nil, "", errors.New("a scene file or --scene is required")
	}
}

// SaveCmd stores scene files in the database.
type SaveCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Scene files to save."`
	Name  string   `help:"Name to save under (single file only; default: file base name)."`
}

func (cmd *SaveCmd) Run(a *app) error {
	if cmd.Name != "" && len(cmd.Files) > 1 {
		return errors.New("--name needs a single file")
	}
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	for _, f := range cmd.Files {
		s, err := scene.ReadFile(f)
		if err != nil {
			return err
		}
		name := cmd.Name
		if name == "" {
			name = sceneName(f)
		}
		if err := st.SaveScene(ctx, name, s); err != nil {
			return err
		}
		a.printf("saved %s as %s\n", f, name)
	}
	return nil
}

// ExportCmd writes a saved scene as YAML.
type ExportCmd struct {
	Name   string `arg:"" help:"Saved scene name."`
	Output string `short:"o" type:"path" help:"Output file (default: stdout)."`
}

func (cmd *ExportCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.LoadScene(context.Background(), cmd.Name)
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		return s.Encode(a.stdout)
	}
	return s.WriteFile(cmd.Output)
}

// HistoryCmd lists recorded passes.
type HistoryCmd struct {
	Name    string `arg:"" help:"Saved scene name."`
	Limit   int    `short:"n" default:"10" help:"Number of passes to show (0: all)."`
	Entries bool   `help:"Also print the edits of each pass."`
}

func (cmd *HistoryCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	passes, err := st.ListPasses(ctx, cmd.Name, cmd.Limit)
	if err != nil {
		return err
	}
	if len(passes) == 0 {
		a.printf("no passes recorded for %s\n", cmd.Name)
		return nil
	}
	for _, p := range passes {
		a.printf("%s  %s  %d bricks  %s\n", p.StartedAt, p.ID[:8], p.Bricks, summarizeSkipped(p.Result, p.Skipped))
		if !cmd.Entries {
			continue
		}
		entries, err := st.PassEntries(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			a.printf("    %s\n", e)
		}
	}
	return nil
}

// ScenesCmd lists the saved scenes.
type ScenesCmd struct{}

func (cmd *ScenesCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListScenes(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tNODES\tBRICKS\tUPDATED")
	for _, si := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", si.Name, si.Nodes, si.Bricks, si.UpdatedAt)
	}
	return w.Flush()
}

// DropCmd deletes a saved scene and its history.
type DropCmd struct {
	Name string `arg:"" help:"Saved scene name."`
}

func (cmd *DropCmd) Run(a *app) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteScene(context.Background(), cmd.Name); err != nil {
		return err
	}
	a.printf("dropped %s\n", cmd.Name)
	return nil
}
