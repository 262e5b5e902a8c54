package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lthms/regroup/internal/regroup"
	"github.com/lthms/regroup/internal/scene"
)

// ReconcileCmd reconciles scene files in place.
type ReconcileCmd struct {
	Files   []string `arg:"" type:"existingfile" help:"Scene files to reconcile."`
	Bricks  []string `name:"brick" short:"b" help:"Reconcile only these bricks, by id (default: every brick)."`
	DryRun  bool     `xor:"write" help:"Report what would change without writing files."`
	Record  bool     `xor:"write" help:"Save each scene and record the pass in the database."`
	Journal bool     `help:"Print the edits made by each pass."`
	Jobs    int      `short:"j" help:"Files reconciled in parallel (default: one per CPU)."`
}

// outcome is the result of reconciling one scene.
type outcome struct {
	path    string
	scene   *scene.Scene
	bricks  int
	started time.Time
	res     regroup.Result
	journal []scene.Entry
}

func (cmd *ReconcileCmd) Run(a *app) error {
	opts := passOptions{epsilon: a.cfg.Epsilon, journal: a.cfg.Undo || cmd.Journal || cmd.Record}
	outs, err := reconcileFiles(context.Background(), cmd.Files, cmd.Bricks, opts, cmd.Jobs)
	if err != nil {
		return err
	}

	styled, _ := stdoutStyled()
	for _, o := range outs {
		a.printf("%s: %s\n", o.path, summarize(o.res))
		for _, b := range o.res.Skipped {
			a.printf("  %s\n", styleWarn(fmt.Sprintf("left in place: %s (prefab protection)", o.scene.Key(b)), styled))
		}
		if cmd.Journal {
			for _, e := range o.journal {
				a.printf("  %s\n", e)
			}
		}
	}
	if cmd.DryRun {
		return nil
	}

	for _, o := range outs {
		if !o.res.Changed() {
			continue
		}
		if err := o.scene.WriteFile(o.path); err != nil {
			return err
		}
	}
	if cmd.Record {
		return a.record(outs)
	}
	return nil
}

// record saves every reconciled scene and its pass.
func (a *app) record(outs []outcome) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	for _, o := range outs {
		name := sceneName(o.path)
		if err := st.SaveScene(ctx, name, o.scene); err != nil {
			return err
		}
		id, err := st.RecordPass(ctx, name, o.started, o.bricks, o.res, o.journal)
		if err != nil {
			return err
		}
		slog.Debug("store: pass recorded", "scene", name, "pass", id)
	}
	return nil
}

type passOptions struct {
	epsilon float64
	journal bool
	logger  *slog.Logger
}

// reconcileFiles reconciles every file concurrently. Results keep the
// order of paths. The first error cancels the remaining files.
func reconcileFiles(ctx context.Context, paths, bricks []string, opts passOptions, jobs int) ([]outcome, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	outs := make([]outcome, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := scene.ReadFile(p)
			if err != nil {
				return err
			}
			o, err := reconcileScene(s, bricks, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			o.path = p
			outs[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outs, nil
}

// reconcileScene runs one pass over s. Empty keys reconcile every brick;
// unknown keys are logged and ignored.
func reconcileScene(s *scene.Scene, keys []string, opts passOptions) (outcome, error) {
	s.SetEpsilon(opts.epsilon)
	handles := resolveBricks(s, keys)

	var j *scene.Journal
	if opts.journal {
		j = scene.NewJournal(s)
		s.SetListener(j)
		defer s.SetListener(nil)
	}

	cfg := regroup.ForScene(s)
	cfg.Logger = opts.logger
	o := outcome{scene: s, bricks: len(handles), started: time.Now()}
	res, err := regroup.New(cfg).Run(handles)
	o.res = res
	if j != nil {
		o.journal = j.Entries()
	}
	return o, err
}

func resolveBricks(s *scene.Scene, keys []string) []scene.Handle {
	if len(keys) == 0 {
		return s.Nodes(scene.KindBrick)
	}
	out := make([]scene.Handle, 0, len(keys))
	for _, k := range keys {
		h, ok := s.Lookup(k)
		if !ok {
			slog.Warn("reconcile: unknown brick, skipping", "brick", k)
			continue
		}
		out = append(out, h)
	}
	return out
}

// ConnectCmd joins two bricks and reconciles them.
type ConnectCmd struct {
	File   string `arg:"" type:"existingfile" help:"Scene file."`
	A      string `arg:"" help:"First brick id."`
	B      string `arg:"" help:"Second brick id."`
	DryRun bool   `help:"Report what would change without writing the file."`
}

func (cmd *ConnectCmd) Run(a *app) error {
	return a.editConnection(cmd.File, cmd.A, cmd.B, true, cmd.DryRun)
}

// DisconnectCmd separates two bricks and reconciles them.
type DisconnectCmd struct {
	File   string `arg:"" type:"existingfile" help:"Scene file."`
	A      string `arg:"" help:"First brick id."`
	B      string `arg:"" help:"Second brick id."`
	DryRun bool   `help:"Report what would change without writing the file."`
}

func (cmd *DisconnectCmd) Run(a *app) error {
	return a.editConnection(cmd.File, cmd.A, cmd.B, false, cmd.DryRun)
}

func (a *app) editConnection(path, ka, kb string, connect, dryRun bool) error {
	s, err := scene.ReadFile(path)
	if err != nil {
		return err
	}
	o, err := changeConnection(s, ka, kb, connect, passOptions{epsilon: a.cfg.Epsilon, journal: a.cfg.Undo})
	if err != nil {
		return err
	}
	a.printf("%s: %s\n", path, summarize(o.res))
	if dryRun {
		return nil
	}
	return s.WriteFile(path)
}

// changeConnection connects or disconnects two bricks of s, then
// reconciles both of them.
func changeConnection(s *scene.Scene, ka, kb string, connect bool, opts passOptions) (outcome, error) {
	ha, ok := s.Lookup(ka)
	if !ok {
		return outcome{}, fmt.Errorf("%w: %q", scene.ErrNodeNotFound, ka)
	}
	hb, ok := s.Lookup(kb)
	if !ok {
		return outcome{}, fmt.Errorf("%w: %q", scene.ErrNodeNotFound, kb)
	}

	var err error
	if connect {
		err = s.Connect(ha, hb)
	} else {
		err = s.Disconnect(ha, hb)
	}
	if err != nil {
		return outcome{}, err
	}
	return reconcileScene(s, []string{ka, kb}, opts)
}
