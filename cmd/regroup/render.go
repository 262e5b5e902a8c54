package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/lthms/regroup/internal/regroup"
	"github.com/lthms/regroup/internal/scene"
)

var (
	modelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	groupStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	brickStyle  = lipgloss.NewStyle()
	objectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	enumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89")).PaddingRight(1)
	plain       = lipgloss.NewStyle()
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// stdoutStyled reports whether stdout is a terminal, and its width.
func stdoutStyled() (bool, int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return true, 0
	}
	return true, w
}

// renderScene draws the hierarchy of s as a tree. Styling is only applied
// when styled is set; width > 0 truncates long lines.
func renderScene(s *scene.Scene, title string, styled bool, width int) string {
	t := tree.Root(title).Enumerator(tree.RoundedEnumerator)
	if styled {
		t = t.EnumeratorStyle(enumStyle).RootStyle(headerStyle)
	}
	for _, r := range s.Roots() {
		t.Child(renderNode(s, r, styled))
	}

	out := t.String()
	if width > 0 {
		lines := strings.Split(out, "\n")
		for i, line := range lines {
			lines[i] = ansi.Truncate(line, width, "…")
		}
		out = strings.Join(lines, "\n")
	}
	return out
}

func renderNode(s *scene.Scene, h scene.Handle, styled bool) any {
	label := nodeLabel(s, h, styled)
	children := s.Children(h)
	if len(children) == 0 {
		return label
	}
	t := tree.Root(label).Enumerator(tree.RoundedEnumerator)
	if styled {
		t = t.EnumeratorStyle(enumStyle)
	}
	for _, c := range children {
		t.Child(renderNode(s, c, styled))
	}
	return t
}

func nodeLabel(s *scene.Scene, h scene.Handle, styled bool) string {
	n := s.Node(h)
	style, extra := plain, dimStyle
	if styled {
		switch n.Kind {
		case scene.KindModel:
			style = modelStyle
		case scene.KindGroup:
			style = groupStyle
		case scene.KindBrick:
			style = brickStyle
		default:
			style = objectStyle
		}
	} else {
		extra = plain
	}

	var tags []string
	switch n.Kind {
	case scene.KindModel:
		tags = append(tags, "model", "pivot="+n.Model.Pivot.String())
		if n.Model.AutoGenerated {
			tags = append(tags, "auto")
		}
	case scene.KindGroup:
		tags = append(tags, "group")
		if n.Group.GroupName != "" && n.Group.GroupName != n.Name {
			tags = append(tags, "name="+n.Group.GroupName)
		}
		if n.Group.AutoGenerated {
			tags = append(tags, "auto")
		}
	case scene.KindBrick:
		tags = append(tags, "brick")
		if !s.ConnectivityEnabled(h) {
			tags = append(tags, "disconnected")
		}
	}
	if n.Prefab != scene.None {
		if n.Prefab == h {
			tags = append(tags, "prefab")
		} else if n.Override {
			tags = append(tags, "override")
		}
	}

	label := style.Render(n.Name)
	if n.Key != n.Name {
		label += " " + extra.Render("#"+n.Key)
	}
	if len(tags) > 0 {
		label += " " + extra.Render("("+strings.Join(tags, ", ")+")")
	}
	return label
}

// summarize formats a pass result on one line.
func summarize(res regroup.Result) string {
	return summarizeSkipped(res, len(res.Skipped))
}

// summarizeSkipped is summarize for results whose skipped bricks are only
// known by count, as in the pass history.
func summarizeSkipped(res regroup.Result, skipped int) string {
	if res.Guarded {
		return "skipped: isolated brick context"
	}
	parts := []string{fmt.Sprintf("%d clusters", res.Clusters)}
	for _, c := range []struct {
		n    int
		name string
	}{
		{res.Merged, "merged"},
		{res.Split, "split"},
		{res.Adopted, "adopted"},
		{res.Confirmed, "confirmed"},
		{res.Synthesized, "synthesized"},
		{res.Destroyed, "destroyed"},
		{res.Lifted, "unpacked"},
		{skipped, "skipped"},
	} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.name))
		}
	}
	if !res.Changed() {
		parts = append(parts, "no changes")
	}
	return strings.Join(parts, ", ")
}

// styleWarn highlights a warning line when styled.
func styleWarn(s string, styled bool) string {
	if !styled {
		return s
	}
	return warnStyle.Render(s)
}
