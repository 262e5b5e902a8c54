package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/gcfg/v2"

	"github.com/lthms/regroup/internal/scene"
)

// Config is the resolved regroup configuration.
type Config struct {
	Undo      bool    // attach a journal to every pass
	Epsilon   float64 // pivot moves shorter than this are skipped
	StorePath string
	Debug     bool
	LogFile   string // log destination of the MCP server
}

func defaultConfig() Config {
	return Config{
		Undo:      true,
		Epsilon:   scene.DefaultEpsilon,
		StorePath: expandHome("~/.local/share/regroup/scenes.db"),
		LogFile:   expandHome("~/.local/state/regroup/mcp.log"),
	}
}

// userConfigPath returns ~/.config/regroup/config, honouring XDG_CONFIG_HOME.
func userConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "regroup", "config")
	}
	return expandHome("~/.config/regroup/config")
}

const projectConfigPath = ".regroup/config"

// loadConfig reads the configuration. An explicit path replaces the user
// and project files and must exist. Otherwise the user file is read, then
// the project file, so project values win.
func loadConfig(explicit string) (Config, error) {
	var paths []string
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		paths = []string{explicit}
	} else {
		paths = []string{userConfigPath(), projectConfigPath}
	}

	merged := make(map[string][]string)
	for _, p := range paths {
		m, err := parseConfig(p, nil)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", p, err)
		}
		for k, vs := range m {
			merged[k] = append(merged[k], vs...)
		}
	}
	return hydrateConfig(merged), nil
}

// hydrateConfig resolves a parsed key map into a Config. Invalid values
// are logged and left at their default.
func hydrateConfig(m map[string][]string) Config {
	cfg := defaultConfig()
	if v := lastValue(m, "reconcile.undo"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Undo = b
		} else {
			slog.Warn("config: invalid reconcile.undo, keeping default", "value", v)
		}
	}
	if v := lastValue(m, "reconcile.epsilon"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Epsilon = f
		} else {
			slog.Warn("config: invalid reconcile.epsilon, keeping default", "value", v)
		}
	}
	if v := lastValue(m, "store.path"); v != "" {
		cfg.StorePath = expandHome(v)
	}
	if v := lastValue(m, "log.debug"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		} else {
			slog.Warn("config: invalid log.debug, keeping default", "value", v)
		}
	}
	if v := lastValue(m, "log.file"); v != "" {
		cfg.LogFile = expandHome(v)
	}
	return cfg
}

// lastValue returns the last value recorded for key, or "".
func lastValue(m map[string][]string, key string) string {
	vs := m[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

// parseConfig reads a git-style config file into a map from "section.key"
// (or "section.subsection.key") to every value assigned to it, in order.
// [include] and [includeIf "gitdir:..."] sections splice other files in at
// the point where they appear. seen guards against include cycles.
func parseConfig(file string, seen map[string]bool) (map[string][]string, error) {
	if seen == nil {
		seen = make(map[string]bool)
	}
	m := make(map[string][]string)
	if err := readConfig(m, file, seen); err != nil {
		return nil, err
	}
	return m, nil
}

func readConfig(m map[string][]string, file string, seen map[string]bool) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	if seen[abs] {
		slog.Debug("config: include cycle, skipping", "path", abs)
		return nil
	}
	seen[abs] = true

	f, err := os.Open(abs)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	return gcfg.ReadWithCallback(f, func(section, subsection, key, value string, blank bool) error {
		if key == "" {
			return nil
		}
		section = strings.ToLower(section)
		key = strings.ToLower(key)

		switch {
		case section == "include" && key == "path":
			return include(m, dir, value, seen)
		case section == "includeif" && key == "path":
			if !includeIfMatches(subsection) {
				return nil
			}
			return include(m, dir, value, seen)
		}

		if blank {
			value = "true"
		}
		name := section + "." + key
		if subsection != "" {
			name = section + "." + subsection + "." + key
		}
		m[name] = append(m[name], value)
		return nil
	})
}

// include reads an included file. Missing files are skipped.
func include(m map[string][]string, dir, file string, seen map[string]bool) error {
	file = expandHome(file)
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	err := readConfig(m, file, seen)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config: include not found, skipping", "path", file)
		return nil
	}
	return err
}

// includeIfMatches evaluates an includeIf condition. Only gitdir: is
// supported, with git's pattern rules.
func includeIfMatches(cond string) bool {
	pattern, ok := strings.CutPrefix(cond, "gitdir:")
	if !ok {
		slog.Debug("config: unsupported includeIf condition", "condition", cond)
		return false
	}
	out, err := exec.Command("git", "rev-parse", "--absolute-git-dir").Output()
	if err != nil {
		return false
	}
	gitDir := strings.TrimRight(string(out), "\n")

	pattern = expandHome(pattern)
	if !strings.HasPrefix(pattern, "/") {
		pattern = "**/" + pattern
	}
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	return matchPath(pattern, gitDir)
}

// matchPath matches an absolute slash-separated name against a gitdir
// pattern, where * matches within one component and ** matches zero or
// more components.
func matchPath(pattern, name string) bool {
	ok, err := doublestar.Match(strings.TrimPrefix(pattern, "/"), strings.TrimPrefix(name, "/"))
	return err == nil && ok
}

// expandHome replaces a leading ~ with $HOME in a path.
func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
