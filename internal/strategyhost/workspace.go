// Package strategyhost implements the Strategy Plugin Host of spec §4.5:
// an on-disk workspace of buildable strategy plugins, compiled with the
// Go toolchain into shared-object plugins, loaded through the standard
// library's plugin package. It implements backtest.Host.
package strategyhost

import (
	"fmt"
	"os"
	"path/filepath"
)

// workspaceDirName mirrors the original's STRATEGY_WORKDIR_NAME.
const workspaceDirName = "strategies"

// scaffoldTemplate is the member source every new strategy starts from
// — it compiles as-is (a no-op Tick) and exports the symbol the host
// looks up after building. A real strategy author edits this file in
// place. %s is the plugin host's module path, so the scaffold can
// import backtest.StrategyAccount regardless of where this repo lives
// on disk.
const scaffoldTemplate = `package main

import "%s/internal/backtest"

// strategy is scaffolded by strategyhost.Workspace.Add; implement Tick
// to observe and mutate the account each bar.
type strategy struct{}

func (strategy) Tick(account *backtest.StrategyAccount) error {
	return nil
}

// PluginCreate is the exported symbol the host looks up after building
// this plugin, mirroring the original's _plugin_create constructor.
var PluginCreate = func() backtest.Strategy { return strategy{} }
`

// Workspace manages the on-disk strategies/ directory: one member
// directory per strategy, each a buildable Go plugin package.
type Workspace struct {
	dir        string
	modulePath string
}

// NewWorkspace ensures strategies/ exists under baseDir and returns a
// Workspace rooted there, grounded on StrategyManager::new. modulePath
// is this repo's own module path (e.g. "merco-go"), used to scaffold
// strategies that import internal/backtest.
func NewWorkspace(baseDir, modulePath string) (*Workspace, error) {
	dir := filepath.Join(baseDir, workspaceDirName)
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("strategyhost: %s exists and is not a directory", dir)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("strategyhost: create workspace: %w", err)
		}
	} else {
		return nil, fmt.Errorf("strategyhost: stat workspace: %w", err)
	}
	return &Workspace{dir: dir, modulePath: modulePath}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// MemberDir returns the on-disk directory for a named strategy.
func (w *Workspace) MemberDir(name string) string {
	return filepath.Join(w.dir, name)
}

// Add scaffolds a new strategy member directory, grounded on
// StrategyManager::add_strategy. Returns an error if the name is
// already in use.
func (w *Workspace) Add(name string) error {
	dir := w.MemberDir(name)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("strategyhost: strategy %q already exists", name)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("strategyhost: stat %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("strategyhost: create %s: %w", dir, err)
	}
	mainPath := filepath.Join(dir, "main.go")
	scaffold := fmt.Sprintf(scaffoldTemplate, w.modulePath)
	if err := os.WriteFile(mainPath, []byte(scaffold), 0o644); err != nil {
		return fmt.Errorf("strategyhost: write scaffold: %w", err)
	}
	return nil
}

// Exists reports whether a strategy member directory has already been
// scaffolded.
func (w *Workspace) Exists(name string) bool {
	info, err := os.Stat(w.MemberDir(name))
	return err == nil && info.IsDir()
}
