package strategyhost

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"

	"merco-go/internal/backtest"
)

// pluginSymbol is the exported constructor every built strategy plugin
// must provide, grounded on the original's PLUGIN_CREATE_FUNCTION_NAME
// ("_plugin_create").
const pluginSymbol = "PluginCreate"

// Host builds and loads strategy plugins out of a Workspace, implementing
// backtest.Host. Each Load triggers a fresh `go build -buildmode=plugin`
// so edits to a strategy's source are picked up without restarting the
// server — the Go analogue of the original shelling out to `cargo build
// --release` per backtest run.
type Host struct {
	ws       *Workspace
	buildDir string
}

// NewHost builds a Host over the given Workspace. Compiled .so artifacts
// are written to buildDir (created on first use).
func NewHost(ws *Workspace, buildDir string) *Host {
	return &Host{ws: ws, buildDir: buildDir}
}

// libName derives the compiled artifact's filename from a strategy name,
// replacing hyphens with underscores since Go plugin filenames are plain
// identifiers.
func libName(strategyName string) string {
	safe := strings.ReplaceAll(strategyName, "-", "_")
	switch runtime.GOOS {
	case "darwin":
		return fmt.Sprintf("lib%s.dylib", safe)
	case "windows":
		return fmt.Sprintf("%s.dll", safe)
	default:
		return fmt.Sprintf("lib%s.so", safe)
	}
}

// Load compiles the named strategy's member directory into a plugin and
// opens it, returning a live backtest.Strategy. release is a no-op (Go's
// plugin package has no unload primitive) but is still returned and must
// be called, keeping the Host interface uniform across implementations
// that do need to release resources.
func (h *Host) Load(name string) (backtest.Strategy, func() error, error) {
	if !h.ws.Exists(name) {
		return nil, nil, fmt.Errorf("strategyhost: strategy %q not found", name)
	}

	libPath := filepath.Join(h.buildDir, libName(name))
	cmd := exec.Command("go", "build", "-buildmode=plugin", "-o", libPath, h.ws.MemberDir(name))
	cmd.Dir = h.ws.Dir()
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, nil, fmt.Errorf("strategyhost: build %q: %w: %s", name, err, out)
	}

	lib, err := plugin.Open(libPath)
	if err != nil {
		return nil, nil, fmt.Errorf("strategyhost: open %q: %w", libPath, err)
	}

	sym, err := lib.Lookup(pluginSymbol)
	if err != nil {
		return nil, nil, fmt.Errorf("strategyhost: lookup %s in %q: %w", pluginSymbol, name, err)
	}

	constructor, ok := sym.(func() backtest.Strategy)
	if !ok {
		if ptr, ok := sym.(*func() backtest.Strategy); ok {
			constructor = *ptr
		} else {
			return nil, nil, fmt.Errorf("strategyhost: %s in %q has unexpected type %T", pluginSymbol, name, sym)
		}
	}

	return construct(constructor)
}

// construct isolates the plugin constructor call, converting a panicking
// or misbehaving plugin into an error instead of crashing the host
// process — the isolation guarantee spec §4.5 requires of every plugin.
func construct(constructor func() backtest.Strategy) (strategy backtest.Strategy, release func() error, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategyhost: plugin constructor panicked: %v", r)
		}
	}()
	strategy = constructor()
	if strategy == nil {
		return nil, nil, fmt.Errorf("strategyhost: plugin constructor returned nil")
	}
	return strategy, func() error { return nil }, nil
}
