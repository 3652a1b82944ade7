package harness

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/RI5255/tinywasm"
	"github.com/RI5255/tinywasm/log"
)

var (
	pass = color.New(color.FgGreen).SprintFunc()
	fail = color.New(color.FgRed).SprintFunc()
)

// Result is the outcome of one manifest command, reported by RunManifest's
// caller for display or counting.
type Result struct {
	Command Command
	Err     error // nil on pass or skip
	Skipped bool
}

// RunManifest loads the JSON manifest at path and runs its commands in
// order against a Store rebuilt by each "module" command. A failing
// command is logged and aggregated, never aborting the remaining
// commands.
//
// It returns every command's Result plus a combined error (built with
// multierr.Append) that is nil iff every non-skipped command passed.
func RunManifest(path string) ([]Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	manifest, err := ParseManifest(raw)
	if err != nil {
		return nil, err
	}

	log.Get().Infow("running manifest", "path", path, "commands", len(manifest.Commands))

	dir := filepath.Dir(path)
	var store *tinywasm.Store
	var results []Result
	var combined error

	for _, cmd := range manifest.Commands {
		res := runCommand(dir, &store, cmd)
		results = append(results, res)

		switch {
		case res.Skipped:
			log.Get().Debugw("skipped command", "type", cmd.Type, "line", cmd.Line)
		case res.Err != nil:
			fmt.Printf("%s: type: %s, line: %.0f: %v\n", fail("Failed"), cmd.Type, cmd.Line, res.Err)
			log.Get().Warnw("command failed", "type", cmd.Type, "line", cmd.Line, "error", res.Err)
			combined = multierr.Append(combined, res.Err)
		default:
			fmt.Printf("%s: type: %s, line: %.0f\n", pass("Pass"), cmd.Type, cmd.Line)
		}
	}

	return results, combined
}

func runCommand(dir string, store **tinywasm.Store, cmd Command) Result {
	switch cmd.Type {
	case "module":
		return Result{Command: cmd, Err: runModuleCommand(dir, store, cmd)}

	case "assert_return":
		return Result{Command: cmd, Err: runAssertReturn(*store, cmd)}

	default:
		// assert_trap, assert_invalid, assert_malformed, and friends name
		// behaviors this core's contract never promised; reported skipped
		// rather than silently dropped.
		return Result{Command: cmd, Skipped: true}
	}
}

func runModuleCommand(dir string, store **tinywasm.Store, cmd Command) error {
	wasmPath := filepath.Join(dir, cmd.Filename)
	bin, err := os.ReadFile(wasmPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", wasmPath, err)
	}
	m, err := tinywasm.Decode(bin)
	if err != nil {
		return err
	}
	s, err := tinywasm.Instantiate(m, tinywasm.NewRuntimeConfig())
	if err != nil {
		return err
	}
	*store = s
	return nil
}

func runAssertReturn(store *tinywasm.Store, cmd Command) error {
	if store == nil {
		return fmt.Errorf("assert_return before any module command")
	}
	if cmd.Action == nil || cmd.Action.Type != "invoke" {
		return fmt.Errorf("unsupported action %+v", cmd.Action)
	}

	args := make([]tinywasm.Value, len(cmd.Action.Args))
	for i, a := range cmd.Action.Args {
		v, err := a.ToValue()
		if err != nil {
			return fmt.Errorf("arg %d: %w", i, err)
		}
		args[i] = v
	}

	results, err := store.Invoke(cmd.Action.Field, args...)
	if err != nil {
		return err
	}

	if len(results) != len(cmd.Expected) {
		return fmt.Errorf("result count: want %d, got %d", len(cmd.Expected), len(results))
	}
	for i, exp := range cmd.Expected {
		want, err := exp.ToValue()
		if err != nil {
			return fmt.Errorf("expected %d: %w", i, err)
		}
		if results[i].I32 != want.I32 {
			return fmt.Errorf("result %d: want %d, got %d", i, want.I32, results[i].I32)
		}
	}
	return nil
}
