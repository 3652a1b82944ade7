// Package harness runs a JSON test manifest against this module's public
// API: a "module" command loads and instantiates a .wasm file, and
// "assert_return" invokes an exported function and compares its results.
package harness

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/RI5255/tinywasm"
)

// Manifest is the top-level {"commands": [...]} document.
type Manifest struct {
	Commands []Command `json:"commands"`
}

// Command is one manifest entry. Only "module" and "assert_return" are
// recognized; any other Type is reported skipped — assert_trap,
// assert_invalid and friends are outside this core's contract.
type Command struct {
	Type     string    `json:"type"`
	Line     float64   `json:"line"`
	Filename string    `json:"filename"` // type == "module"
	Action   *Action   `json:"action"`   // type == "assert_return"
	Expected []ArgSpec `json:"expected"` // type == "assert_return"
}

// Action names the invocation an assert_return command drives.
type Action struct {
	Type  string    `json:"type"` // only "invoke" is supported
	Field string    `json:"field"`
	Args  []ArgSpec `json:"args"`
}

// ArgSpec is a {"type", "value"} pair as produced by wast2json. Only "i32"
// is understood in this core; other types decode but ToValue reports them
// unsupported.
type ArgSpec struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ToValue converts an ArgSpec to a tinywasm.Value.
func (a ArgSpec) ToValue() (tinywasm.Value, error) {
	if a.Type != "i32" {
		return tinywasm.Value{}, fmt.Errorf("unsupported value type %q", a.Type)
	}
	n, err := strconv.ParseInt(a.Value, 10, 64)
	if err != nil {
		return tinywasm.Value{}, fmt.Errorf("parsing i32 value %q: %w", a.Value, err)
	}
	return tinywasm.I32(int32(n)), nil
}

// ParseManifest decodes raw JSON into a Manifest.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
