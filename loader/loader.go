package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nathoo/kaiwa/engine/state"
	lua "github.com/yuin/gopher-lua"
)

// gameFile always runs first so later files can rely on Game{} being set.
const gameFile = "game.lua"

// collector gathers the tables passed to the Lua constructors.
type collector struct {
	game       *lua.LTable
	rooms      []rawDef
	characters []rawDef
	quests     []rawDef
}

// ContentError reports a content file that failed to run.
type ContentError struct {
	File string
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.File, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }

// Load runs every .lua file in dir inside a sandbox and returns the compiled,
// validated room definitions.
func Load(dir string) (*state.Defs, error) {
	files, err := contentFiles(dir)
	if err != nil {
		return nil, err
	}

	coll := &collector{}
	L := newSandbox(coll)
	defer L.Close()

	for _, name := range files {
		if err := L.DoFile(filepath.Join(dir, name)); err != nil {
			return nil, &ContentError{File: name, Err: err}
		}
	}

	defs, refErrs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling content: %w", err)
	}
	if err := validate(defs, refErrs...); err != nil {
		return nil, err
	}
	return defs, nil
}

// contentFiles lists the .lua files in dir in execution order.
func contentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".lua") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	return executionOrder(names), nil
}

// executionOrder puts game.lua first and sorts the rest by name.
func executionOrder(names []string) []string {
	out := slices.Clone(names)
	slices.SortFunc(out, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == gameFile:
			return -1
		case b == gameFile:
			return 1
		}
		return strings.Compare(a, b)
	})
	return out
}

// contentLibs are the only standard libraries room scripts may use.
var contentLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// blockedGlobals reach the filesystem or bypass metatables.
var blockedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring",
	"rawset", "rawget", "rawequal",
	"collectgarbage", "require", "module",
}

// newSandbox returns a VM with only contentLibs open and the content
// constructors bound to coll.
func newSandbox(coll *collector) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range contentLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	registerAPI(L, coll)
	return L
}
