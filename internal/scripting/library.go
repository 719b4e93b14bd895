// Package scripting runs map event scripts. Scripts are compiled once into a
// Library and every map runs them in its own VM, so a VM is only ever
// touched by the goroutine updating its map.
package scripting

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// Library holds compiled script chunks.
type Library struct {
	protos []*lua.FunctionProto
	names  []string
}

// scriptDirs are loaded after the top-level files, in this order.
var scriptDirs = []string{"core", "map", "instance", "battleground"}

// LoadLibrary compiles every .lua file in dir and its known subdirectories.
// A missing directory yields an empty library.
func LoadLibrary(dir string, log *zap.Logger) (*Library, error) {
	lib := &Library{}
	if dir == "" {
		return lib, nil
	}
	if err := lib.loadDir(dir, log); err != nil {
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	for _, sub := range scriptDirs {
		if err := lib.loadDir(filepath.Join(dir, sub), log); err != nil {
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return lib, nil
}

func (l *Library) loadDir(dir string, log *zap.Logger) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := l.compileFile(path); err != nil {
			return err
		}
		log.Debug("compiled lua script", zap.String("file", path))
	}
	return nil
}

func (l *Library) compileFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return fmt.Errorf("compile %s: %w", path, err)
	}
	l.protos = append(l.protos, proto)
	l.names = append(l.names, path)
	return nil
}

// AddSource compiles an in-memory chunk, used by tests and embedded defaults.
func (l *Library) AddSource(name, src string) error {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	l.protos = append(l.protos, proto)
	l.names = append(l.names, name)
	return nil
}

// Len returns the number of compiled chunks.
func (l *Library) Len() int { return len(l.protos) }
