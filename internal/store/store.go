// Package store keeps one JSON artifact per institution in a flat directory.
package store

import (
	"bytes"
	"encoding/json"
	"equivcrawl/internal/equiv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	fileSuffix = "_equiv_table.json"
)

// ErrNotFound is returned when no artifact exists for a key.
var ErrNotFound = errors.New("store: artifact not found")

// Dir is a directory of artifacts named `<key>_equiv_table.json`.
type Dir struct {
	path string
}

// Open prepares the artifact directory, creating it if needed.
func Open(path string) (Dir, error) {
	err := os.MkdirAll(path, 0755)
	if err != nil {
		return Dir{}, fmt.Errorf("create output directory: %w", err)
	}
	return Dir{path: path}, nil
}

func (d Dir) Path(key string) string {
	return filepath.Join(d.path, key+fileSuffix)
}

// Write stores the table under its school code, replacing any previous artifact.
func (d Dir) Write(table equiv.Table) error {
	if table.Rows == nil {
		table.Rows = []equiv.Row{}
	}
	serialized, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(d.Path(table.SchoolCode), serialized, 0644)
	if err != nil {
		return fmt.Errorf("write artifact %s: %w", table.SchoolCode, err)
	}
	return nil
}

var jsonNull = []byte("null")

// Read loads the artifact of `key`, ErrNotFound is returned if there is none.
func (d Dir) Read(key string) (equiv.Table, error) {
	contents, err := os.ReadFile(d.Path(key))
	if os.IsNotExist(err) {
		return equiv.Table{}, ErrNotFound
	}
	if err != nil {
		return equiv.Table{}, err
	}
	if bytes.Equal(bytes.TrimSpace(contents), jsonNull) {
		return equiv.Table{}, ErrNotFound
	}

	var table equiv.Table
	err = json.Unmarshal(contents, &table)
	if err != nil {
		return equiv.Table{}, fmt.Errorf("decode artifact %s: %w", key, err)
	}
	return table, nil
}

// Keys lists the keys of every artifact in ascending order.
func (d Dir) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(keys)
	return keys, nil
}
