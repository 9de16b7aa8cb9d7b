// Package pullstate implements .txpull.lock — a state file that tracks
// checksums of the content last written for each resource and language.
// This lets a pull skip rewriting files whose merged content is
// unchanged, so output file timestamps only move when content does.
//
// The state file is stored alongside .txpull.yaml as .txpull.lock.
package pullstate

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileName is the default state file name.
const FileName = ".txpull.lock"

// Version is the state file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// State represents the .txpull.lock file structure.
type State struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // resource -> lang -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a state file from the given directory.
// Returns an empty state if the file doesn't exist.
func Load(dir string) (*State, error) {
	path := filepath.Join(dir, FileName)
	st := &State{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	st.path = path

	if st.Checksums == nil {
		st.Checksums = make(map[string]map[string]string)
	}

	return st, nil
}

// Save writes the state file to disk.
func (st *State) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.path == "" {
		return fmt.Errorf("state file path not set")
	}

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state file: %w", err)
	}

	if err := os.WriteFile(st.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", st.path, err)
	}

	return nil
}

// Path returns the state file path.
func (st *State) Path() string {
	return st.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// IsChanged reports whether the content for a resource/language differs
// from what was recorded at the last pull. Untracked entries are always
// changed.
func (st *State) IsChanged(resource, lang, content string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	langs, ok := st.Checksums[resource]
	if !ok {
		return true
	}
	oldHash, ok := langs[lang]
	if !ok {
		return true
	}
	return oldHash != Hash(content)
}

// Update records the checksum of the content written for a
// resource/language.
func (st *State) Update(resource, lang, content string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.Checksums[resource] == nil {
		st.Checksums[resource] = make(map[string]string)
	}
	st.Checksums[resource][lang] = Hash(content)
}

// Clean removes languages no longer pulled for a resource, so entries
// for deactivated languages don't accumulate.
func (st *State) Clean(resource string, currentLangs []string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	langs := st.Checksums[resource]
	if langs == nil {
		return
	}

	valid := make(map[string]bool, len(currentLangs))
	for _, l := range currentLangs {
		valid[l] = true
	}

	for l := range langs {
		if !valid[l] {
			delete(langs, l)
		}
	}
}

// RemoveResource removes all checksums for a resource.
func (st *State) RemoveResource(resource string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.Checksums, resource)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of resources and total languages tracked.
func (st *State) Stats() (resources, langs int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	resources = len(st.Checksums)
	for _, m := range st.Checksums {
		langs += len(m)
	}
	return
}

// Resources returns the sorted list of tracked resource IDs.
func (st *State) Resources() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	resources := make([]string, 0, len(st.Checksums))
	for r := range st.Checksums {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	return resources
}

// Summary returns a human-readable summary string.
func (st *State) Summary() string {
	resources, langs := st.Stats()
	if resources == 0 {
		return "empty"
	}

	var parts []string
	for _, r := range st.Resources() {
		parts = append(parts, fmt.Sprintf("%s: %d languages", r, len(st.Checksums[r])))
	}
	return fmt.Sprintf("%d resources, %d languages (%s)", resources, langs, strings.Join(parts, ", "))
}
