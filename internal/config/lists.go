package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"NewsAggregator/internal/ports"
)

// ReadList reads a list file: the first line holds the entry count and is skipped,
// every other non-blank line is one entry, trimmed.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []string
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		if line := strings.TrimSpace(sc.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return entries, nil
}

// ReadPathList reads a list of paths, resolving relative entries against the
// directory holding the list file.
func ReadPathList(path string) ([]string, error) {
	entries, err := ReadList(path)
	if err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	for i, e := range entries {
		if !filepath.IsAbs(e) {
			entries[i] = filepath.Join(base, e)
		}
	}
	return entries, nil
}

// Set is a read-only membership set.
type Set map[string]struct{}

// NewSet builds a set from entries.
func NewSet(entries ...string) Set {
	s := make(Set, len(entries))
	for _, e := range entries {
		s[e] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Constraints holds the permitted languages, interest categories and excluded words.
type Constraints struct {
	Languages  Set
	Categories Set
	Excluded   Set
}

var _ ports.Constraints = Constraints{}

func (c Constraints) PermittedLanguage(language string) bool { return c.Languages.Has(language) }
func (c Constraints) InterestCategory(category string) bool  { return c.Categories.Has(category) }
func (c Constraints) ExcludedWord(word string) bool          { return c.Excluded.Has(word) }

// LoadConstraints reads the inputs list file, whose first three entries name the
// languages, categories and excluded-words list files in that order.
func LoadConstraints(inputsPath string) (Constraints, error) {
	paths, err := ReadPathList(inputsPath)
	if err != nil {
		return Constraints{}, err
	}
	if len(paths) < 3 {
		return Constraints{}, fmt.Errorf("inputs list %s: expected 3 paths, got %d", inputsPath, len(paths))
	}

	sets := make([]Set, 3)
	for i, p := range paths[:3] {
		entries, err := ReadList(p)
		if err != nil {
			return Constraints{}, err
		}
		sets[i] = NewSet(entries...)
	}

	return Constraints{
		Languages:  sets[0],
		Categories: sets[1],
		Excluded:   sets[2],
	}, nil
}
