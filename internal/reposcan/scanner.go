// Package reposcan enumerates Git repositories directly under a roots
// directory.
package reposcan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Kind distinguishes a bare repository from one with a working tree.
type Kind int

const (
	// WorkingTree is a repository with a checked-out working tree
	// (".git/config" and ".git/refs" present).
	WorkingTree Kind = iota
	// Bare is a repository with no working tree ("config" and "refs"
	// present at its root).
	Bare
)

// Repository is a discovered Git repository.
type Repository struct {
	Path string
	Kind Kind
}

// Scan lists the direct children of root, filters them by the optional
// ignore regexp (full-match anchored against the entry's base name), and
// keeps only directories that look like a bare or working-tree repository.
// The result is sorted by absolute path, a contract consumers rely on for
// deterministic poll ordering.
func Scan(root string, ignore *regexp.Regexp) ([]Repository, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var repos []Repository
	for _, entry := range entries {
		if ignore != nil && ignore.MatchString(entry.Name()) {
			continue
		}
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if kind, ok := classify(path); ok {
			repos = append(repos, Repository{Path: path, Kind: kind})
		}
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })
	return repos, nil
}

func classify(path string) (Kind, bool) {
	if isFile(filepath.Join(path, "config")) && isDir(filepath.Join(path, "refs")) {
		return Bare, true
	}
	if isFile(filepath.Join(path, ".git", "config")) && isDir(filepath.Join(path, ".git", "refs")) {
		return WorkingTree, true
	}
	return 0, false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
