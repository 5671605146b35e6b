// Package testutil builds throwaway Git repositories for tests by
// shelling out to the real git binary, the same one the production code
// drives — there is no fake-git library in this module's stack.
package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dickon/multigit/internal/gitcli"
)

// NewRepo creates a non-bare repository at dir with an initial commit
// named "foo" (adding one file) on master, and returns that commit's hash.
func NewRepo(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := gitcli.Init(context.Background(), dir, "-q", "-b", "master"); err != nil {
		t.Fatalf("git init %s: %v", dir, err)
	}
	run(t, dir, "config", "user.name", "Test User")
	run(t, dir, "config", "user.email", "test@example.com")
	run(t, dir, "config", "commit.gpgsign", "false")
	return Commit(t, dir, "foo")
}

// NewBareRepo creates a bare repository at dir.
func NewBareRepo(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := gitcli.Init(context.Background(), dir, "-q", "--bare"); err != nil {
		t.Fatalf("git init --bare %s: %v", dir, err)
	}
}

var commitCounter int

// Commit creates a new file with unique content and commits it with
// message, returning the new commit's hash.
func Commit(t *testing.T, dir, message string) string {
	t.Helper()
	commitCounter++
	name := fmt.Sprintf("file-%d.txt", commitCounter)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(message+"\n"), 0o644); err != nil {
		t.Fatalf("writing fixture file: %v", err)
	}
	run(t, dir, "add", name)
	run(t, dir, "commit", "-q", "-m", message)
	return strings.TrimSpace(runOutput(t, dir, "rev-parse", "HEAD"))
}

// Branch creates and checks out a new branch at HEAD.
func Branch(t *testing.T, dir, name string) {
	t.Helper()
	run(t, dir, "checkout", "-q", "-b", name)
}

// Checkout switches to an existing branch.
func Checkout(t *testing.T, dir, name string) {
	t.Helper()
	run(t, dir, "checkout", "-q", name)
}

// Tag creates a lightweight tag at HEAD.
func Tag(t *testing.T, dir, name string) {
	t.Helper()
	run(t, dir, "tag", name)
}

// Head returns the current commit hash.
func Head(t *testing.T, dir string) string {
	t.Helper()
	return strings.TrimSpace(runOutput(t, dir, "rev-parse", "HEAD"))
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	runOutput(t, dir, args...)
}

func runOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v in %s: %v\n%s", args, dir, err, out)
	}
	return string(out)
}
