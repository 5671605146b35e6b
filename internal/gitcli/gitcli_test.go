// This file exercises gitcli's exported surface against the real git
// binary, via internal/testutil fixtures. It lives in the external
// gitcli_test package (rather than gitcli) because testutil itself is
// built on gitcli.Init — an internal test file here would form an import
// cycle (gitcli -> testutil -> gitcli).
package gitcli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/testutil"
)

func TestShowRefMissing(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)

	_, found, err := gitcli.ShowRef(context.Background(), dir, "refs/tags/nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected ref to be absent")
	}
}

func TestShowRefFound(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)
	testutil.Tag(t, dir, "v1")

	hash, found, err := gitcli.ShowRef(context.Background(), dir, "refs/tags/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected ref to be found")
	}
	if len(hash) != 40 {
		t.Errorf("hash = %q, want a 40-char sha", hash)
	}
}

func TestDiffRawRootCommitHasNoParent(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)
	head := testutil.Head(t, dir)

	files, err := gitcli.DiffRaw(context.Background(), dir, head)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if files != nil {
		t.Errorf("files = %v, want nil for a root commit", files)
	}
}

func TestDiffRawReportsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)
	testutil.Commit(t, dir, "second")
	head := testutil.Head(t, dir)

	files, err := gitcli.DiffRaw(context.Background(), dir, head)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Error("expected at least one changed file")
	}
}

func TestRevListNotTags(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)
	testutil.Tag(t, dir, "tag1")
	testutil.Commit(t, dir, "xyzzy")
	testutil.Commit(t, dir, "e")

	hashes, err := gitcli.RevListNotTags(context.Background(), dir, "master")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("len(hashes) = %d, want 2", len(hashes))
	}
}

func TestBranch(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)
	testutil.Branch(t, dir, "branch2")
	testutil.Checkout(t, dir, "master")

	branches, err := gitcli.Branch(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]bool{"master": true, "branch2": true}
	if len(branches) != len(want) {
		t.Fatalf("branches = %v", branches)
	}
	for _, b := range branches {
		if !want[b] {
			t.Errorf("unexpected branch %q", b)
		}
	}
}

func TestTagCreatesAndRejectsDuplicate(t *testing.T) {
	dir := t.TempDir()
	testutil.NewRepo(t, dir)

	if err := gitcli.Tag(context.Background(), dir, "master-1", "master"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, found, err := gitcli.ShowRef(context.Background(), dir, "refs/tags/master-1")
	if err != nil || !found {
		t.Fatalf("tag was not created: found=%v err=%v", found, err)
	}

	if err := gitcli.Tag(context.Background(), dir, "master-1", "master"); err == nil {
		t.Error("expected a collision error when re-creating the same tag")
	}
}

func TestInitCreatesARepository(t *testing.T) {
	dir := t.TempDir()
	if err := gitcli.Init(context.Background(), dir, "-q", "-b", "master"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		t.Fatalf(".git was not created: %v", err)
	}
}
