package reposcan

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/dickon/multigit/internal/testutil"
)

func TestScanFindsWorkingTreeAndBareRepos(t *testing.T) {
	root := t.TempDir()

	wt := filepath.Join(root, "alpha")
	os.MkdirAll(wt, 0o755)
	testutil.NewRepo(t, wt)

	bare := filepath.Join(root, "beta.git")
	os.MkdirAll(bare, 0o755)
	testutil.NewBareRepo(t, bare)

	notARepo := filepath.Join(root, "not-a-repo")
	os.MkdirAll(notARepo, 0o755)

	os.WriteFile(filepath.Join(root, "some-file"), []byte("x"), 0o644)

	repos, err := Scan(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("len(repos) = %d, want 2: %+v", len(repos), repos)
	}
	// sorted by path: alpha before beta.git
	if repos[0].Path != wt || repos[0].Kind != WorkingTree {
		t.Errorf("repos[0] = %+v", repos[0])
	}
	if repos[1].Path != bare || repos[1].Kind != Bare {
		t.Errorf("repos[1] = %+v", repos[1])
	}
}

func TestScanIgnoresByRegexp(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep")
	skip := filepath.Join(root, "skip-me")
	os.MkdirAll(keep, 0o755)
	os.MkdirAll(skip, 0o755)
	testutil.NewRepo(t, keep)
	testutil.NewRepo(t, skip)

	ignore := regexp.MustCompile("^skip-me$")
	repos, err := Scan(root, ignore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 1 || repos[0].Path != keep {
		t.Fatalf("repos = %+v", repos)
	}
}
