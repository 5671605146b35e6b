package multigit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/reposcan"
	"github.com/dickon/multigit/internal/testutil"
)

func TestMakeTag(t *testing.T) {
	cases := []struct {
		format, branch string
		index           int
		want            string
	}{
		{"BRANCH-INDEX", "master", 1, "master-1"},
		{"BRANCH-INDEX", "master", 2, "master-2"},
		{"release.candidate BRANCH INDEX", "my branch", 3, "release.candidate my_branch 3"},
	}
	for _, c := range cases {
		got := MakeTag(c.format, c.branch, c.index)
		if got != c.want {
			t.Errorf("MakeTag(%q, %q, %d) = %q, want %q", c.format, c.branch, c.index, got, c.want)
		}
	}
}

func twoRepoFixture(t *testing.T) []reposcan.Repository {
	t.Helper()
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	testutil.NewRepo(t, a)
	testutil.NewRepo(t, b)
	return []reposcan.Repository{{Path: a}, {Path: b}}
}

func TestAllocateTagFindsLowestUnusedIndex(t *testing.T) {
	repos := twoRepoFixture(t)
	index := 1
	tag, idx, err := allocateTag(context.Background(), repos, "BRANCH-INDEX", "master", &index, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != "master-1" || idx != 1 {
		t.Errorf("tag=%q idx=%d, want master-1/1", tag, idx)
	}
}

func TestAllocateTagSkipsCollidingIndex(t *testing.T) {
	repos := twoRepoFixture(t)
	testutil.Tag(t, repos[0].Path, "master-1")

	index := 1
	tag, idx, err := allocateTag(context.Background(), repos, "BRANCH-INDEX", "master", &index, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != "master-2" || idx != 2 {
		t.Errorf("tag=%q idx=%d, want master-2/2", tag, idx)
	}
	if index != 2 {
		t.Errorf("index = %d, want 2 (advanced on the failed attempt)", index)
	}
}

func TestApplyTagSkipsRepositoriesWithoutBranch(t *testing.T) {
	repos := twoRepoFixture(t)
	testutil.Branch(t, repos[0].Path, "feature")

	err := applyTag(context.Background(), repos, "feature-1", "feature", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, found, err := gitcli.ShowRef(context.Background(), repos[0].Path, "refs/tags/feature-1")
	if err != nil || !found {
		t.Errorf("tag missing in repo with the branch: found=%v err=%v", found, err)
	}
	_, found, err = gitcli.ShowRef(context.Background(), repos[1].Path, "refs/tags/feature-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("tag should not have been created in the repo without the branch")
	}
}
