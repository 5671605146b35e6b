package multigit

import (
	"context"
	"strconv"
	"strings"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/reposcan"
	"github.com/dickon/multigit/internal/sequencer"
)

// safeBranch replaces spaces and dots with underscores so a branch name
// can appear inside a tag name.
func safeBranch(branch string) string {
	r := strings.NewReplacer(" ", "_", ".", "_")
	return r.Replace(branch)
}

// MakeTag renders a tag name from format, substituting BRANCH and INDEX.
func MakeTag(format, branch string, index int) string {
	tag := strings.ReplaceAll(format, "BRANCH", safeBranch(branch))
	tag = strings.ReplaceAll(tag, "INDEX", strconv.Itoa(index))
	return tag
}

// tagPresentAnywhere probes refs/tags/<name> in every repository, width at
// a time, and reports whether any repository has it.
func tagPresentAnywhere(ctx context.Context, repos []reposcan.Repository, name string, width int) (bool, error) {
	found, err := sequencer.Run(ctx, repos, width, func(ctx context.Context, repo reposcan.Repository) (bool, error) {
		_, present, err := gitcli.ShowRef(ctx, repo.Path, "refs/tags/"+name)
		return present, err
	})
	if err != nil {
		return false, err
	}
	for _, f := range found {
		if f {
			return true, nil
		}
	}
	return false, nil
}

// allocateTag finds the lowest unused tag index for branch, starting at
// *index, under an optimistic retry discipline: it probes every
// repository concurrently, and on any collision bumps *index and tries
// again. The shared counter is only advanced on a failed (colliding)
// attempt, never on success — the recommended resolution to the "index
// advancement on failure" open question (see DESIGN.md) — so it stays
// strictly non-decreasing across the orchestrator's lifetime.
func allocateTag(ctx context.Context, repos []reposcan.Repository, tagFormat, branch string, index *int, width int) (tag string, tagIndex int, err error) {
	for {
		candidate := MakeTag(tagFormat, branch, *index)
		present, err := tagPresentAnywhere(ctx, repos, candidate, width)
		if err != nil {
			return "", 0, err
		}
		if !present {
			return candidate, *index, nil
		}
		*index++
	}
}

// applyTag applies tag to branch's tip in every repository that contains
// branch, skipping repositories that lack it. If any per-repository tag
// operation fails, the error is returned so the caller can retry
// allocation with a higher index.
func applyTag(ctx context.Context, repos []reposcan.Repository, tag, branch string, width int) error {
	_, err := sequencer.Run(ctx, repos, width, func(ctx context.Context, repo reposcan.Repository) (struct{}, error) {
		branches, err := gitcli.Branch(ctx, repo.Path)
		if err != nil {
			return struct{}{}, err
		}
		if !containsString(branches, branch) {
			return struct{}{}, nil
		}
		return struct{}{}, gitcli.Tag(ctx, repo.Path, tag, branch)
	})
	return err
}

func containsString(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
