package multigit

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/reposcan"
	"github.com/dickon/multigit/internal/revision"
	"github.com/dickon/multigit/internal/sequencer"
)

// maxWalkSteps bounds how far findMostRecentTag will walk downward, to
// keep a pathological input from causing unbounded work.
const maxWalkSteps = 10000

// findMostRecentTag walks index, index-1, ... down to 0 looking for a
// rendered tag name present in at least one repository. It returns the
// name and index of the first one found, or ok=false if none exists down
// to (and including) index 0.
func findMostRecentTag(ctx context.Context, repos []reposcan.Repository, tagFormat, branch string, index, width int) (name string, foundIndex int, ok bool, err error) {
	steps := 0
	for i := index; i >= 0; i-- {
		if steps >= maxWalkSteps {
			return "", 0, false, nil
		}
		steps++
		candidate := MakeTag(tagFormat, branch, i)
		present, err := tagPresentAnywhere(ctx, repos, candidate, width)
		if err != nil {
			return "", 0, false, err
		}
		if present {
			return candidate, i, true, nil
		}
	}
	return "", 0, false, nil
}

// describeTag summarises the revisions newly covered by the tag just
// applied at index on branch, across every repository, relative to the
// most recent earlier tag on the same branch. If no earlier tag exists
// (the initial tag on a branch) it returns an empty ChangeRecord.
func describeTag(ctx context.Context, repos []reposcan.Repository, tagFormat, branch string, index, width int) (ChangeRecord, error) {
	tag := MakeTag(tagFormat, branch, index)

	offset := -1
	for {
		searchFrom := index + offset
		if searchFrom < 0 {
			return ChangeRecord{}, nil
		}
		prevName, _, found, err := findMostRecentTag(ctx, repos, tagFormat, branch, searchFrom, width)
		if err != nil {
			return ChangeRecord{}, err
		}
		if !found {
			return ChangeRecord{}, nil
		}

		revisions, err := collectRange(ctx, repos, tag, prevName, width)
		if err != nil {
			return ChangeRecord{}, err
		}
		if len(revisions) == 0 {
			log.Debugf("no revisions from %s to %s, offset %d", prevName, tag, offset)
			offset--
			continue
		}
		return summarise(tag, revisions), nil
	}
}

// collectRange enumerates, per repository, the revisions reachable from
// tag but not from prev, and enriches them. A repository in which that
// rev-list fails (for instance because either ref cannot be resolved
// there) is treated as contributing no revisions and the failure is only
// logged as a warning, matching the original's per-repository error
// suppression for this call.
func collectRange(ctx context.Context, repos []reposcan.Repository, tag, prev string, width int) ([]revision.Revision, error) {
	perRepo, err := sequencer.Run(ctx, repos, width, func(ctx context.Context, repo reposcan.Repository) ([]revision.Revision, error) {
		hashes, err := gitcli.RevListNot(ctx, repo.Path, tag, prev)
		if err != nil {
			log.Warnf("rev-list %s..%s failed in %s: %v", prev, tag, repo.Path, err)
			return nil, nil
		}
		return revision.EnrichAll(ctx, repo.Path, hashes, width)
	})
	if err != nil {
		return nil, err
	}
	var all []revision.Revision
	for _, revs := range perRepo {
		all = append(all, revs...)
	}
	return all, nil
}

func summarise(tag string, revisions []revision.Revision) ChangeRecord {
	sorted := make([]revision.Revision, len(revisions))
	copy(sorted, revisions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CommitTime < sorted[j].CommitTime })

	authorSet := map[string]bool{}
	fileSet := map[string]bool{}
	var when int64
	var blocks []string
	for _, rev := range sorted {
		authorSet[rev.Author] = true
		for _, f := range rev.Files {
			fileSet[f] = true
		}
		if rev.CommitTime > when {
			when = rev.CommitTime
		}
		short := rev.Hash
		if len(short) > 8 {
			short = short[:8]
		}
		blocks = append(blocks, short+" "+rev.Author+" on "+filepath.Base(rev.Repo)+" at "+rev.Date+":\n"+rev.Message)
	}

	return ChangeRecord{
		Revision: tag,
		Author:   strings.Join(sortedKeys(authorSet), ", "),
		When:     when,
		Files:    sortedKeys(fileSet),
		Comments: strings.Join(blocks, "\n"),
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
