// Package revision inspects git repositories for untagged commits and
// enriches each with the metadata a change record needs.
package revision

import (
	"context"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/sequencer"
)

// Revision is a single commit, enriched with everything downstream
// consumers (the age gate, the describer) need. It is owned by the
// enclosing poll cycle and discarded once that cycle finishes.
type Revision struct {
	Hash       string
	Repo       string
	Branch     string
	Author     string
	Email      string
	Date       string
	CommitTime int64
	Message    string
	Files      []string
}

// Enrich fetches the metadata for a single revision: author, email, date,
// commit time, message, and changed files.
func Enrich(ctx context.Context, dir, hash string) (Revision, error) {
	summary, err := gitcli.ShowSummary(ctx, dir, hash)
	if err != nil {
		return Revision{}, err
	}
	files, err := gitcli.DiffRaw(ctx, dir, hash)
	if err != nil {
		return Revision{}, err
	}
	return Revision{
		Hash:       hash,
		Repo:       dir,
		Author:     summary.Author,
		Email:      summary.Email,
		Date:       summary.Date,
		CommitTime: summary.CommitTime,
		Message:    summary.Message,
		Files:      files,
	}, nil
}

// EnrichAll fetches metadata for every hash, width at a time.
func EnrichAll(ctx context.Context, dir string, hashes []string, width int) ([]Revision, error) {
	return sequencer.Run(ctx, hashes, width, func(ctx context.Context, hash string) (Revision, error) {
		return Enrich(ctx, dir, hash)
	})
}

// UntaggedOnBranch returns every revision reachable from branch but not
// from any tag in dir, enriched and attributed to branch.
func UntaggedOnBranch(ctx context.Context, dir, branch string, width int) ([]Revision, error) {
	hashes, err := gitcli.RevListNotTags(ctx, dir, branch)
	if err != nil {
		return nil, err
	}
	revs, err := EnrichAll(ctx, dir, hashes, width)
	if err != nil {
		return nil, err
	}
	for i := range revs {
		revs[i].Branch = branch
	}
	return revs, nil
}

// AssignToContainingBranches re-attributes rev to every branch that
// contains it (instead of the single branch the caller already knows
// about), filtered by ignore. This implements the "multi-branch
// attribution" variant: a revision reachable from more than one branch is
// returned once per containing branch.
func AssignToContainingBranches(ctx context.Context, rev Revision, ignore func(string) bool) ([]Revision, error) {
	branches, err := gitcli.BranchContains(ctx, rev.Repo, rev.Hash, ignore)
	if err != nil {
		return nil, err
	}
	out := make([]Revision, 0, len(branches))
	for _, b := range branches {
		copyRev := rev
		copyRev.Branch = b
		out = append(out, copyRev)
	}
	return out, nil
}
