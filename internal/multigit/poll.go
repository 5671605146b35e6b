package multigit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dickon/multigit/internal/gitcli"
	"github.com/dickon/multigit/internal/reposcan"
	"github.com/dickon/multigit/internal/revision"
	"github.com/dickon/multigit/internal/sequencer"
)

// Orchestrator is the top-level state machine: it re-scans repositories,
// optionally fetches, groups untagged revisions by branch, applies the age
// gate, and drives the allocator/applier/describer for each qualifying
// branch. It is serialised against re-entry by a single-acquirer mutex;
// an overlapping tick is skipped, not queued.
type Orchestrator struct {
	cfg  Config
	sink Sink

	mu           sync.Mutex
	tagIndex     int
	latestTag    map[string]string
	repositories []reposcan.Repository
	lastStatus   string
	lastFinish   time.Time
}

// New validates cfg and constructs an Orchestrator reporting to sink.
func New(cfg Config, sink Sink) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		cfg:       cfg,
		sink:      sink,
		tagIndex:  cfg.TagStartingIndex,
		latestTag: map[string]string{},
	}, nil
}

func (o *Orchestrator) status(message string) {
	o.lastStatus = message
	log.Debug(message)
	if o.cfg.StatusCallback != nil {
		o.cfg.StatusCallback(message)
	}
}

// Poll runs one poll cycle. skipped is true when another cycle was
// already in flight, in which case this call did nothing. A non-nil err
// is a CycleAborted failure; the orchestrator still records it as the
// last status so the next tick fires normally.
func (o *Orchestrator) Poll(ctx context.Context) (skipped bool, err error) {
	if !o.mu.TryLock() {
		return true, nil
	}
	defer o.mu.Unlock()

	pollStart := time.Now()
	o.status("start polling")

	defer func() {
		if err != nil {
			o.status(fmt.Sprintf("finished with error after %s: %v", time.Since(pollStart), err))
		} else {
			o.status(fmt.Sprintf("finished in %s", time.Since(pollStart)))
		}
		o.lastFinish = time.Now()
	}()

	repos, scanErr := reposcan.Scan(o.cfg.RepositoriesDirectory, o.cfg.ignoreRepositories)
	if scanErr != nil {
		return false, fmt.Errorf("scanning repositories: %w", scanErr)
	}
	o.repositories = repos
	o.status(fmt.Sprintf("examining %d repositories", len(repos)))

	if o.cfg.AutoFetch {
		o.status("fetching")
		if _, ferr := sequencer.Run(ctx, repos, o.cfg.SequencerWidth, func(ctx context.Context, repo reposcan.Repository) (struct{}, error) {
			return struct{}{}, gitcli.Fetch(ctx, repo.Path)
		}); ferr != nil {
			return false, fmt.Errorf("fetch: %w", ferr)
		}
	}

	o.status("examining branches")
	revisions, revErr := o.collectUntaggedRevisions(ctx, repos)
	if revErr != nil {
		return false, fmt.Errorf("looking for untagged revisions: %w", revErr)
	}

	o.status("creating tags")
	branches := o.qualifyingBranches(revisions, pollStart)
	for _, branch := range branches {
		if err := o.createTag(ctx, branch); err != nil {
			return false, fmt.Errorf("creating tag for %s: %w", branch, err)
		}
	}
	return false, nil
}

// collectUntaggedRevisions walks every repository's branches (skipping
// those matching the ignore-branch regexp), computes untagged revisions
// for the ones not matching non_scan_branches_regexp, and attributes each
// revision to one or more branches depending on MultiBranchAttribution.
func (o *Orchestrator) collectUntaggedRevisions(ctx context.Context, repos []reposcan.Repository) ([]revision.Revision, error) {
	var all []revision.Revision
	for _, repo := range repos {
		branches, err := gitcli.Branch(ctx, repo.Path)
		if err != nil {
			return nil, err
		}
		for _, branch := range branches {
			if matches(o.cfg.ignoreBranches, branch) {
				continue
			}
			if matches(o.cfg.nonScanBranches, branch) {
				continue
			}
			revs, err := revision.UntaggedOnBranch(ctx, repo.Path, branch, o.cfg.SequencerWidth)
			if err != nil {
				return nil, err
			}
			if o.cfg.MultiBranchAttribution {
				for _, rev := range revs {
					expanded, err := revision.AssignToContainingBranches(ctx, rev, func(b string) bool {
						return matches(o.cfg.ignoreBranches, b)
					})
					if err != nil {
						return nil, err
					}
					all = append(all, expanded...)
				}
			} else {
				all = append(all, revs...)
			}
		}
	}
	return all, nil
}

// qualifyingBranches applies the age gate: a branch qualifies for tagging
// in this cycle if any of its revisions is at least AgeRequirement seconds
// old as of pollStart. Every revision, regardless of age, is reported to
// NewRevisionCallback first. The returned branch names are sorted.
func (o *Orchestrator) qualifyingBranches(revisions []revision.Revision, pollStart time.Time) []string {
	o.status(fmt.Sprintf("checking %d revisions for being more than %s old", len(revisions), o.cfg.AgeRequirement))
	threshold := pollStart.Add(-o.cfg.AgeRequirement).Unix()

	branchSet := map[string]bool{}
	for _, rev := range revisions {
		if o.cfg.NewRevisionCallback != nil {
			o.cfg.NewRevisionCallback(rev)
		}
		if rev.CommitTime <= threshold {
			if !branchSet[rev.Branch] {
				o.status(fmt.Sprintf("will tag %s due to revision %s", rev.Branch, rev.Hash))
			}
			branchSet[rev.Branch] = true
		}
	}

	branches := make([]string, 0, len(branchSet))
	for b := range branchSet {
		branches = append(branches, b)
	}
	sort.Strings(branches)
	return branches
}

// createTag drives allocate -> apply -> describe -> emit for one branch,
// retrying allocation at a higher index whenever application collides with
// a tag created by another process between allocation and application.
func (o *Orchestrator) createTag(ctx context.Context, branch string) error {
	o.status(fmt.Sprintf("creating tag for %s", branch))

	var tag string
	var index int
	for {
		var err error
		tag, index, err = allocateTag(ctx, o.repositories, o.cfg.TagFormat, branch, &o.tagIndex, o.cfg.SequencerWidth)
		if err != nil {
			return err
		}

		o.status(fmt.Sprintf("creating tag %s", tag))
		if applyErr := applyTag(ctx, o.repositories, tag, branch, o.cfg.SequencerWidth); applyErr != nil {
			log.Warnf("failed to set tag %s, trying again with a higher index: %v", tag, applyErr)
			o.tagIndex = index + 1
			continue
		}
		break
	}

	record, err := describeTag(ctx, o.repositories, o.cfg.TagFormat, branch, index, o.cfg.SequencerWidth)
	if err != nil {
		return err
	}

	o.latestTag[branch] = tag
	record.Project = o.cfg.Project
	record.Branch = branch

	if o.cfg.NewTagCallback != nil {
		o.cfg.NewTagCallback(tag, branch)
	}
	return o.sink.RecordChange(ctx, record)
}

// Notify evaluates one branch of one repository outside the normal poll
// schedule: a filesystem watcher could call this when it observes a new
// commit, instead of waiting for the next tick. It reuses the same
// untagged-revision and age-gate pipeline as Poll.
func (o *Orchestrator) Notify(ctx context.Context, repoPath, branch string) error {
	revs, err := revision.UntaggedOnBranch(ctx, repoPath, branch, o.cfg.SequencerWidth)
	if err != nil {
		return err
	}
	for i := range revs {
		revs[i].Branch = branch
	}
	branches := o.qualifyingBranches(revs, time.Now())
	for _, b := range branches {
		if err := o.createTag(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Status returns a human-readable description of the orchestrator's
// current state, the Go equivalent of the original's describe().
func (o *Orchestrator) Status() string {
	since := "unrun"
	if !o.lastFinish.IsZero() {
		since = fmt.Sprintf("%s ago", time.Since(o.lastFinish).Round(time.Second))
	}
	return fmt.Sprintf("multigit for %q on %s: %s (last finished %s); tags: %v",
		o.cfg.Project, o.cfg.RepositoriesDirectory, o.lastStatus, since, o.latestTag)
}

// LatestTags returns a copy of the in-memory last-seen tag per branch.
func (o *Orchestrator) LatestTags() map[string]string {
	out := make(map[string]string, len(o.latestTag))
	for k, v := range o.latestTag {
		out[k] = v
	}
	return out
}

// Repositories returns the repositories discovered by the most recent
// Poll or Scan call.
func (o *Orchestrator) Repositories() []reposcan.Repository {
	return o.repositories
}

// Scan refreshes the orchestrator's repository list by re-scanning
// RepositoriesDirectory, without running a full poll cycle. It is used by
// tooling (the `repos` diagnostic, DescribeTag's lazy refresh) that needs
// an up-to-date repository list but not a full tag-creation cycle.
func (o *Orchestrator) Scan(ctx context.Context) ([]reposcan.Repository, error) {
	repos, err := reposcan.Scan(o.cfg.RepositoriesDirectory, o.cfg.ignoreRepositories)
	if err != nil {
		return nil, err
	}
	o.repositories = repos
	return repos, nil
}

// DescribeTag re-runs the tag describer (§4.8) for branch at index against
// the repository set from the most recent Poll (or a fresh scan if none
// has run yet). It is exposed for tooling that wants to inspect a
// previously applied tag's range without re-running the whole cycle.
func (o *Orchestrator) DescribeTag(ctx context.Context, branch string, index int) (ChangeRecord, error) {
	if len(o.repositories) == 0 {
		if _, err := o.Scan(ctx); err != nil {
			return ChangeRecord{}, err
		}
	}
	return describeTag(ctx, o.repositories, o.cfg.TagFormat, branch, index, o.cfg.SequencerWidth)
}
