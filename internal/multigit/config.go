// Package multigit implements the poll-cycle core: it watches a directory
// of local Git repositories, detects quiescent untagged commits on
// matching branches, allocates and applies a fresh cross-repository tag,
// and summarises the tagged range into a ChangeRecord handed to a Sink.
package multigit

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dickon/multigit/internal/revision"
)

// Config holds every option recognised by the orchestrator (§6).
type Config struct {
	// RepositoriesDirectory is the root scanned for repositories. Required.
	RepositoriesDirectory string

	// TagFormat is the tag name template; BRANCH and INDEX are replaced
	// with the branch-safe name and the decimal index. Default "BRANCH-INDEX".
	TagFormat string

	// AgeRequirement is how old a revision on a branch must be before it
	// triggers tagging; one revision at least this old qualifies the branch.
	AgeRequirement time.Duration

	// TagStartingIndex is the initial value of the shared index counter.
	TagStartingIndex int

	// PollInterval is a driver-facing hint; the core does not use it to
	// schedule itself.
	PollInterval time.Duration

	// AutoFetch runs `git fetch` in every repository at the start of each
	// cycle.
	AutoFetch bool

	// IgnoreRepositoriesRegexp, anchored full-match against a repository
	// directory's base name.
	IgnoreRepositoriesRegexp string

	// IgnoreBranchesRegexp, anchored full-match against a branch name.
	IgnoreBranchesRegexp string

	// NonScanBranchesRegexp names branches that are never scanned for new
	// revisions. Such a branch gets a tag of its own only when
	// MultiBranchAttribution attributes a scanned branch's untagged
	// revision to it; with MultiBranchAttribution off it is never tagged.
	NonScanBranchesRegexp string

	// Project is a free-form label copied into every emitted change.
	Project string

	// SequencerWidth bounds concurrent subprocesses. Default 2.
	SequencerWidth int

	// MultiBranchAttribution selects the revision-attribution variant: when
	// true, a revision reachable from several branches is attributed to
	// every one of them (via `git branch --contains`); when false (the
	// default) it is attributed only to the branch whose rev-list found
	// it. This is documented in DESIGN.md as an open-question config
	// choice rather than silently picked.
	MultiBranchAttribution bool

	// NewRevisionCallback is invoked synchronously for every untagged
	// revision observed, before the age gate is applied.
	NewRevisionCallback func(revision.Revision)
	// NewTagCallback is invoked synchronously when a tag is created,
	// with the rendered tag name and the branch it names.
	NewTagCallback func(tag, branch string)
	// StatusCallback is invoked synchronously with human-readable trace
	// messages as the state machine progresses.
	StatusCallback func(string)

	ignoreRepositories *regexp.Regexp
	ignoreBranches     *regexp.Regexp
	nonScanBranches    *regexp.Regexp
}

func anchor(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile("^(?:" + pattern + ")$")
}

// Validate fills in defaults, compiles the configured regexps, and
// eagerly rejects a roots directory that cannot be read or a tag template
// missing the INDEX placeholder (promoted from the original's bare
// assertion into a returned ConfigurationError).
func (c *Config) Validate() error {
	if c.RepositoriesDirectory == "" {
		return fmt.Errorf("configuration error: repositories_directory is required")
	}
	if info, err := os.Stat(c.RepositoriesDirectory); err != nil || !info.IsDir() {
		return fmt.Errorf("configuration error: repositories_directory %q is not a readable directory", c.RepositoriesDirectory)
	}
	if c.TagFormat == "" {
		c.TagFormat = "BRANCH-INDEX"
	}
	if !strings.Contains(c.TagFormat, "INDEX") {
		return fmt.Errorf("configuration error: tag_format %q has no INDEX placeholder", c.TagFormat)
	}
	if c.TagStartingIndex == 0 {
		c.TagStartingIndex = 1
	}
	if c.SequencerWidth <= 0 {
		c.SequencerWidth = 2
	}

	var err error
	if c.ignoreRepositories, err = anchor(c.IgnoreRepositoriesRegexp); err != nil {
		return fmt.Errorf("configuration error: ignore_repositories_regexp: %w", err)
	}
	if c.ignoreBranches, err = anchor(c.IgnoreBranchesRegexp); err != nil {
		return fmt.Errorf("configuration error: ignore_branches_regexp: %w", err)
	}
	if c.nonScanBranches, err = anchor(c.NonScanBranchesRegexp); err != nil {
		return fmt.Errorf("configuration error: non_scan_branches_regexp: %w", err)
	}
	return nil
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}
