// Package gitcli is a thin facade over the fixed vocabulary of git
// subcommands the core speaks: init, branch, show-ref, show --summary,
// rev-list, diff --raw, tag, fetch. Each function runs exactly one
// subprocess via procrunner and parses its textual output into a
// structured value, recovering the two shapes the core treats as data
// rather than error (a missing ref, a parentless diff).
package gitcli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dickon/multigit/internal/procrunner"
)

// Summary is the parsed output of `git show --summary <rev>`.
type Summary struct {
	Author     string
	Email      string
	Date       string
	CommitTime int64
	Message    string
}

func git(ctx context.Context, dir string, opts []procrunner.Option, args ...string) (*procrunner.Result, error) {
	argv := append([]string{"git"}, args...)
	return procrunner.Run(ctx, dir, argv, opts...)
}

func linesplitdropsplit(text string) [][]string {
	var out [][]string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, fields)
	}
	return out
}

// Init runs `git init` in dir, with any extra arguments (e.g. "-b",
// "master", or "--bare") appended. Used by test fixtures; the core itself
// never creates repositories.
func Init(ctx context.Context, dir string, args ...string) error {
	_, err := git(ctx, dir, nil, append([]string{"init"}, args...)...)
	return err
}

// ShowRef resolves ref to its hash. found is false, with a nil error, when
// git reports the ref absent via its exit-1-empty-stdout convention. Any
// other non-zero exit is returned as an error.
func ShowRef(ctx context.Context, dir, ref string) (hash string, found bool, err error) {
	result, err := git(ctx, dir, nil, "show-ref", ref)
	if err != nil {
		if exitErr, ok := err.(*procrunner.ExitError); ok {
			if exitErr.ExitCode == 1 && exitErr.Stdout == "" {
				return "", false, nil
			}
		}
		return "", false, err
	}
	lines := linesplitdropsplit(result.Stdout)
	if len(lines) == 0 || len(lines[0]) == 0 {
		return "", false, nil
	}
	return lines[0][0], true, nil
}

// ShowSummary runs `git show --summary <rev>` and parses the author,
// email, date, commit time and message body.
func ShowSummary(ctx context.Context, dir, rev string) (*Summary, error) {
	result, err := git(ctx, dir, nil, "show", "--summary", rev)
	if err != nil {
		return nil, err
	}
	return parseSummary(result.Stdout)
}

func parseSummary(stdout string) (*Summary, error) {
	lines := strings.Split(stdout, "\n")
	summary := &Summary{}

	for _, line := range lines {
		if strings.HasPrefix(line, "Author:") {
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				summary.Author = strings.Join(fields[1:len(fields)-1], " ")
				summary.Email = fields[len(fields)-1]
			}
			break
		}
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "Date:") {
			fields := strings.Fields(line)
			summary.Date = strings.Join(fields[1:], " ")
			ct, err := parseCommitTime(summary.Date)
			if err == nil {
				summary.CommitTime = ct
			}
			break
		}
	}

	// The message is the single paragraph between the first blank line
	// after the header and the next blank line.
	i := 0
	for i < len(lines) && lines[i] != "" {
		i++
	}
	i++
	j := i
	for j < len(lines) && lines[j] != "" {
		j++
	}
	var message string
	if i <= j && i <= len(lines) {
		end := j
		if end > len(lines) {
			end = len(lines)
		}
		if i < end {
			message = strings.Join(stripLeadingEachLine(lines[i:end]), "\n")
		}
	}
	summary.Message = truncateMessage(message)
	return summary, nil
}

func stripLeadingEachLine(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimLeft(l, " \t")
	}
	return out
}

func truncateMessage(message string) string {
	const limit = 4000
	if len(message) > limit {
		return message[:limit] + "..."
	}
	return message
}

// parseCommitTime parses git's Date: line, e.g.
// "Thu Jan 1 00:00:00 1970 +0000", into seconds since epoch. The sign of
// the trailing TZ offset is inverted exactly as spec'd: git's committer
// date line is read as if the numeric fields were UTC wall-clock, then the
// (sign-inverted) offset is applied.
func parseCommitTime(date string) (int64, error) {
	if len(date) < 6 {
		return 0, fmt.Errorf("date %q too short", date)
	}
	tz := date[len(date)-5:]
	datePart := date[:len(date)-6]
	if len(tz) != 5 {
		return 0, fmt.Errorf("malformed tz in date %q", date)
	}
	sign := tz[0]
	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(tz[3:5])
	if err != nil {
		return 0, err
	}
	magnitude := 3600*hours + 60*minutes
	var tzOffset int
	if sign == '+' {
		tzOffset = -magnitude
	} else {
		tzOffset = magnitude
	}

	t, err := time.Parse("Mon Jan 2 15:04:05 2006", datePart)
	if err != nil {
		return 0, err
	}
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return base.Unix() + int64(tzOffset), nil
}

// DiffRaw returns the paths changed by rev, computed against its first
// parent. A root commit (no parent) makes git exit 128 with "unknown
// revision"; this is treated as an empty file list, not an error. Paths
// are prefixed with the repository's base directory name so that the
// describer can report files unambiguously across repositories.
func DiffRaw(ctx context.Context, dir, rev string) ([]string, error) {
	result, err := git(ctx, dir, nil, "diff", "--raw", rev+"^1.."+rev)
	if err != nil {
		if exitErr, ok := err.(*procrunner.ExitError); ok {
			if exitErr.ExitCode == 128 && strings.Contains(exitErr.Stderr, "unknown revision") {
				return nil, nil
			}
		}
		return nil, err
	}
	base := filepath.Base(dir)
	var files []string
	for _, fields := range linesplitdropsplit(result.Stdout) {
		if len(fields) <= 5 {
			continue
		}
		path := strings.Join(fields[5:], " ")
		files = append(files, base+"/"+path)
	}
	return files, nil
}

// RevListNotTags returns the revisions reachable from branch but not from
// any tag, newest first, as git reports them.
func RevListNotTags(ctx context.Context, dir, branch string) ([]string, error) {
	result, err := git(ctx, dir, nil, "rev-list", branch, "--not", "--tags")
	if err != nil {
		return nil, err
	}
	return flattenFirstField(linesplitdropsplit(result.Stdout)), nil
}

// RevListNot returns the revisions reachable from `until` but not from
// `not`.
func RevListNot(ctx context.Context, dir, until, not string) ([]string, error) {
	result, err := git(ctx, dir, nil, "rev-list", until, "--not", not)
	if err != nil {
		return nil, err
	}
	return flattenFirstField(linesplitdropsplit(result.Stdout)), nil
}

func flattenFirstField(lines [][]string) []string {
	var out []string
	for _, fields := range lines {
		out = append(out, fields[0])
	}
	return out
}

// Branch returns the branch names present in dir.
func Branch(ctx context.Context, dir string) ([]string, error) {
	result, err := git(ctx, dir, nil, "branch")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, fields := range linesplitdropsplit(result.Stdout) {
		branches = append(branches, fields[len(fields)-1])
	}
	return branches, nil
}

// Tag runs `git tag -m <name> <name> <branch>`, creating an annotated tag
// at branch's tip. A non-zero exit (typically a collision with a tag
// another process just created) is returned as an error.
func Tag(ctx context.Context, dir, name, branch string) error {
	_, err := git(ctx, dir, nil, "tag", "-m", name, name, branch)
	return err
}

// Fetch runs `git fetch` in dir.
func Fetch(ctx context.Context, dir string) error {
	_, err := git(ctx, dir, nil, "fetch")
	return err
}

// BranchContains returns the branches containing rev, filtered by an
// optional ignore regexp applied to the branch name.
func BranchContains(ctx context.Context, dir, rev string, ignore func(string) bool) ([]string, error) {
	result, err := git(ctx, dir, nil, "branch", "--contains", rev)
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, fields := range linesplitdropsplit(result.Stdout) {
		name := fields[len(fields)-1]
		if ignore != nil && ignore(name) {
			continue
		}
		branches = append(branches, name)
	}
	return branches, nil
}
