package gitcli

import (
	"strings"
	"testing"
)

func TestParseSummary(t *testing.T) {
	stdout := strings.Join([]string{
		"commit abc123",
		"Author: Jane Doe <jane@example.com>",
		"Date:   Thu Jan 1 00:00:00 1970 +0000",
		"",
		"    Initial commit",
		"",
		" file | 1 +",
		" 1 file changed, 1 insertion(+)",
	}, "\n")

	summary, err := parseSummary(stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Author != "Jane Doe" {
		t.Errorf("Author = %q, want %q", summary.Author, "Jane Doe")
	}
	if summary.Email != "<jane@example.com>" {
		t.Errorf("Email = %q, want %q", summary.Email, "<jane@example.com>")
	}
	if summary.CommitTime != 0 {
		t.Errorf("CommitTime = %d, want 0", summary.CommitTime)
	}
	if summary.Message != "Initial commit" {
		t.Errorf("Message = %q", summary.Message)
	}
}

func TestParseSummaryStripsIndentAndTruncates(t *testing.T) {
	longMessage := strings.Repeat("x", 5000)
	stdout := strings.Join([]string{
		"commit abc",
		"Author: A B <a@b.com>",
		"Date:   Thu Jan 1 00:00:00 1970 +0000",
		"",
		"    " + longMessage,
		"",
	}, "\n")
	summary, err := parseSummary(stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(summary.Message, "xxxx") {
		t.Errorf("leading indent not stripped: %q", summary.Message[:10])
	}
	if !strings.HasSuffix(summary.Message, "...") {
		t.Errorf("message not truncated with ellipsis")
	}
	if len(summary.Message) != 4003 {
		t.Errorf("len(Message) = %d, want 4003", len(summary.Message))
	}
}

func TestParseCommitTimePositiveOffset(t *testing.T) {
	// +0100 means local time is one hour ahead of UTC, so UTC seconds
	// should be one hour (3600s) earlier than the naive wall-clock read.
	ct, err := parseCommitTime("Thu Jan 1 01:00:00 1970 +0100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != 0 {
		t.Errorf("commit time = %d, want 0", ct)
	}
}

func TestParseCommitTimeNegativeOffset(t *testing.T) {
	ct, err := parseCommitTime("Wed Dec 31 23:00:00 1969 -0100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != 0 {
		t.Errorf("commit time = %d, want 0", ct)
	}
}
