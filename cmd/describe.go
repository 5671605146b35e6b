package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dickon/multigit/internal/multigit"
)

var describeCmd = &cobra.Command{
	Use:   "describe <branch> <index>",
	Short: "Render the change summary for a previously applied tag",
	Args:  cobra.ExactArgs(2),
	Run:   runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func runDescribe(_ *cobra.Command, args []string) {
	branch := args[0]
	index, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalln("Index must be an integer:", err)
	}

	cfg := buildConfig()
	orchestrator, err := multigit.New(cfg, loggingSink{})
	if err != nil {
		log.Fatalln("Cannot build orchestrator:", err)
	}

	record, err := orchestrator.DescribeTag(context.Background(), branch, index)
	if err != nil {
		log.Fatalln("Cannot describe tag:", err)
	}
	if record.Revision == "" {
		fmt.Println("No such tag, or no earlier tag to compare against.")
		return
	}

	fmt.Print(render(renderMarkdown(branch, record)))
}

func renderMarkdown(branch string, record multigit.ChangeRecord) string {
	titleCaser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", record.Revision)
	fmt.Fprintf(&b, "**Branch:** %s\n\n", titleCaser.String(branch))
	fmt.Fprintf(&b, "**Author:** %s\n\n", record.Author)
	fmt.Fprintf(&b, "**When:** %s\n\n", time.Unix(record.When, 0).Format(time.RFC1123))
	if len(record.Files) > 0 {
		fmt.Fprintf(&b, "**Files:**\n\n")
		for _, f := range record.Files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Comments\n\n")
	b.WriteString(record.Comments)
	b.WriteString("\n")
	return b.String()
}

// render turns Markdown into a terminal-friendly rendering, picking a
// style and wrap width from the output terminal the same way the
// teacher's changelog renderer did.
func render(markdown string) string {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	style := "auto"
	if !isTerminal {
		style = "notty"
	}

	var width uint
	if isTerminal {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil {
			width = uint(w)
		}
		if width > 120 {
			width = 120
		}
	}
	if width == 0 {
		width = 80
	}

	var gs glamour.TermRendererOption
	if style == "auto" {
		gs = glamour.WithEnvironmentConfig()
	} else {
		gs = glamour.WithStylePath(style)
	}
	r, err := glamour.NewTermRenderer(gs, glamour.WithWordWrap(int(width)), glamour.WithPreservedNewLines())
	if err != nil {
		log.Fatalln("Cannot create terminal renderer:", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		log.Fatalln("Cannot render summary:", err)
	}
	return out
}
