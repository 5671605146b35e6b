package cmd

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dickon/multigit/internal/multigit"
	"github.com/dickon/multigit/internal/reposcan"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List the repositories multigit would scan, with diagnostic metadata",
	Run:   runRepos,
}

func init() {
	rootCmd.AddCommand(reposCmd)
}

// runRepos is a read-only diagnostic: unlike the poll path, which must
// speak to the real git binary so it can observe git's exit-code shaped
// sentinels (§4.2), this command opens each repository with go-git purely
// to print HEAD and a semver-classified tag summary for a human operator.
// It builds a throwaway Orchestrator purely to reuse its repository
// scan and its view of the last-seen tag per branch.
func runRepos(_ *cobra.Command, _ []string) {
	cfg := buildConfig()
	orchestrator, err := multigit.New(cfg, loggingSink{})
	if err != nil {
		log.Fatalln(err)
	}

	repos, err := orchestrator.Scan(context.Background())
	if err != nil {
		log.Fatalln("Cannot scan repositories:", err)
	}

	for _, repo := range repos {
		describeRepo(repo)
	}

	if tags := orchestrator.LatestTags(); len(tags) > 0 {
		fmt.Printf("last-known tags: %v\n", tags)
	}
}

func describeRepo(repo reposcan.Repository) {
	kind := "working tree"
	if repo.Kind == reposcan.Bare {
		kind = "bare"
	}
	fmt.Printf("%s (%s)\n", repo.Path, kind)

	r, err := git.PlainOpen(repo.Path)
	if err != nil {
		fmt.Printf("  (could not open with go-git: %v)\n", err)
		return
	}

	if head, err := r.Head(); err == nil {
		fmt.Printf("  HEAD: %s (%s)\n", head.Name().Short(), head.Hash())
	}

	tags, err := r.Tags()
	if err != nil {
		return
	}
	var releaseTags, generatedTags int
	_ = tags.ForEach(func(tag *plumbing.Reference) error {
		if _, err := semver.NewVersion(tag.Name().Short()); err == nil {
			releaseTags++
		} else {
			generatedTags++
		}
		return nil
	})
	fmt.Printf("  tags: %d semver release tags, %d multigit-generated tags\n", releaseTags, generatedTags)
}
