package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dickon/multigit/internal/multigit"
)

var watch bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run one poll cycle (or repeatedly with --watch)",
	Run:   runPoll,
}

func init() {
	pollCmd.Flags().BoolVar(&watch, "watch", false, "keep polling every --poll-interval instead of running once")
	rootCmd.AddCommand(pollCmd)
}

func runPoll(_ *cobra.Command, _ []string) {
	cfg := buildConfig()
	orchestrator, err := multigit.New(cfg, loggingSink{})
	if err != nil {
		log.Fatalln("Cannot build orchestrator:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !watch {
		pollOnce(ctx, orchestrator)
		return
	}

	interval := viper.GetDuration("poll-interval")
	if interval <= 0 {
		log.Fatalln("--watch requires a positive --poll-interval")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	pollOnce(ctx, orchestrator)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pollOnce(ctx, orchestrator)
		}
	}
}

func pollOnce(ctx context.Context, orchestrator *multigit.Orchestrator) {
	skipped, err := orchestrator.Poll(ctx)
	switch {
	case skipped:
		log.Warn("previous poll cycle still running, this tick was dropped")
	case err != nil:
		log.Errorln("poll cycle aborted:", err)
	default:
		log.Debug(orchestrator.Status())
		log.WithField("tags", orchestrator.LatestTags()).Debugf("tracking %d repositories", len(orchestrator.Repositories()))
	}
}
