package cmd

import (
	"github.com/spf13/viper"

	"github.com/dickon/multigit/internal/multigit"
)

// buildConfig assembles a multigit.Config from the bound cobra flags /
// viper keys (§6 of the Configuration options).
func buildConfig() multigit.Config {
	return multigit.Config{
		RepositoriesDirectory:    viper.GetString("repositories-directory"),
		TagFormat:                viper.GetString("tag-format"),
		AgeRequirement:           viper.GetDuration("age-requirement"),
		TagStartingIndex:         viper.GetInt("tag-starting-index"),
		PollInterval:             viper.GetDuration("poll-interval"),
		AutoFetch:                viper.GetBool("auto-fetch"),
		IgnoreRepositoriesRegexp: viper.GetString("ignore-repositories-regexp"),
		IgnoreBranchesRegexp:     viper.GetString("ignore-branches-regexp"),
		NonScanBranchesRegexp:    viper.GetString("non-scan-branches-regexp"),
		Project:                  viper.GetString("project"),
		SequencerWidth:           viper.GetInt("sequencer-width"),
		MultiBranchAttribution:   viper.GetBool("multi-branch-attribution"),
	}
}
