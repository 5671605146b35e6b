package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "multigit",
	Short: "Tag quiescent commits across a fleet of Git repositories",
	Long: `multigit watches a directory of local Git repositories and, whenever
sufficiently old untagged commits appear on matching branches, allocates a
fresh tag name, applies it across every repository that carries the branch,
and reports a summary of the tagged range.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.multigit.yaml)")
	rootCmd.PersistentFlags().StringP("repositories-directory", "r", cwd, "directory containing the repositories to watch")
	rootCmd.PersistentFlags().String("tag-format", "BRANCH-INDEX", "tag name template; BRANCH and INDEX are substituted")
	rootCmd.PersistentFlags().Duration("age-requirement", 0, "how old an untagged revision on a branch must be before the branch is tagged")
	rootCmd.PersistentFlags().Int("tag-starting-index", 1, "initial value of the tag index counter")
	rootCmd.PersistentFlags().Duration("poll-interval", 0, "driver-facing hint: how often to poll")
	rootCmd.PersistentFlags().Bool("auto-fetch", false, "run git fetch in every repository at the start of each cycle")
	rootCmd.PersistentFlags().String("ignore-repositories-regexp", "", "anchored regexp matched against repository directory names to ignore")
	rootCmd.PersistentFlags().String("ignore-branches-regexp", "", "anchored regexp matched against branch names to ignore")
	rootCmd.PersistentFlags().String("non-scan-branches-regexp", "", "anchored regexp for branches never scanned for new revisions (tagged only via --multi-branch-attribution)")
	rootCmd.PersistentFlags().String("project", "", "free-form label copied into every emitted change")
	rootCmd.PersistentFlags().Int("sequencer-width", 2, "maximum number of concurrent git subprocesses")
	rootCmd.PersistentFlags().Bool("multi-branch-attribution", false, "attribute a revision to every branch that contains it, instead of only the branch that found it")

	err = rootCmd.MarkPersistentFlagDirname("repositories-directory")
	if err != nil {
		panic(err)
	}

	if err = viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".multigit" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".multigit")
	}

	viper.SetEnvPrefix("MULTIGIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
