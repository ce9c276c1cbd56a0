package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var GitCommit string

var rootCmd = &cobra.Command{
	Use:   "autofinish",
	Short: "Plays course lesson videos and moves on to the next lesson",
	Long: `autofinish opens a course page in a browser, finds the lesson video two
iframes deep, plays it muted and clicks the next lesson once it ends.

Every page load starts a fresh session, so it keeps going until the last
lesson of the course.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the commit this binary was built from",
	Run: func(cmd *cobra.Command, args []string) {
		commit := GitCommit
		if commit == "" {
			commit = "unknown"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Commit version: %s\n", commit)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
