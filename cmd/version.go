package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("Quill %s\n", AppVersion)
		cmd.Printf("Build Time: %s\n", BuildTime)
		cmd.Printf("Git Commit: %s\n", GitCommit)

		// Check API Key from environment (don't display full content)
		geminiKey := os.Getenv("GEMINI_API_KEY")
		if geminiKey != "" && len(geminiKey) >= 8 {
			cmd.Println(fmt.Sprintf("GEMINI_API_KEY: %s...%s (configured)",
				geminiKey[:4], geminiKey[len(geminiKey)-4:]))
		} else {
			cmd.Println("GEMINI_API_KEY: Not set")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
