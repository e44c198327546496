// Package cmd contains the quill command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Quill - conversational AI chat backend",
	Long: `Quill is the backend for a browser-based AI chat application.

It orchestrates conversations against a Gemini model, with optional
web search tool calling, agent personas, and PostgreSQL persistence.

Run "quill serve" to start the HTTP API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
