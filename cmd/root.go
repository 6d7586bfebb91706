// Package cmd wires up the command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lectern",
	Short: "Lectern - retrieval-augmented assistant for course materials",
	Long: `Lectern answers questions about course materials.

Course documents are chunked, embedded and stored in PostgreSQL with
pgvector. Questions are answered by a model that can search the indexed
content and fetch course outlines.

Run "lectern ingest" to index a course directory and "lectern serve" to
start the HTTP API.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// checkRequiredEnv verifies GEMINI_API_KEY is set before any command that
// talks to the provider starts, with setup instructions on failure.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Lectern requires a Gemini API key to answer questions and embed documents.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "To set your API key:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Get your API key at: https://ai.google.dev/")

		return fmt.Errorf("GEMINI_API_KEY not set")
	}
	return nil
}
