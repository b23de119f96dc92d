// Package cli implements the assessment command line.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/terra-clan/cyber-assessment/internal/config"
	"github.com/terra-clan/cyber-assessment/internal/questions"
)

var rootCmd = &cobra.Command{
	Use:          "assessment",
	Short:        "Cybersecurity maturity self-assessment",
	Long:         "Collects respondent details, walks through the weighted questionnaire, scores it and emails the report.",
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("questions", "", "Path to a question bank YAML file (overrides QUESTIONS_FILE)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(takeCmd)
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// loadBank returns the question bank using --questions (highest priority),
// then QUESTIONS_FILE, then the embedded bank.
func loadBank(cmd *cobra.Command, cfg *config.Config) (*questions.Bank, error) {
	if p, _ := cmd.Flags().GetString("questions"); p != "" {
		return questions.LoadFromFile(p)
	}
	if cfg != nil {
		return questions.Load(cfg.Questions.File)
	}
	return questions.LoadDefault()
}
