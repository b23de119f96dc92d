package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terra-clan/cyber-assessment/internal/config"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the question bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		bank, err := loadBank(cmd, cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(bank.All())
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for i, q := range bank.All() {
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, q.ID, q.Text)
			for _, o := range q.Options {
				fmt.Fprintf(w, "\t%d\t%s\n", o.Weight, o.Label)
			}
		}
		fmt.Fprintf(w, "\nmaximum score: %d\n", bank.MaxScore())
		return w.Flush()
	},
}

func init() {
	questionsCmd.Flags().Bool("json", false, "Print the bank as JSON")
}
