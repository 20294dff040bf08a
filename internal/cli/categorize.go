package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/boddenberg/family-finance-go/internal/analysis"
	"github.com/boddenberg/family-finance-go/internal/config"
)

func newCategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize DESCRIPTION...",
		Short: "Suggest a category for an expense description",
		Long: `Run the keyword categorizer over a description. The built-in keyword table
is used unless --rules (or CATEGORY_RULES_FILE) points at a TOML rule file.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if listRules, _ := cmd.Flags().GetBool("list-rules"); listRules {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: runCategorize,
	}
	cmd.Flags().Float64("amount", 0, "Expense amount in USD")
	cmd.Flags().Bool("list-rules", false, "Print the active keyword table instead of categorizing")
	cmd.Flags().String("rules", "", "TOML file of [[rules]] replacing the built-in keyword table")
	return cmd
}

func runCategorize(cmd *cobra.Command, args []string) error {
	amount, _ := cmd.Flags().GetFloat64("amount")
	rulesFile, _ := cmd.Flags().GetString("rules")
	if rulesFile == "" {
		rulesFile = config.Load().CategoryRulesFile
	}

	engine, err := newEngine(rulesFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listRules, _ := cmd.Flags().GetBool("list-rules"); listRules {
		printRules(out, engine.CategoryRules())
		return nil
	}

	s := engine.Categorize(strings.Join(args, " "), amount)
	fmt.Fprintf(out, "Category:    %s\n", s.Category)
	if s.Subcategory != "" {
		fmt.Fprintf(out, "Subcategory: %s\n", s.Subcategory)
	}
	fmt.Fprintf(out, "Confidence:  %.0f%%\n", s.Confidence*100)
	return nil
}

func printRules(out io.Writer, rules []analysis.CategoryRule) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tSUBCATEGORY\tCONFIDENCE\tKEYWORDS")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%s\t%.0f%%\t%s\n", r.Category, r.Subcategory, r.Confidence*100, strings.Join(r.Keywords, ", "))
	}
	w.Flush()
}
