package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/rules"
	"github.com/solatis/skiplogic/internal/types"
	"github.com/spf13/cobra"
)

var rulesetsCmd = &cobra.Command{
	Use:     "rulesets",
	Aliases: []string{"rs"},
	Short:   "Inspect and evaluate saved rule sets",
}

var rulesetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved rule sets with their summaries",
	Args:  cobra.NoArgs,
	RunE:  runRulesetsList,
}

var rulesetsShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one saved rule set",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesetsShow,
}

var rulesetsDeleteCmd = &cobra.Command{
	Use:   "delete [NAME]",
	Short: "Delete a saved rule set, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesetsDelete,
}

var rulesetsEvaluateCmd = &cobra.Command{
	Use:   "evaluate [NAME]",
	Short: "Evaluate saved rule sets against answers",
	Long: `Evaluate one saved rule set, or every saved rule set when NAME is omitted,
against answers given as --answer question=value. Repeat --answer for
multi-select questions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRulesetsEvaluate,
}

var rulesetsImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Save rule sets from a JSON document",
	Long: `Import one rule set document, or a JSON array of them, into the saved list.
Entries replace saved rule sets with the same name.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesetsImport,
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
	rulesetsCmd.AddCommand(rulesetsListCmd, rulesetsShowCmd, rulesetsDeleteCmd, rulesetsEvaluateCmd, rulesetsImportCmd)

	rulesetsDeleteCmd.Flags().Bool("all", false, "delete every saved rule set")
	rulesetsEvaluateCmd.Flags().StringArrayP("answer", "a", nil, "answer as question=value (repeatable)")
}

func runRulesetsList(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	sets, err := m.SavedGroups()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sets) == 0 {
		fmt.Fprintln(out, "no saved rule sets")
		return nil
	}
	f := rulegroup.NewFormatter(m.Catalog())
	for _, rs := range sets {
		renderSummaryLine(out, f, rs)
	}
	return nil
}

func runRulesetsShow(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	rs, err := m.SavedList().Find(args[0])
	if err != nil {
		return err
	}
	renderRuleSet(cmd.OutOrStdout(), rulegroup.NewFormatter(m.Catalog()), rs)
	return nil
}

func runRulesetsDelete(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if all == (len(args) == 1) {
		return fmt.Errorf("specify either NAME or --all")
	}

	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	if all {
		if err := m.DeleteAllSavedGroups(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "deleted all saved rule sets")
		return nil
	}

	if _, err := m.SavedList().Find(args[0]); err != nil {
		return err
	}
	if err := m.DeleteSavedGroup(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func runRulesetsEvaluate(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetStringArray("answer")
	answers, err := parseAnswerFlags(raw)
	if err != nil {
		return err
	}

	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	engine := rules.NewEngine(m.SavedList(), logger)
	var results []rules.MatchResult
	if len(args) == 1 {
		r, err := engine.Evaluate(args[0], answers)
		if err != nil {
			return err
		}
		results = []rules.MatchResult{r}
	} else {
		results, err = engine.EvaluateAll(answers)
		if err != nil {
			return err
		}
	}

	f := rulegroup.NewFormatter(m.Catalog())
	for _, r := range results {
		renderResult(cmd.OutOrStdout(), f, r)
	}
	return nil
}

// parseAnswerFlags turns question=value pairs into answers. Values for the
// same question accumulate in flag order.
func parseAnswerFlags(raw []string) (types.Answers, error) {
	answers := types.Answers{}
	for _, pair := range raw {
		question, value, ok := strings.Cut(pair, "=")
		question = strings.TrimSpace(question)
		if !ok || question == "" {
			return nil, fmt.Errorf("invalid answer %q (expected question=value)", pair)
		}
		answers[question] = append(answers[question], value)
	}
	return answers, nil
}

func runRulesetsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read rule sets: %w", err)
	}

	var sets []types.RuleSet
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &sets)
	} else {
		var rs types.RuleSet
		err = json.Unmarshal(trimmed, &rs)
		sets = []types.RuleSet{rs}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrMalformedDocument, err)
	}

	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	for _, rs := range sets {
		if _, err := rules.Compile(rs); err != nil {
			return fmt.Errorf("rule set %q: %w", rs.GroupName, err)
		}
		saved, err := m.SavedList().Upsert(rs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", saved.GroupName)
	}
	return nil
}
