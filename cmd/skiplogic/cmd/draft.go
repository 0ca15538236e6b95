package cmd

import (
	"fmt"
	"time"

	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect and manage the rule set being edited",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftShow,
}

var draftResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the draft",
	Args:  cobra.NoArgs,
	RunE:  runDraftReset,
}

var draftSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the draft into the saved rule set list",
	Args:  cobra.NoArgs,
	RunE:  runDraftSave,
}

var draftEditCmd = &cobra.Command{
	Use:   "edit NAME",
	Short: "Load a saved rule set into the draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftEdit,
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftShowCmd, draftResetCmd, draftSaveCmd, draftEditCmd)

	draftSaveCmd.Flags().String("name", "", "rule set name (defaults to the draft's name)")
}

func runDraftShow(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	renderRuleSet(cmd.OutOrStdout(), rulegroup.NewFormatter(m.Catalog()), m.State().Snapshot(time.Time{}))
	return nil
}

func runDraftReset(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	m.Reset()
	if err := m.SaveToStorage(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "draft reset")
	return nil
}

func runDraftSave(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		if err := m.SetGroupName(name); err != nil {
			return err
		}
	}

	rs, err := m.SaveToGroupsList()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s at %s\n", rs.GroupName, savedAt(rs.SavedAt))
	return nil
}

func runDraftEdit(cmd *cobra.Command, args []string) error {
	m, backend, err := openManager()
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := m.EditSavedGroup(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "editing %s\n", args[0])
	return nil
}
