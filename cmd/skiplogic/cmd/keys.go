package cmd

import (
	"fmt"

	"github.com/solatis/skiplogic/internal/core/auth"
	"github.com/solatis/skiplogic/internal/core/config"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage sync API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue an API key for a workspace",
	Args:  cobra.NoArgs,
	RunE:  runKeysCreate,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the API keys of a workspace",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var keysSecretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate an HMAC secret for SKIPLOGIC_HMAC_SECRET",
	Args:  cobra.NoArgs,
	RunE:  runKeysSecret,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysListCmd, keysRevokeCmd, keysSecretCmd)

	keysCreateCmd.Flags().String("workspace", "", "workspace the key grants access to")
	keysCreateCmd.Flags().String("name", "", "human-readable key name")
	_ = keysCreateCmd.MarkFlagRequired("workspace")
	keysListCmd.Flags().String("workspace", "", "workspace to list")
	_ = keysListCmd.MarkFlagRequired("workspace")
}

func openKeyStore() (*auth.KeyStore, func() error, error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	database, queries, err := openSQL()
	if err != nil {
		return nil, nil, err
	}
	return auth.NewKeyStore(secrets, queries), database.Close, nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	workspace, _ := cmd.Flags().GetString("workspace")
	name, _ := cmd.Flags().GetString("name")

	keys, closeDB, err := openKeyStore()
	if err != nil {
		return err
	}
	defer closeDB()

	issued, err := keys.Issue(cmd.Context(), workspace, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("id"), issued.ID)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("workspace"), issued.Workspace)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("key"), titleStyle.Render(issued.Key))
	fmt.Fprintln(out, "store this key now; it cannot be shown again")
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	workspace, _ := cmd.Flags().GetString("workspace")

	keys, closeDB, err := openKeyStore()
	if err != nil {
		return err
	}
	defer closeDB()

	infos, err := keys.List(cmd.Context(), workspace)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "no API keys")
		return nil
	}
	for _, k := range infos {
		state := matchStyle.Render("active")
		if k.Revoked() {
			state = missStyle.Render("revoked")
		}
		lastUsed := "never used"
		if k.LastUsedAt.Valid {
			lastUsed = "last used " + k.LastUsedAt.String
		}
		fmt.Fprintf(out, "%s  %s  %s  %s\n", k.ID, state, k.Name, labelStyle.Render(lastUsed))
	}
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	keys, closeDB, err := openKeyStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := keys.Revoke(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}

func runKeysSecret(cmd *cobra.Command, args []string) error {
	_, value, err := auth.GenerateSecret()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s_HMAC_SECRET=%s\n", config.EnvPrefix, value)
	return nil
}
