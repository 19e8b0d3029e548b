package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vendaflow/funildash/internal/database"
	"github.com/vendaflow/funildash/internal/middleware"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
	Long: `Manage API keys used by integrations to push metric snapshots.

Keys are shown once at creation time; only their hash is stored.`,
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create <company>",
	Short: "Create an API key for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		empresaNome := args[0]

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		var empresaID uuid.UUID
		err := database.DB.QueryRow("SELECT id FROM empresas WHERE nome = $1", empresaNome).Scan(&empresaID)
		if err != nil {
			return fmt.Errorf("company '%s' not found", empresaNome)
		}

		nome, _ := cmd.Flags().GetString("nome")
		if nome == "" {
			nome = "integração"
		}

		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		key := "fd_" + hex.EncodeToString(buf)

		_, err = database.DB.Exec(`
			INSERT INTO chaves_api (empresa_id, nome, chave_hash)
			VALUES ($1, $2, $3)`,
			empresaID, nome, middleware.HashToken(key))
		if err != nil {
			return fmt.Errorf("failed to store key: %w", err)
		}

		fmt.Printf("✓ API key created for '%s'\n\n", empresaNome)
		fmt.Printf("  %s\n\n", key)
		fmt.Println("Store it now. It cannot be recovered later.")
		return nil
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		rows, err := database.DB.Query(`
			SELECT k.id, k.nome, e.nome, k.created_at
			FROM chaves_api k
			JOIN empresas e ON e.id = k.empresa_id
			ORDER BY k.created_at DESC`)
		if err != nil {
			return fmt.Errorf("failed to list keys: %w", err)
		}
		defer func() { _ = rows.Close() }()

		count := 0
		fmt.Printf("%-36s  %-20s  %-20s  %s\n", "ID", "Name", "Company", "Created")
		fmt.Println(strings.Repeat("-", 110))
		for rows.Next() {
			var id uuid.UUID
			var nome, empresa, createdAt string
			if err := rows.Scan(&id, &nome, &empresa, &createdAt); err != nil {
				return fmt.Errorf("failed to scan key: %w", err)
			}
			fmt.Printf("%-36s  %-20s  %-20s  %s\n", id, nome, empresa, createdAt)
			count++
		}
		if count == 0 {
			fmt.Println("(none)")
		}
		return rows.Err()
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("'%s' is not a valid key ID", args[0])
		}

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		result, err := database.DB.Exec("DELETE FROM chaves_api WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to revoke key: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return fmt.Errorf("key '%s' not found", id)
		}

		fmt.Printf("✓ API key '%s' revoked\n", id)
		return nil
	},
}

func init() {
	apikeyCreateCmd.Flags().StringP("nome", "n", "", "Label for the key")

	apikeyCmd.AddCommand(apikeyCreateCmd)
	apikeyCmd.AddCommand(apikeyListCmd)
	apikeyCmd.AddCommand(apikeyRevokeCmd)

	RootCmd.AddCommand(apikeyCmd)
}
