package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/vendaflow/funildash/internal/database"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  `Manage funildash users via CLI. Create, list, and delete users.`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a new user",
	Long: `Create a new user attached to a company.

The company is looked up by name and created when it does not exist yet.

Example:
  funildash user create ana@agencia.com --empresa "Agência Alfa"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		if !strings.Contains(email, "@") {
			return fmt.Errorf("'%s' does not look like an email address", email)
		}

		empresaNome, _ := cmd.Flags().GetString("empresa")
		if empresaNome == "" {
			return fmt.Errorf("--empresa is required")
		}

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		var exists bool
		err := database.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM usuarios WHERE email = $1)", email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if exists {
			return fmt.Errorf("user '%s' already exists", email)
		}

		empresaID, err := findOrCreateEmpresa(empresaNome)
		if err != nil {
			return err
		}

		nome, _ := cmd.Flags().GetString("nome")
		if nome == "" {
			fmt.Print("Full name (optional): ")
			reader := bufio.NewReader(os.Stdin)
			nome, _ = reader.ReadString('\n')
			nome = strings.TrimSpace(nome)
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		confirmPassword, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}

		if password != confirmPassword {
			return fmt.Errorf("passwords do not match")
		}
		if len(password) < 8 {
			return fmt.Errorf("password must be at least 8 characters long")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		var user struct {
			ID        uuid.UUID
			Email     string
			CreatedAt string
		}
		err = database.DB.QueryRow(`
			INSERT INTO usuarios (nome, email, senha_hash, empresa_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, email, created_at`,
			nome, email, string(hash), empresaID).
			Scan(&user.ID, &user.Email, &user.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("\n✓ User created successfully\n")
		fmt.Printf("  ID:      %s\n", user.ID)
		fmt.Printf("  Email:   %s\n", user.Email)
		fmt.Printf("  Company: %s (%s)\n", empresaNome, empresaID)
		fmt.Printf("  Created: %s\n", user.CreatedAt)

		return nil
	},
}

func findOrCreateEmpresa(nome string) (uuid.UUID, error) {
	var id uuid.UUID
	err := database.DB.QueryRow("SELECT id FROM empresas WHERE nome = $1", nome).Scan(&id)
	if err == nil {
		return id, nil
	}

	err = database.DB.QueryRow(
		"INSERT INTO empresas (nome) VALUES ($1) RETURNING id", nome).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create company: %w", err)
	}
	fmt.Printf("✓ Company '%s' created\n", nome)
	return id, nil
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long:  `List all users with the company they belong to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		type userRow struct {
			ID        uuid.UUID
			Email     string
			Nome      string
			Empresa   string
			CreatedAt string
		}

		rows, err := database.DB.Query(`
			SELECT u.id, u.email, u.nome, e.nome, u.created_at
			FROM usuarios u
			JOIN empresas e ON e.id = u.empresa_id
			ORDER BY u.created_at DESC`)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		defer func() { _ = rows.Close() }()

		var users []userRow
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Email, &u.Nome, &u.Empresa, &u.CreatedAt); err != nil {
				return fmt.Errorf("failed to scan user: %w", err)
			}
			users = append(users, u)
		}
		if err = rows.Err(); err != nil {
			return fmt.Errorf("error iterating users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}

		fmt.Printf("\nTotal users: %d\n\n", len(users))
		fmt.Printf("%-36s  %-28s  %-20s  %-20s  %s\n", "ID", "Email", "Name", "Company", "Created")
		fmt.Println(strings.Repeat("-", 130))
		for _, u := range users {
			nome := u.Nome
			if nome == "" {
				nome = "-"
			}
			fmt.Printf("%-36s  %-28s  %-20s  %-20s  %s\n", u.ID, u.Email, nome, u.Empresa, u.CreatedAt)
		}
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete a user",
	Long: `Delete a user by email.

This also deletes all sessions for the user.

Example:
  funildash user delete ana@agencia.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Printf("Are you sure you want to delete user '%s'? (yes/no): ", email)
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "yes" && response != "y" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		result, err := database.DB.Exec("DELETE FROM usuarios WHERE email = $1", email)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("user '%s' not found", email)
		}

		fmt.Printf("✓ User '%s' deleted successfully\n", email)
		return nil
	},
}

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Reset user password",
	Long: `Reset password for a user and invalidate their sessions.

Example:
  funildash user reset-password ana@agencia.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()

		var userID uuid.UUID
		err := database.DB.QueryRow("SELECT id FROM usuarios WHERE email = $1", email).Scan(&userID)
		if err != nil {
			return fmt.Errorf("user '%s' not found", email)
		}

		password, err := readPassword("New password: ")
		if err != nil {
			return err
		}

		confirmPassword, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}

		if password != confirmPassword {
			return fmt.Errorf("passwords do not match")
		}
		if len(password) < 8 {
			return fmt.Errorf("password must be at least 8 characters long")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		_, err = database.DB.Exec(
			"UPDATE usuarios SET senha_hash = $1 WHERE id = $2", string(hash), userID)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		if _, err = database.DB.Exec("DELETE FROM sessoes WHERE usuario_id = $1", userID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to invalidate sessions: %v\n", err)
		}

		fmt.Printf("✓ Password reset successfully for '%s'\n", email)
		fmt.Println("  All existing sessions have been invalidated")
		return nil
	},
}

// readPassword reads a password from stdin without echoing
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

func init() {
	userCreateCmd.Flags().StringP("empresa", "e", "", "Company name the user belongs to (required)")
	userCreateCmd.Flags().StringP("nome", "n", "", "User's full name")
	userDeleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userResetPasswordCmd)

	RootCmd.AddCommand(userCmd)
}
