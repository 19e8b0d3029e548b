package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/vendaflow/funildash/internal/config"
	"github.com/vendaflow/funildash/internal/database"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on a funildash installation",
	Long: `Run comprehensive health checks on a funildash installation.

Checks performed:
  - Database connection
  - PostgreSQL version ≥14
  - Database migrations completed
  - Required tables exist
  - Snapshot upsert key constraint exists
  - pgcrypto extension installed

Example:
  funildash doctor
  funildash doctor --json`,
	RunE: runDoctor,
}

type CheckResult struct {
	Name       string `json:"name"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

var requiredTables = []string{
	"empresas",
	"usuarios",
	"sessoes",
	"funis",
	"campanhas",
	"conjuntos_anuncio",
	"criativos",
	"metricas",
	"chaves_api",
}

func checkDatabaseConnection(db *sql.DB) CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return CheckResult{
			Name:       "Database Connection",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Verify DATABASE_URL and ensure PostgreSQL is running",
		}
	}
	return CheckResult{Name: "Database Connection", Pass: true}
}

func checkPostgreSQLVersion(db *sql.DB) CheckResult {
	var version string
	err := db.QueryRow("SHOW server_version").Scan(&version)
	if err != nil {
		return CheckResult{Name: "PostgreSQL Version", Pass: false, Error: err.Error()}
	}

	// Parse version (e.g., "16.4 (Debian 16.4-1)")
	parts := strings.Split(version, " ")
	versionNum := strings.Split(parts[0], ".")
	major, _ := strconv.Atoi(versionNum[0])

	if major < 14 {
		return CheckResult{
			Name:       "PostgreSQL Version",
			Pass:       false,
			Error:      fmt.Sprintf("Version %s found, need ≥14", parts[0]),
			Suggestion: "Upgrade PostgreSQL to version 14 or higher",
		}
	}
	return CheckResult{Name: "PostgreSQL Version", Pass: true, Details: parts[0]}
}

func checkMigrations(cfg *config.Config) CheckResult {
	version, dirty, err := database.GetMigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Run migrations by starting the server: funildash serve",
		}
	}

	if dirty {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      "Migration state is dirty",
			Suggestion: "Fix dirty migration state, may need manual intervention",
		}
	}

	return CheckResult{Name: "Database Migrations", Pass: true, Details: fmt.Sprintf("v%d", version)}
}

func checkTables(db *sql.DB) CheckResult {
	query := `
		SELECT tablename
		FROM pg_tables
		WHERE schemaname = 'public' AND tablename = ANY($1)
	`

	rows, err := db.Query(query, pq.Array(requiredTables))
	if err != nil {
		return CheckResult{Name: "Required Tables", Pass: false, Error: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	found := make(map[string]bool)
	for rows.Next() {
		var name string
		_ = rows.Scan(&name)
		found[name] = true
	}

	var missing []string
	for _, table := range requiredTables {
		if !found[table] {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       "Required Tables",
			Pass:       false,
			Error:      fmt.Sprintf("Missing %d tables: %s", len(missing), strings.Join(missing, ", ")),
			Suggestion: "Run migrations to create missing tables",
		}
	}

	return CheckResult{
		Name:    "Required Tables",
		Pass:    true,
		Details: fmt.Sprintf("%d/%d tables found", len(requiredTables), len(requiredTables)),
	}
}

func checkSnapshotKey(db *sql.DB) CheckResult {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM pg_constraint
			WHERE conname = 'metricas_chave_unica' AND contype = 'u'
		)`).Scan(&exists)
	if err != nil {
		return CheckResult{Name: "Snapshot Upsert Key", Pass: false, Error: err.Error()}
	}
	if !exists {
		return CheckResult{
			Name:       "Snapshot Upsert Key",
			Pass:       false,
			Error:      "Unique constraint metricas_chave_unica not found",
			Suggestion: "Run migrations; without it metric upserts will duplicate rows",
		}
	}
	return CheckResult{Name: "Snapshot Upsert Key", Pass: true}
}

func checkPgcrypto(db *sql.DB) CheckResult {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'pgcrypto')`).Scan(&exists)
	if err != nil {
		return CheckResult{Name: "pgcrypto Extension", Pass: false, Error: err.Error()}
	}
	if !exists {
		return CheckResult{
			Name:       "pgcrypto Extension",
			Pass:       false,
			Error:      "pgcrypto extension not installed",
			Suggestion: "Run migrations; UUID defaults depend on gen_random_uuid()",
		}
	}
	return CheckResult{Name: "pgcrypto Extension", Pass: true}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ Configuration Error: %v\n", err)
		return err
	}

	results := []CheckResult{}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		results = append(results, CheckResult{
			Name:       "Database Connection",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Verify DATABASE_URL is valid",
		})
	} else {
		defer func() { _ = db.Close() }()

		results = append(results, checkDatabaseConnection(db))
		results = append(results, checkPostgreSQLVersion(db))
		results = append(results, checkMigrations(cfg))
		results = append(results, checkTables(db))
		results = append(results, checkSnapshotKey(db))
		results = append(results, checkPgcrypto(db))
	}

	if jsonOutput {
		outputDoctorJSON(results)
	} else {
		outputDoctorHuman(results)
	}

	for _, r := range results {
		if !r.Pass {
			os.Exit(1)
		}
	}

	return nil
}

func outputDoctorHuman(results []CheckResult) {
	fmt.Println("\n🏥 Funildash Health Check")

	for _, r := range results {
		icon := "✓"
		if !r.Pass {
			icon = "✗"
		}

		fmt.Printf("%s %s", icon, r.Name)
		if r.Details != "" {
			fmt.Printf(" (%s)", r.Details)
		}
		fmt.Println()

		if !r.Pass {
			if r.Error != "" {
				fmt.Printf("  Error: %s\n", r.Error)
			}
			if r.Suggestion != "" {
				fmt.Printf("  💡 %s\n", r.Suggestion)
			}
		}
	}

	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}

	fmt.Printf("\n%d/%d checks passed\n\n", passed, len(results))
}

func outputDoctorJSON(results []CheckResult) {
	data, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(data))
}

func init() {
	doctorCmd.Flags().Bool("json", false, "Output results as JSON")
	RootCmd.AddCommand(doctorCmd)
}
