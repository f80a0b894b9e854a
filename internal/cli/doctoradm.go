package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/config"
	"github.com/DawoodMehmood/transaction-management-system-sub000/internal/db"
)

var doctorAdmCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database health and integrity",
	Long: `Performs health checks on the database file, pragmas, schema, and the
id sequences the store allocates (per-transaction instance ids and per-scope
template task ids).`,
	RunE: runDoctorAdm,
}

var (
	doctorAdmJSON    bool
	doctorAdmVerbose bool
)

type checkResultAdm struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"` // "ok", "warning", "error"
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

type doctorReportAdm struct {
	DBPath        string           `json:"db_path"`
	Checks        []checkResultAdm `json:"checks"`
	Warnings      int              `json:"warnings"`
	Errors        int              `json:"errors"`
	OverallStatus string           `json:"overall_status"`
}

func init() {
	rootAdmCmd.AddCommand(doctorAdmCmd)
	doctorAdmCmd.Flags().BoolVar(&doctorAdmJSON, "json", false, "Output JSON")
	doctorAdmCmd.Flags().BoolVar(&doctorAdmVerbose, "verbose", false, "Verbose output")
}

func runDoctorAdm(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	report := &doctorReportAdm{
		DBPath:        cfg.DBPath,
		Checks:        []checkResultAdm{},
		OverallStatus: "ok",
	}

	report.Checks = append(report.Checks, checkDatabaseFileAdm(cfg.DBPath)...)

	database, err := db.Open(cfg.DBPath)
	if err == nil {
		defer database.Close()
		report.Checks = append(report.Checks, checkDatabasePragmasAdm(database)...)
		report.Checks = append(report.Checks, checkSchemaAdm(database)...)
		report.Checks = append(report.Checks, checkDataIntegrityAdm(database)...)
		report.Checks = append(report.Checks, checkCountsAdm(database)...)
	} else {
		report.Checks = append(report.Checks, checkResultAdm{
			Name:    "database_open",
			Status:  "error",
			Message: fmt.Sprintf("Failed to open database: %v", err),
		})
	}

	for _, check := range report.Checks {
		switch check.Status {
		case "warning":
			report.Warnings++
		case "error":
			report.Errors++
			report.OverallStatus = "error"
		}
	}
	if report.Warnings > 0 && report.OverallStatus == "ok" {
		report.OverallStatus = "warning"
	}

	if doctorAdmJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		printHumanReportAdm(cmd, report)
	}

	if report.Errors > 0 {
		os.Exit(1)
	}
	return nil
}

func checkDatabaseFileAdm(dbPath string) []checkResultAdm {
	var results []checkResultAdm

	info, err := os.Stat(dbPath)
	if err != nil {
		results = append(results, checkResultAdm{
			Name:    "db_file_exists",
			Status:  "error",
			Message: fmt.Sprintf("Database file not found: %s", dbPath),
		})
		return results
	}

	results = append(results, checkResultAdm{
		Name:    "db_file_exists",
		Status:  "ok",
		Message: fmt.Sprintf("Database file: %s (%.1f MB)", dbPath, float64(info.Size())/(1024*1024)),
	})

	f, err := os.OpenFile(dbPath, os.O_RDWR, 0)
	if err != nil {
		results = append(results, checkResultAdm{
			Name:    "db_file_permissions",
			Status:  "error",
			Message: fmt.Sprintf("Database file not writable: %v", err),
		})
	} else {
		f.Close()
		results = append(results, checkResultAdm{
			Name:    "db_file_permissions",
			Status:  "ok",
			Message: "Database file is readable and writable",
		})
	}

	return results
}

func checkDatabasePragmasAdm(database *db.DB) []checkResultAdm {
	var results []checkResultAdm

	var journalMode string
	database.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if journalMode == "wal" {
		results = append(results, checkResultAdm{
			Name:    "wal_mode",
			Status:  "ok",
			Message: "WAL mode enabled",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "wal_mode",
			Status:  "warning",
			Message: fmt.Sprintf("WAL mode not enabled (current: %s)", journalMode),
		})
	}

	var foreignKeys int
	database.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if foreignKeys == 1 {
		results = append(results, checkResultAdm{
			Name:    "foreign_keys",
			Status:  "ok",
			Message: "Foreign keys enabled",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "foreign_keys",
			Status:  "error",
			Message: "Foreign keys not enabled",
			Details: []string{"Critical: foreign key constraints are not enforced"},
		})
	}

	var integrityCheck string
	database.QueryRow("PRAGMA integrity_check").Scan(&integrityCheck)
	if integrityCheck == "ok" {
		results = append(results, checkResultAdm{
			Name:    "integrity_check",
			Status:  "ok",
			Message: "Database integrity check passed",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "integrity_check",
			Status:  "error",
			Message: fmt.Sprintf("Database integrity check failed: %s", integrityCheck),
			Details: []string{"Database may be corrupted", "Restore from backup recommended"},
		})
	}

	return results
}

func checkSchemaAdm(database *db.DB) []checkResultAdm {
	var results []checkResultAdm

	requiredTables := []string{
		"actors", "transactions", "date_fields", "anchor_dates",
		"task_templates", "task_instances", "event_log",
	}
	var missingTables []string

	for _, table := range requiredTables {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil || count == 0 {
			missingTables = append(missingTables, table)
		}
	}

	if len(missingTables) == 0 {
		results = append(results, checkResultAdm{
			Name:    "schema_tables",
			Status:  "ok",
			Message: fmt.Sprintf("All required tables present (%d/%d)", len(requiredTables), len(requiredTables)),
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "schema_tables",
			Status:  "error",
			Message: fmt.Sprintf("Missing tables: %v", missingTables),
			Details: []string{"Run 'tmsadm migrate' to create missing tables"},
		})
	}

	return results
}

func checkDataIntegrityAdm(database *db.DB) []checkResultAdm {
	var results []checkResultAdm

	// Instances referencing a template row that no longer exists. Legal
	// (templates can be deleted after materialization) but such tasks can
	// never resolve a due date from their anchor, so surface them.
	var detachedInstances int
	database.QueryRow(`
		SELECT COUNT(*) FROM task_instances i
		JOIN transactions t ON t.uuid = i.transaction_uuid
		WHERE NOT EXISTS (
			SELECT 1 FROM task_templates tpl
			WHERE tpl.state_code = t.state_code
			  AND tpl.txn_type = t.txn_type
			  AND tpl.stage_id = i.stage_id
			  AND tpl.task_id = i.template_task_id
		)
	`).Scan(&detachedInstances)

	if detachedInstances == 0 {
		results = append(results, checkResultAdm{
			Name:    "detached_instances",
			Status:  "ok",
			Message: "All task instances have a matching template",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "detached_instances",
			Status:  "warning",
			Message: fmt.Sprintf("%d task instances reference a deleted template", detachedInstances),
			Details: []string{"These tasks cannot resolve anchor-derived due dates"},
		})
	}

	// Instance id sequences must have no duplicates within a transaction.
	var duplicateInstanceIDs int
	database.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT transaction_uuid, instance_id, COUNT(*) AS cnt
			FROM task_instances
			GROUP BY transaction_uuid, instance_id
			HAVING cnt > 1
		)
	`).Scan(&duplicateInstanceIDs)

	if duplicateInstanceIDs == 0 {
		results = append(results, checkResultAdm{
			Name:    "instance_id_sequence",
			Status:  "ok",
			Message: "Instance ids are unique per transaction",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "instance_id_sequence",
			Status:  "error",
			Message: fmt.Sprintf("%d duplicate instance ids found", duplicateInstanceIDs),
			Details: []string{"Manual intervention required to resolve duplicates"},
		})
	}

	// Anchor dates must parse as calendar dates.
	var badDates int
	database.QueryRow(`
		SELECT COUNT(*) FROM anchor_dates
		WHERE value_date IS NULL OR date(value_date) IS NULL
	`).Scan(&badDates)

	if badDates == 0 {
		results = append(results, checkResultAdm{
			Name:    "anchor_date_format",
			Status:  "ok",
			Message: "All anchor dates are valid calendar dates",
		})
	} else {
		results = append(results, checkResultAdm{
			Name:    "anchor_date_format",
			Status:  "error",
			Message: fmt.Sprintf("%d anchor dates are not valid calendar dates", badDates),
		})
	}

	return results
}

func checkCountsAdm(database *db.DB) []checkResultAdm {
	var results []checkResultAdm

	var activeTxns, deletedTxns int
	database.QueryRow("SELECT COUNT(*) FROM transactions WHERE deleted_at IS NULL").Scan(&activeTxns)
	database.QueryRow("SELECT COUNT(*) FROM transactions WHERE deleted_at IS NOT NULL").Scan(&deletedTxns)

	results = append(results, checkResultAdm{
		Name:    "transaction_counts",
		Status:  "ok",
		Message: fmt.Sprintf("%d active transactions, %d soft-deleted", activeTxns, deletedTxns),
	})

	var instances, pending int
	database.QueryRow("SELECT COUNT(*) FROM task_instances").Scan(&instances)
	database.QueryRow("SELECT COUNT(*) FROM task_instances WHERE task_days IS NULL AND due_date IS NULL").Scan(&pending)

	results = append(results, checkResultAdm{
		Name:    "instance_counts",
		Status:  "ok",
		Message: fmt.Sprintf("%d task instances (%d pending an anchor date)", instances, pending),
	})

	var templates int
	database.QueryRow("SELECT COUNT(*) FROM task_templates").Scan(&templates)

	results = append(results, checkResultAdm{
		Name:    "template_count",
		Status:  "ok",
		Message: fmt.Sprintf("%d task templates", templates),
	})

	return results
}

func printHumanReportAdm(cmd *cobra.Command, report *doctorReportAdm) {
	fmt.Fprintf(cmd.OutOrStdout(), "tmsadm doctor\n\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n\n", report.DBPath)

	for _, check := range report.Checks {
		icon := "✓"
		if check.Status == "warning" {
			icon = "⚠"
		} else if check.Status == "error" {
			icon = "✗"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", icon, check.Message)

		if doctorAdmVerbose && len(check.Details) > 0 {
			for _, detail := range check.Details {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", detail)
			}
		}
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if report.Errors > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Summary: %d error(s), %d warning(s)\n", report.Errors, report.Warnings)
	} else if report.Warnings > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Summary: %d warning(s)\n", report.Warnings)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Summary: All checks passed ✓\n")
	}
}
