package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_drafts",
		SQL: `CREATE TABLE IF NOT EXISTS drafts (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner      TEXT        NOT NULL,
  module     TEXT        NOT NULL,
  route      TEXT        NOT NULL,
  entity_id  TEXT,
  title      TEXT        NOT NULL DEFAULT '',
  data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
  step       INTEGER     NOT NULL DEFAULT 0 CHECK (step >= 0),
  metadata   JSONB,
  version    BIGINT      NOT NULL DEFAULT 1 CHECK (version >= 1),
  status     TEXT        NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'converted', 'discarded')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		// At most one active draft per logical slot; COALESCE folds the
		// no-entity case into the same key space.
		Name: "create_unique_index_drafts_active_key",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_drafts_active_key
  ON drafts (owner, module, route, COALESCE(entity_id, ''))
  WHERE status = 'active';`,
	},
	{
		Name: "create_index_drafts_owner_status_updated",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_drafts_owner_status_updated ON drafts (owner, status, updated_at DESC);`,
	},
	{
		Name: "create_index_drafts_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_drafts_entity ON drafts (owner, module, entity_id) WHERE entity_id IS NOT NULL;`,
	},
}

// EnsureMigrated checks if the 'drafts' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.drafts') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
