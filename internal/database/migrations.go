package database

import (
	"fmt"
	"log/slog"

	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds the composite indexes that single-column tags cannot express
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	indexes := []struct {
		name    string
		columns string
	}{
		// Reminder scan
		{"idx_tasks_status_due_date", "status, due_date"},
		// Assignee task list
		{"idx_tasks_assigned_to_due_date", "assigned_to, due_date"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "columns", idx.columns)
	}

	return nil
}
