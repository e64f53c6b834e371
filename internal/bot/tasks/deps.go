// Package tasks implements the bot's scheduled background tasks.
// It includes task definitions, dependencies, and registration mechanisms.
package tasks

import (
	"log/slog"

	"github.com/DanAmador/Fagbot/internal/config"
	"github.com/DanAmador/Fagbot/internal/database"
	"github.com/DanAmador/Fagbot/internal/indexer"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Indexer *indexer.Service
	Config  *config.Config
}
