package handlers

import (
	"log/slog"

	"github.com/DanAmador/Fagbot/internal/analytics"
	"github.com/DanAmador/Fagbot/internal/config"
	"github.com/DanAmador/Fagbot/internal/indexer"
	"github.com/DanAmador/Fagbot/internal/ingest"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Ingest    *ingest.Service
	Analytics *analytics.Service
	Indexer   *indexer.Service
}
