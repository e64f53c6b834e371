// Package indexer maintains per-language corpus files: it appends stored
// message texts that haven't been indexed yet to an append-only file per
// language code and reports language distribution across all stored texts.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DanAmador/Fagbot/internal/database"
)

// Service appends unindexed texts to per-language corpus files.
type Service struct {
	store  database.Store
	dir    string
	logger *slog.Logger
}

// NewService creates an indexer writing corpus files under dir, one
// <language>.txt file per language code.
func NewService(store database.Store, dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		dir:    dir,
		logger: logger.With("component", "indexer"),
	}
}

// IndexByLanguage appends every unindexed text of the given language to the
// language's corpus file, one text per line, in storage order. Each record is
// marked indexed immediately after its line is written, so a failure partway
// through leaves the already-appended records marked and the rest untouched
// (at-least-once, not atomic). Returns the records processed, including the
// prefix processed before a mid-batch failure. A second call with no new
// texts appends nothing.
func (s *Service) IndexByLanguage(ctx context.Context, language string) ([]database.Text, error) {
	texts, err := s.store.UnindexedTexts(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		s.logger.DebugContext(ctx, "No unindexed texts", "language", language)
		return nil, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory %q: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, language+".txt")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file %q: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("Error closing corpus file", "path", path, "error", closeErr)
		}
	}()

	processed := make([]database.Text, 0, len(texts))
	for _, text := range texts {
		if _, err := fmt.Fprintf(file, "%s\n", text.Content); err != nil {
			return processed, fmt.Errorf("failed to append to corpus file %q after %d of %d texts: %w",
				path, len(processed), len(texts), err)
		}
		if err := s.store.MarkTextIndexed(ctx, text.ID); err != nil {
			return processed, fmt.Errorf("failed to mark text %d indexed: %w", text.ID, err)
		}
		processed = append(processed, text)
	}

	s.logger.InfoContext(ctx, "Indexed texts into corpus file",
		"language", language, "count", len(processed), "path", path)
	return processed, nil
}

// LanguageHistogram returns a mapping of language code to the number of
// stored texts with that code. With an empty language, every distinct code is
// enumerated and re-counted with a fresh count query; otherwise the map holds
// a single entry for the given code.
func (s *Service) LanguageHistogram(ctx context.Context, language string) (map[string]int64, error) {
	var languages []string
	if language == "" {
		distinct, err := s.store.DistinctLanguages(ctx)
		if err != nil {
			return nil, err
		}
		languages = distinct
	} else {
		languages = []string{language}
	}

	histogram := make(map[string]int64, len(languages))
	for _, code := range languages {
		count, err := s.store.CountTextsByLanguage(ctx, code)
		if err != nil {
			return nil, err
		}
		histogram[code] = count
	}

	return histogram, nil
}
