package tasks

import (
	"context"
	"fmt"
	"time"
)

// newLanguageIndexTask creates the scheduled task that keeps the on-disk
// per-language corpus files current. It enumerates every language seen so
// far and appends whatever texts haven't been indexed yet.
func newLanguageIndexTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "language_index")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled language indexing task...")
		startTime := time.Now()

		languages, err := deps.Store.DistinctLanguages(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list languages", "error", err)
			return fmt.Errorf("language indexing failed: %w", err)
		}

		total := 0
		for _, language := range languages {
			processed, err := deps.Indexer.IndexByLanguage(ctx, language)
			if err != nil {
				// Texts appended before the failure are already marked; the
				// rest will be picked up by the next run.
				log.ErrorContext(ctx, "Indexing failed for language",
					"language", language, "processed", len(processed), "error", err)
				return fmt.Errorf("language indexing failed for %q: %w", language, err)
			}
			total += len(processed)
		}

		log.InfoContext(ctx, "Scheduled language indexing task completed",
			"languages", len(languages), "texts_indexed", total, "duration", time.Since(startTime))
		return nil
	}
}
