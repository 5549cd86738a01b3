package library

import (
	"context"
	"fmt"

	"enchant/internal/logging"
	"enchant/internal/objectstore"
	"enchant/internal/subtitles"
)

// Reindex rebuilds the search index from the subtitle of every catalogued
// movie and returns the number of documents indexed.
func (l *Library) Reindex(ctx context.Context) (int, error) {
	ctx, logger := l.requestLogger(ctx)

	movies, err := l.catalog.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := l.index.Reset(ctx); err != nil {
		return 0, err
	}

	total := 0
	for _, movie := range movies {
		id, err := objectstore.ParseID(movie.SubtitleObjectID)
		if err != nil {
			return total, err
		}
		format, err := subtitles.ParseFormat(movie.SubtitleFormat)
		if err != nil {
			return total, err
		}
		data, err := l.objects.ReadAll(id)
		if err != nil {
			return total, fmt.Errorf("movie %q: %w", movie.Name, err)
		}
		doc, err := subtitles.Parse(data, format)
		if err != nil {
			return total, fmt.Errorf("movie %q: parse subtitle: %w", movie.Name, err)
		}
		n, err := l.index.IndexDocuments(ctx, id.String(), indexCues(doc.Cues))
		if err != nil {
			return total, err
		}
		total += n
	}
	logger.Info("index rebuilt", logging.Int("movies", len(movies)), logging.Int("documents", total))
	return total, nil
}
