package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"enchant/internal/apperr"
	"enchant/internal/catalog"
	"enchant/internal/clip"
	"enchant/internal/logging"
	"enchant/internal/searchindex"
	"enchant/internal/subtitles"
)

// Result is one search hit with the movie it belongs to. Movie is nil when
// the subtitle object is not catalogued.
type Result struct {
	searchindex.Hit
	Movie *catalog.Movie `json:"movie,omitempty"`
}

// SearchPage is one page of results.
type SearchPage struct {
	Number  int      `json:"page"`
	Count   int      `json:"page_count"`
	Offset  int      `json:"offset"`
	Size    int      `json:"page_size"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Last returns the 1-based position of the final result on the page.
func (p *SearchPage) Last() int {
	return p.Offset + len(p.Results)
}

// Search runs query against the subtitle index. A nil page with a nil error
// means nothing matched.
func (l *Library) Search(ctx context.Context, query string, pageNum, pageSize int) (*SearchPage, error) {
	page, err := l.index.Search(ctx, query, pageNum, pageSize)
	if err != nil || page == nil {
		return nil, err
	}

	out := &SearchPage{
		Number:  page.Number,
		Count:   page.Count,
		Offset:  page.Offset,
		Size:    page.Size,
		Total:   page.Total,
		Results: make([]Result, 0, len(page.Hits)),
	}
	movies := map[string]*catalog.Movie{}
	for _, hit := range page.Hits {
		movie, seen := movies[hit.ObjectID]
		if !seen {
			movie, err = l.catalog.FindBySubtitleObjectID(ctx, hit.ObjectID)
			if err != nil {
				return nil, err
			}
			movies[hit.ObjectID] = movie
		}
		out.Results = append(out.Results, Result{Hit: hit, Movie: movie})
	}
	return out, nil
}

// Clip cuts one excerpt.
func (l *Library) Clip(ctx context.Context, req clip.Request) (clip.Artifact, error) {
	ctx, _ = l.requestLogger(ctx)
	return l.planner.Plan(ctx, req)
}

// ClipHits cuts an excerpt for every result, padding each by pre and
// post. Failures are collected and the remaining results still get clipped.
func (l *Library) ClipHits(ctx context.Context, results []Result, pre, post time.Duration) ([]clip.Artifact, error) {
	ctx, logger := l.requestLogger(ctx)

	var (
		artifacts []clip.Artifact
		errs      []error
	)
	for _, result := range results {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if result.Movie == nil {
			errs = append(errs, apperr.New(apperr.KindNotFound, "clip result", result.ObjectID, "movie"))
			continue
		}
		start, err := subtitles.ParseSRTTimestamp(result.Start)
		if err != nil {
			errs = append(errs, apperr.Wrap(apperr.KindInvalidInput, "clip result", result.Start, err))
			continue
		}
		end, err := subtitles.ParseSRTTimestamp(result.End)
		if err != nil {
			errs = append(errs, apperr.Wrap(apperr.KindInvalidInput, "clip result", result.End, err))
			continue
		}
		artifact, err := l.planner.Plan(ctx, clip.Request{
			VideoObjectID: result.Movie.VideoObjectID,
			Start:         start,
			End:           end,
			Pre:           pre,
			Post:          post,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", result.Movie.Name, result.Start, err))
			continue
		}
		artifacts = append(artifacts, artifact)
	}
	if len(errs) > 0 {
		logger.Warn("some results could not be clipped",
			logging.Int("clipped", len(artifacts)),
			logging.Int("failed", len(errs)),
		)
	}
	return artifacts, errors.Join(errs...)
}
