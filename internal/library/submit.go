package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"enchant/internal/apperr"
	"enchant/internal/catalog"
	"enchant/internal/logging"
	"enchant/internal/objectstore"
	"enchant/internal/searchindex"
	"enchant/internal/subtitles"
)

// VideoFormats lists the accepted video file extensions.
var VideoFormats = []string{".mp4", ".mkv"}

// Submit stores a video and its subtitle, indexes every subtitle line and
// records the pair as a movie named after the video file. Resubmitting
// content that is already catalogued fails with KindDuplicate.
func (l *Library) Submit(ctx context.Context, videoPath, subtitlePath string) (*catalog.Movie, error) {
	ctx, logger := l.requestLogger(ctx)

	format, err := precheck(videoPath, subtitlePath)
	if err != nil {
		return nil, err
	}

	videoID, err := l.objects.Put(videoPath)
	if err != nil {
		return nil, err
	}
	if err := l.ensureUnusedVideo(ctx, videoID); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(subtitlePath)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "submit", subtitlePath, err)
	}
	text, sourceEncoding, err := subtitles.Normalize(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "submit", subtitlePath, err)
	}
	doc, err := subtitles.Parse(text, format)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "submit", subtitlePath, err)
	}

	subtitleID, err := l.objects.PutReader(bytes.NewReader(text))
	if err != nil {
		return nil, err
	}
	if err := l.ensureUnusedSubtitle(ctx, subtitleID); err != nil {
		return nil, err
	}

	indexed, err := l.index.IndexDocuments(ctx, subtitleID.String(), indexCues(doc.Cues))
	if err != nil {
		return nil, err
	}

	movie := &catalog.Movie{
		Name:             baseName(videoPath),
		VideoObjectID:    videoID.String(),
		SubtitleObjectID: subtitleID.String(),
		SubtitleFormat:   string(format),
	}
	if err := l.catalog.Create(ctx, movie); err != nil {
		if _, rbErr := l.index.DeleteObject(ctx, subtitleID.String()); rbErr != nil {
			logger.Warn("failed to remove indexed documents after catalog error",
				logging.String("subtitle_object_id", subtitleID.String()),
				logging.Error(rbErr),
			)
		}
		return nil, err
	}

	logger.Info("movie submitted",
		logging.String("name", movie.Name),
		logging.String("video_object_id", movie.VideoObjectID),
		logging.String("subtitle_object_id", movie.SubtitleObjectID),
		logging.String("subtitle_encoding", sourceEncoding),
		logging.Int("documents", indexed),
	)
	return movie, nil
}

func precheck(videoPath, subtitlePath string) (subtitles.Format, error) {
	for _, path := range []string{videoPath, subtitlePath} {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", apperr.New(apperr.KindNotFound, "submit", path, "file does not exist")
			}
			return "", apperr.Wrap(apperr.KindIO, "submit", path, err)
		}
		if info.IsDir() {
			return "", apperr.New(apperr.KindInvalidInput, "submit", path, "is a directory")
		}
	}

	videoExt := strings.ToLower(filepath.Ext(videoPath))
	if !containsString(VideoFormats, videoExt) {
		return "", apperr.New(apperr.KindFormatUnsupported, "submit", videoPath,
			fmt.Sprintf("video must be one of %s", strings.Join(VideoFormats, " ")))
	}
	return subtitles.ParseFormat(filepath.Ext(subtitlePath))
}

func (l *Library) ensureUnusedVideo(ctx context.Context, id objectstore.ID) error {
	movie, err := l.catalog.FindByVideoObjectID(ctx, id.String())
	if err != nil {
		return err
	}
	if movie != nil {
		return apperr.New(apperr.KindDuplicate, "submit", id.String(),
			fmt.Sprintf("video already catalogued as %q (movie %d)", movie.Name, movie.ID))
	}
	return nil
}

func (l *Library) ensureUnusedSubtitle(ctx context.Context, id objectstore.ID) error {
	movie, err := l.catalog.FindBySubtitleObjectID(ctx, id.String())
	if err != nil {
		return err
	}
	if movie != nil {
		return apperr.New(apperr.KindDuplicate, "submit", id.String(),
			fmt.Sprintf("subtitle already catalogued for %q (movie %d)", movie.Name, movie.ID))
	}
	return nil
}

// indexCues converts parsed cues to index documents, skipping lines with no
// visible text.
func indexCues(cues []subtitles.Cue) []searchindex.Cue {
	out := make([]searchindex.Cue, 0, len(cues))
	for _, cue := range cues {
		content := cue.PlainText()
		if strings.TrimSpace(content) == "" {
			continue
		}
		out = append(out, searchindex.Cue{
			SequenceIndex: cue.Index,
			Start:         cue.Start,
			End:           cue.End,
			Content:       content,
		})
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
