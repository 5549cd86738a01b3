package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enchant/internal/apperr"
	"enchant/internal/catalog"
	"enchant/internal/fileutil"
	"enchant/internal/logging"
	"enchant/internal/objectstore"
	"enchant/internal/subtitles"
	"enchant/internal/textutil"
)

// Request asks for the window [Start, End] of a movie's video, widened by
// Pre before and Post after.
type Request struct {
	VideoObjectID string
	Start         time.Duration
	End           time.Duration
	Pre           time.Duration
	Post          time.Duration
}

// Validate rejects negative times and inverted windows.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.VideoObjectID) == "":
		return apperr.New(apperr.KindInvalidInput, "clip", "", "video object id required")
	case r.Start < 0 || r.End < 0:
		return apperr.New(apperr.KindInvalidInput, "clip", r.VideoObjectID, "clip times must not be negative")
	case r.End < r.Start:
		return apperr.New(apperr.KindInvalidInput, "clip", r.VideoObjectID, "clip end precedes start")
	case r.Pre < 0 || r.Post < 0:
		return apperr.New(apperr.KindInvalidInput, "clip", r.VideoObjectID, "padding must not be negative")
	}
	return nil
}

// Artifact is the pair of files produced for one request.
type Artifact struct {
	VideoPath    string `json:"video_path"`
	SubtitlePath string `json:"subtitle_path"`
	Range        Range  `json:"-"`
	Cues         int    `json:"cues"`
	Movie        string `json:"movie"`
}

// MovieFinder resolves the movie that owns a video object.
type MovieFinder interface {
	FindByVideoObjectID(ctx context.Context, objectID string) (*catalog.Movie, error)
}

// Objects is the read side of the object store used while clipping.
type Objects interface {
	Exists(id objectstore.ID) bool
	Path(id objectstore.ID) string
	ReadAll(id objectstore.ID) ([]byte, error)
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger routes planner diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "clip")
		}
	}
}

// WithClock overrides the time source used for clip file names.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// Planner turns clip requests into files in a clip directory.
type Planner struct {
	objects Objects
	movies  MovieFinder
	encoder Encoder
	dir     string
	logger  *slog.Logger
	now     func() time.Time
}

// NewPlanner constructs a planner writing into dir.
func NewPlanner(objects Objects, movies MovieFinder, encoder Encoder, dir string, opts ...Option) *Planner {
	p := &Planner{
		objects: objects,
		movies:  movies,
		encoder: encoder,
		dir:     dir,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dir returns the clip output directory.
func (p *Planner) Dir() string {
	return p.dir
}

// Plan cuts the requested window out of the movie's video and subtitle.
func (p *Planner) Plan(ctx context.Context, req Request) (Artifact, error) {
	if err := req.Validate(); err != nil {
		return Artifact{}, err
	}
	videoID, err := objectstore.ParseID(req.VideoObjectID)
	if err != nil {
		return Artifact{}, err
	}

	movie, err := p.movies.FindByVideoObjectID(ctx, videoID.String())
	if err != nil {
		return Artifact{}, fmt.Errorf("find movie: %w", err)
	}
	if movie == nil {
		return Artifact{}, apperr.New(apperr.KindNotFound, "clip", videoID.String(), "movie")
	}
	subtitleID, err := objectstore.ParseID(movie.SubtitleObjectID)
	if err != nil {
		return Artifact{}, err
	}
	if !p.objects.Exists(videoID) {
		return Artifact{}, apperr.New(apperr.KindNotFound, "clip", videoID.String(), "video object")
	}
	if !p.objects.Exists(subtitleID) {
		return Artifact{}, apperr.New(apperr.KindNotFound, "clip", subtitleID.String(), "subtitle object")
	}
	format, err := subtitles.ParseFormat(movie.SubtitleFormat)
	if err != nil {
		return Artifact{}, err
	}

	window := AdjustRange(req.Start, req.End, req.Pre, req.Post)
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return Artifact{}, apperr.Wrap(apperr.KindIO, "clip", p.dir, err)
	}
	videoPath, err := p.reservePath(FileName(p.now(), window, movie.Name), string(format))
	if err != nil {
		return Artifact{}, err
	}

	logger := logging.WithContext(ctx, p.logger).With(logging.String("movie", movie.Name), logging.String("video_object_id", videoID.String()))
	logger.Info("cutting clip",
		logging.String("start", subtitles.FormatClock(window.Start)),
		logging.String("end", subtitles.FormatClock(window.End)),
		logging.String("output", videoPath),
	)

	if err := p.encoder.Cut(ctx, CutRequest{
		Input:    p.objects.Path(videoID),
		Output:   videoPath,
		Start:    window.Start,
		Duration: window.Duration(),
	}); err != nil {
		_ = os.Remove(videoPath)
		logger.Warn("clip encode failed", logging.Error(err))
		return Artifact{}, err
	}

	data, err := p.objects.ReadAll(subtitleID)
	if err != nil {
		return Artifact{}, err
	}
	excerpt, cues, err := ExtractSubtitle(data, format, window)
	if err != nil {
		return Artifact{}, fmt.Errorf("extract subtitle: %w", err)
	}
	subtitlePath := videoPath + string(format)
	if err := fileutil.WriteFile(subtitlePath, excerpt, 0o644); err != nil {
		return Artifact{}, apperr.Wrap(apperr.KindIO, "clip", subtitlePath, err)
	}

	logger.Info("clip written",
		logging.String("video_path", videoPath),
		logging.String("subtitle_path", subtitlePath),
		logging.Int("cues", cues),
	)
	return Artifact{
		VideoPath:    videoPath,
		SubtitlePath: subtitlePath,
		Range:        window,
		Cues:         cues,
		Movie:        movie.Name,
	}, nil
}

// FileName builds the clip file name for window, cut at now from movie.
func FileName(now time.Time, window Range, movie string) string {
	name := textutil.SanitizeFileName(movie)
	if name == "" {
		name = "clip"
	}
	return fmt.Sprintf("%s_%s_to_%s.%s.mp4",
		now.Format("20060102150405"),
		compactClock(window.Start),
		compactClock(window.End),
		name,
	)
}

func compactClock(d time.Duration) string {
	return strings.ReplaceAll(subtitles.FormatClock(d), ":", "")
}

// reservePath picks a name in the clip directory that neither the video nor
// its subtitle companion already uses, appending -2, -3, ... before .mp4.
func (p *Planner) reservePath(base, subtitleExt string) (string, error) {
	stem := strings.TrimSuffix(base, ".mp4")
	for n := 1; n < 10000; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s-%d.mp4", stem, n)
		}
		candidate := filepath.Join(p.dir, name)
		if !pathExists(candidate) && !pathExists(candidate+subtitleExt) {
			return candidate, nil
		}
	}
	return "", apperr.New(apperr.KindIO, "clip", filepath.Join(p.dir, base), "no free clip file name")
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
