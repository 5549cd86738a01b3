package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"enchant/internal/catalog"
	"enchant/internal/clip"
	"enchant/internal/config"
	"enchant/internal/logging"
	"enchant/internal/objectstore"
	"enchant/internal/searchindex"
)

// Option configures a Library.
type Option func(*options)

type options struct {
	encoder clip.Encoder
	logger  *slog.Logger
	clock   clip.Option
}

// WithEncoder replaces the ffmpeg encoder built from configuration.
func WithEncoder(encoder clip.Encoder) Option {
	return func(o *options) {
		o.encoder = encoder
	}
}

// WithLogger routes library diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for clip file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = clip.WithClock(now)
	}
}

// Library is an open enchant repository.
type Library struct {
	cfg     *config.Config
	objects *objectstore.Store
	index   *searchindex.Index
	catalog *catalog.Store
	planner *clip.Planner
	logger  *slog.Logger
}

// Open opens or initializes the repository described by cfg.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Library, error) {
	if cfg == nil {
		return nil, errors.New("library: config required")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.NewComponentLogger(o.logger, "library")

	objects, err := objectstore.Open(cfg.Paths.RepoDir)
	if err != nil {
		return nil, err
	}
	index, err := searchindex.OpenOrCreate(ctx, cfg.IndexDir(), searchindex.WithLogger(logging.NewComponentLogger(o.logger, "searchindex")))
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	movies, err := catalog.Open(ctx, cfg.CatalogPath())
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	encoder := o.encoder
	if encoder == nil {
		encoder = clip.NewFFmpeg(
			clip.WithBinary(cfg.FFmpegBinary()),
			clip.WithCodecs(cfg.Clip.VideoCodec, cfg.Clip.AudioCodec),
			clip.WithTimeout(cfg.EncoderTimeout()),
		)
	}
	plannerOpts := []clip.Option{clip.WithLogger(o.logger)}
	if o.clock != nil {
		plannerOpts = append(plannerOpts, o.clock)
	}
	planner := clip.NewPlanner(objects, movies, encoder, cfg.Paths.ClipDir, plannerOpts...)

	logger.Debug("repository opened", logging.String("repo", cfg.Paths.RepoDir))
	return &Library{
		cfg:     cfg,
		objects: objects,
		index:   index,
		catalog: movies,
		planner: planner,
		logger:  logger,
	}, nil
}

// Close releases the index and catalog databases.
func (l *Library) Close() error {
	if l == nil {
		return nil
	}
	return errors.Join(l.index.Close(), l.catalog.Close())
}

// Objects exposes the underlying object store.
func (l *Library) Objects() *objectstore.Store {
	return l.objects
}

// Index exposes the underlying search index.
func (l *Library) Index() *searchindex.Index {
	return l.index
}

// RepoDir returns the repository root.
func (l *Library) RepoDir() string {
	return l.cfg.Paths.RepoDir
}

// Movies lists every catalogued movie.
func (l *Library) Movies(ctx context.Context) ([]*catalog.Movie, error) {
	return l.catalog.List(ctx)
}

// Stats summarizes repository contents.
type Stats struct {
	Repo      string `json:"repo"`
	Objects   int    `json:"objects"`
	Movies    int    `json:"movies"`
	Documents int    `json:"documents"`
	IndexPath string `json:"index_path"`
}

// Stats counts stored objects, catalogued movies and indexed documents.
func (l *Library) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Repo: l.cfg.Paths.RepoDir, IndexPath: l.index.Path()}
	if err := l.objects.Walk(func(objectstore.ID) error {
		stats.Objects++
		return nil
	}); err != nil {
		return stats, fmt.Errorf("walk objects: %w", err)
	}
	var err error
	if stats.Movies, err = l.catalog.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Documents, err = l.index.Count(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

func (l *Library) requestLogger(ctx context.Context) (context.Context, *slog.Logger) {
	if _, ok := logging.RequestIDFromContext(ctx); !ok {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	return ctx, logging.WithContext(ctx, l.logger)
}

func baseName(path string) string {
	return filepath.Base(filepath.Clean(path))
}
