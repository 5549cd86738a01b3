package clip_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"enchant/internal/apperr"
	"enchant/internal/catalog"
	"enchant/internal/clip"
	"enchant/internal/objectstore"
)

type movieMap map[string]*catalog.Movie

func (m movieMap) FindByVideoObjectID(_ context.Context, id string) (*catalog.Movie, error) {
	return m[id], nil
}

type fakeEncoder struct {
	requests []clip.CutRequest
	err      error
}

func (f *fakeEncoder) Cut(_ context.Context, req clip.CutRequest) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(req.Output, []byte("video"), 0o644)
}

const sampleSubtitle = "1\n00:00:09,000 --> 00:00:12,000\nfirst\n\n2\n00:00:15,000 --> 00:00:18,000\nsecond\n\n3\n00:00:22,500 --> 00:00:24,000\nlate\n"

type fixture struct {
	store   *objectstore.Store
	movies  movieMap
	encoder *fakeEncoder
	planner *clip.Planner
	clipDir string
	videoID objectstore.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	store, err := objectstore.Open(filepath.Join(base, "repo"))
	if err != nil {
		t.Fatalf("objectstore.Open: %v", err)
	}
	videoID, err := store.PutReader(strings.NewReader("fake video bytes"))
	if err != nil {
		t.Fatalf("PutReader video: %v", err)
	}
	subtitleID, err := store.PutReader(strings.NewReader(sampleSubtitle))
	if err != nil {
		t.Fatalf("PutReader subtitle: %v", err)
	}
	movies := movieMap{
		videoID.String(): {
			ID:               1,
			Name:             "Heat.mkv",
			VideoObjectID:    videoID.String(),
			SubtitleObjectID: subtitleID.String(),
			SubtitleFormat:   ".srt",
		},
	}
	encoder := &fakeEncoder{}
	clipDir := filepath.Join(base, "clips")
	clock := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) }
	planner := clip.NewPlanner(store, movies, encoder, clipDir, clip.WithClock(clock))
	return &fixture{store: store, movies: movies, encoder: encoder, planner: planner, clipDir: clipDir, videoID: videoID}
}

func TestPlanWritesVideoAndSubtitle(t *testing.T) {
	fx := newFixture(t)
	artifact, err := fx.planner.Plan(context.Background(), clip.Request{
		VideoObjectID: strings.ToUpper(fx.videoID.String()),
		Start:         10 * time.Second,
		End:           20 * time.Second,
		Pre:           2 * time.Second,
		Post:          3 * time.Second,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	wantVideo := filepath.Join(fx.clipDir, "20240102030405_000008_to_000023.Heat.mkv.mp4")
	if artifact.VideoPath != wantVideo {
		t.Fatalf("video path = %q want %q", artifact.VideoPath, wantVideo)
	}
	if artifact.SubtitlePath != wantVideo+".srt" {
		t.Fatalf("subtitle path = %q", artifact.SubtitlePath)
	}
	if artifact.Range != (clip.Range{Start: 8 * time.Second, End: 23 * time.Second}) {
		t.Fatalf("unexpected range: %+v", artifact.Range)
	}

	if len(fx.encoder.requests) != 1 {
		t.Fatalf("expected one encoder call, got %d", len(fx.encoder.requests))
	}
	req := fx.encoder.requests[0]
	if req.Input != fx.store.Path(fx.videoID) || req.Start != 8*time.Second || req.Duration != 15*time.Second {
		t.Fatalf("unexpected cut request: %+v", req)
	}

	data, err := os.ReadFile(artifact.SubtitlePath)
	if err != nil {
		t.Fatalf("read subtitle clip: %v", err)
	}
	want := "1\n00:00:01,000 --> 00:00:04,000\nfirst\n\n2\n00:00:07,000 --> 00:00:10,000\nsecond\n\n"
	if string(data) != want {
		t.Fatalf("unexpected subtitle clip:\n%q\nwant\n%q", data, want)
	}
	if artifact.Cues != 2 {
		t.Fatalf("expected 2 cues, got %d", artifact.Cues)
	}
}

func TestPlanAvoidsNameCollisions(t *testing.T) {
	fx := newFixture(t)
	req := clip.Request{VideoObjectID: fx.videoID.String(), Start: 10 * time.Second, End: 12 * time.Second}

	first, err := fx.planner.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("first Plan: %v", err)
	}
	second, err := fx.planner.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("second Plan: %v", err)
	}
	if first.VideoPath == second.VideoPath {
		t.Fatalf("expected distinct paths, both %q", first.VideoPath)
	}
	if !strings.HasSuffix(second.VideoPath, ".Heat.mkv-2.mp4") {
		t.Fatalf("unexpected collision name %q", second.VideoPath)
	}
	if _, err := os.Stat(second.SubtitlePath); err != nil {
		t.Fatalf("expected second subtitle clip: %v", err)
	}
}

func TestPlanEmptySubtitleWindow(t *testing.T) {
	fx := newFixture(t)
	artifact, err := fx.planner.Plan(context.Background(), clip.Request{
		VideoObjectID: fx.videoID.String(),
		Start:         100 * time.Second,
		End:           101 * time.Second,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	info, err := os.Stat(artifact.SubtitlePath)
	if err != nil {
		t.Fatalf("expected subtitle file: %v", err)
	}
	if info.Size() != 0 || artifact.Cues != 0 {
		t.Fatalf("expected empty subtitle clip, got size %d cues %d", info.Size(), artifact.Cues)
	}
}

func TestPlanUnknownMovie(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.planner.Plan(context.Background(), clip.Request{
		VideoObjectID: strings.Repeat("0", 40),
		End:           time.Second,
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(fx.encoder.requests) != 0 {
		t.Fatal("encoder should not run for unknown movie")
	}
}

func TestPlanMissingSubtitleObject(t *testing.T) {
	fx := newFixture(t)
	fx.movies[fx.videoID.String()].SubtitleObjectID = strings.Repeat("e", 40)
	_, err := fx.planner.Plan(context.Background(), clip.Request{VideoObjectID: fx.videoID.String(), End: time.Second})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "subtitle object") {
		t.Fatalf("expected error to name the subtitle object, got %v", err)
	}
}

func TestPlanMissingVideoObject(t *testing.T) {
	fx := newFixture(t)
	if err := os.Remove(fx.store.Path(fx.videoID)); err != nil {
		t.Fatalf("remove video object: %v", err)
	}
	_, err := fx.planner.Plan(context.Background(), clip.Request{VideoObjectID: fx.videoID.String(), End: time.Second})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "video object") {
		t.Fatalf("expected error to name the video object, got %v", err)
	}
	if len(fx.encoder.requests) != 0 {
		t.Fatalf("encoder ran without a video: %+v", fx.encoder.requests)
	}
}

func TestPlanRejectsInvalidRequests(t *testing.T) {
	fx := newFixture(t)
	cases := []clip.Request{
		{VideoObjectID: "", End: time.Second},
		{VideoObjectID: fx.videoID.String(), Start: 5 * time.Second, End: time.Second},
		{VideoObjectID: fx.videoID.String(), Start: -time.Second, End: time.Second},
		{VideoObjectID: fx.videoID.String(), End: time.Second, Pre: -time.Second},
		{VideoObjectID: "not-hex", End: time.Second},
	}
	for _, req := range cases {
		if _, err := fx.planner.Plan(context.Background(), req); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("Plan(%+v): expected invalid input, got %v", req, err)
		}
	}
}

func TestPlanEncoderFailure(t *testing.T) {
	fx := newFixture(t)
	fx.encoder.err = &apperr.Error{Kind: apperr.KindEncoder, Op: "ffmpeg cut", Output: "boom"}
	_, err := fx.planner.Plan(context.Background(), clip.Request{VideoObjectID: fx.videoID.String(), End: time.Second})
	if !errors.Is(err, apperr.ErrEncoder) {
		t.Fatalf("expected encoder failure, got %v", err)
	}
	if apperr.OutputOf(err) != "boom" {
		t.Fatalf("expected encoder output to survive, got %q", apperr.OutputOf(err))
	}
	entries, _ := os.ReadDir(fx.clipDir)
	var names bytes.Buffer
	for _, entry := range entries {
		names.WriteString(entry.Name() + " ")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no clip files after failure, found %s", names.String())
	}
}
