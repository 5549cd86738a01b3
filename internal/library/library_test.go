package library_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"enchant/internal/apperr"
	"enchant/internal/clip"
	"enchant/internal/library"
	"enchant/internal/testsupport"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,000
Where is the money?

2
00:00:10,000 --> 00:00:12,500
The money is in the <i>bank</i>.

3
00:01:00,000 --> 00:01:02,000
Nobody moves.
`

func writeMovie(t *testing.T, dir, name, videoContent, subtitle string) (string, string) {
	t.Helper()
	video := testsupport.WriteBytes(t, filepath.Join(dir, name+".mkv"), []byte(videoContent))
	sub := testsupport.WriteBytes(t, filepath.Join(dir, name+".srt"), []byte(subtitle))
	return video, sub
}

func TestSubmitSearchAndClip(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) }
	lib := testsupport.MustOpenLibrary(t, cfg, library.WithClock(clock))
	ctx := context.Background()

	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "Heat", "video-bytes-heat", sampleSRT)
	movie, err := lib.Submit(ctx, video, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if movie.Name != "Heat.mkv" || movie.SubtitleFormat != ".srt" || movie.ID == 0 {
		t.Fatalf("unexpected movie %+v", movie)
	}
	if !lib.Objects().Exists(mustID(t, movie.VideoObjectID)) || !lib.Objects().Exists(mustID(t, movie.SubtitleObjectID)) {
		t.Fatal("expected both objects stored")
	}

	page, err := lib.Search(ctx, "money", 1, cfg.Search.PageSize)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page == nil || page.Total != 2 || len(page.Results) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, result := range page.Results {
		if result.Movie == nil || result.Movie.ID != movie.ID {
			t.Fatalf("result without movie: %+v", result)
		}
	}
	bank, err := lib.Search(ctx, "bank", 1, 10)
	if err != nil || bank == nil {
		t.Fatalf("Search bank: %+v %v", bank, err)
	}
	hit := bank.Results[0]
	if hit.Content != "The money is in the bank." || hit.Start != "00:00:10,000" || hit.End != "00:00:12,500" || hit.SequenceIndex != 2 {
		t.Fatalf("unexpected hit %+v", hit)
	}

	artifact, err := lib.Clip(ctx, clip.Request{
		VideoObjectID: movie.VideoObjectID,
		Start:         10 * time.Second,
		End:           12500 * time.Millisecond,
		Pre:           500 * time.Millisecond,
		Post:          2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Clip: %v", err)
	}
	wantVideo := filepath.Join(cfg.Paths.ClipDir, "20240601120000_000009_to_000015.Heat.mkv.mp4")
	if artifact.VideoPath != wantVideo {
		t.Fatalf("video path %q want %q", artifact.VideoPath, wantVideo)
	}
	if _, err := os.Stat(artifact.VideoPath); err != nil {
		t.Fatalf("expected stub ffmpeg to create output: %v", err)
	}
	data, err := os.ReadFile(artifact.SubtitlePath)
	if err != nil {
		t.Fatalf("read subtitle clip: %v", err)
	}
	if want := "1\n00:00:01,000 --> 00:00:03,500\nThe money is in the <i>bank</i>.\n\n"; string(data) != want {
		t.Fatalf("subtitle clip %q want %q", data, want)
	}
}

func TestSubmitRejectsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()
	base := testsupport.BaseDir(cfg)

	video, sub := writeMovie(t, base, "first", "same-video", sampleSRT)
	if _, err := lib.Submit(ctx, video, sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := lib.Submit(ctx, video, sub); !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate on resubmission, got %v", err)
	}

	otherVideo, _ := writeMovie(t, base, "second", "different-video", sampleSRT)
	if _, err := lib.Submit(ctx, otherVideo, sub); !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected duplicate subtitle, got %v", err)
	}

	count, err := lib.Index().Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("expected index untouched by duplicates, got %d (%v)", count, err)
	}
	movies, err := lib.Movies(ctx)
	if err != nil || len(movies) != 1 {
		t.Fatalf("expected one movie, got %d (%v)", len(movies), err)
	}
}

func TestSubmitPrecheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()
	base := testsupport.BaseDir(cfg)

	video, sub := writeMovie(t, base, "movie", "v", sampleSRT)
	avi := testsupport.WriteBytes(t, filepath.Join(base, "movie.avi"), []byte("v"))
	txt := testsupport.WriteBytes(t, filepath.Join(base, "movie.txt"), []byte(sampleSRT))
	upper := testsupport.WriteBytes(t, filepath.Join(base, "LOUD.MKV"), []byte("loud"))

	cases := []struct {
		name     string
		video    string
		subtitle string
		want     error
	}{
		{"missing video", filepath.Join(base, "nope.mkv"), sub, apperr.ErrNotFound},
		{"missing subtitle", video, filepath.Join(base, "nope.srt"), apperr.ErrNotFound},
		{"video format", avi, sub, apperr.ErrFormatUnsupported},
		{"subtitle format", video, txt, apperr.ErrFormatUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := lib.Submit(ctx, tc.video, tc.subtitle); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := lib.Submit(ctx, upper, sub); err != nil {
		t.Fatalf("expected extension check to ignore case: %v", err)
	}
}

func TestSubmitNormalizesLegacyEncoding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()
	base := testsupport.BaseDir(cfg)

	// "你好 世界" in GBK.
	gbk := append([]byte("1\r\n00:00:01,000 --> 00:00:02,000\r\n"), 0xC4, 0xE3, 0xBA, 0xC3, ' ', 0xCA, 0xC0, 0xBD, 0xE7, '\r', '\n')
	video := testsupport.WriteBytes(t, filepath.Join(base, "cn.mp4"), []byte("cn-video"))
	sub := testsupport.WriteBytes(t, filepath.Join(base, "cn.srt"), gbk)

	movie, err := lib.Submit(ctx, video, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored, err := lib.Objects().ReadAll(mustID(t, movie.SubtitleObjectID))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !strings.Contains(string(stored), "你好 世界") || strings.Contains(string(stored), "\r") {
		t.Fatalf("expected normalized UTF-8 subtitle, got %q", stored)
	}

	page, err := lib.Search(ctx, "你好", 1, 10)
	if err != nil || page == nil || page.Total != 1 {
		t.Fatalf("expected CJK search hit, got %+v %v", page, err)
	}
}

func TestSubmitRejectsMalformedSubtitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	base := testsupport.BaseDir(cfg)
	video, sub := writeMovie(t, base, "broken", "broken-video", "1\nnot a timing line\nhello\n")

	if _, err := lib.Submit(context.Background(), video, sub); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if movies, _ := lib.Movies(context.Background()); len(movies) != 0 {
		t.Fatalf("expected no movie, got %d", len(movies))
	}
}

func TestSearchPagination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	var b strings.Builder
	for i := 0; i < 16; i++ {
		fmt.Fprintf(&b, "%d\n00:00:%02d,000 --> 00:00:%02d,500\nhold the line\n\n", i+1, i, i)
	}
	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "lines", "lines-video", b.String())
	if _, err := lib.Submit(ctx, video, sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first, err := lib.Search(ctx, "line", 1, 15)
	if err != nil || first == nil {
		t.Fatalf("Search: %+v %v", first, err)
	}
	if first.Count != 2 || first.Offset != 0 || len(first.Results) != 15 || first.Last() != 15 {
		t.Fatalf("unexpected first page %+v", first)
	}
	second, err := lib.Search(ctx, "line", 2, 15)
	if err != nil || second == nil {
		t.Fatalf("Search: %+v %v", second, err)
	}
	if second.Offset != 15 || len(second.Results) != 1 {
		t.Fatalf("unexpected second page %+v", second)
	}

	none, err := lib.Search(ctx, "absent", 1, 15)
	if err != nil || none != nil {
		t.Fatalf("expected nil page, got %+v %v", none, err)
	}
}

func TestClipHits(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "Heat", "heat-video", sampleSRT)
	if _, err := lib.Submit(ctx, video, sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	page, err := lib.Search(ctx, "money", 1, 10)
	if err != nil || page == nil {
		t.Fatalf("Search: %+v %v", page, err)
	}

	results := append(page.Results, library.Result{})
	artifacts, err := lib.ClipHits(ctx, results, 0, time.Second)
	if len(artifacts) != 2 {
		t.Fatalf("expected two clips, got %d", len(artifacts))
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected orphan result to be reported, got %v", err)
	}
	if artifacts[0].VideoPath == artifacts[1].VideoPath {
		t.Fatal("expected distinct clip paths")
	}
}

func TestClipHitsPassesPaddedWindowsToEncoder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	encoder := &recordingEncoder{}
	lib := testsupport.MustOpenLibrary(t, cfg, library.WithEncoder(encoder))
	ctx := context.Background()

	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "Heat", "heat-video", sampleSRT)
	movie, err := lib.Submit(ctx, video, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	page, err := lib.Search(ctx, "money", 1, 10)
	if err != nil || page == nil {
		t.Fatalf("Search: %+v %v", page, err)
	}
	artifacts, err := lib.ClipHits(ctx, page.Results, 500*time.Millisecond, time.Second)
	if err != nil || len(artifacts) != 2 {
		t.Fatalf("ClipHits: %d artifacts, %v", len(artifacts), err)
	}
	if len(encoder.cuts) != 2 {
		t.Fatalf("expected two cuts, got %+v", encoder.cuts)
	}
	cuts := append([]clip.CutRequest(nil), encoder.cuts...)
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Start < cuts[j].Start })
	want := []struct{ start, duration time.Duration }{
		{0, 4 * time.Second},
		{9 * time.Second, 5 * time.Second},
	}
	videoPath := lib.Objects().Path(mustID(t, movie.VideoObjectID))
	for i, cut := range cuts {
		if cut.Start != want[i].start || cut.Duration != want[i].duration {
			t.Fatalf("cut %d: start %s duration %s, want %s %s", i, cut.Start, cut.Duration, want[i].start, want[i].duration)
		}
		if cut.Input != videoPath {
			t.Fatalf("cut %d read %q, want %q", i, cut.Input, videoPath)
		}
		if filepath.Dir(cut.Output) != cfg.Paths.ClipDir {
			t.Fatalf("cut %d wrote outside the clip dir: %q", i, cut.Output)
		}
	}
}

func TestClipEncoderFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubScript("ffmpeg", "#!/bin/sh\necho 'moov atom not found' >&2\nexit 1\n"))
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "Heat", "heat-video", sampleSRT)
	movie, err := lib.Submit(ctx, video, sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = lib.Clip(ctx, clip.Request{VideoObjectID: movie.VideoObjectID, Start: time.Second, End: 2 * time.Second})
	if !errors.Is(err, apperr.ErrEncoder) {
		t.Fatalf("expected encoder failure, got %v", err)
	}
	if !strings.Contains(apperr.OutputOf(err), "moov atom not found") {
		t.Fatalf("expected encoder output, got %q", apperr.OutputOf(err))
	}
}

func TestReindexRebuildsFromCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	lib := testsupport.MustOpenLibrary(t, cfg)
	ctx := context.Background()

	video, sub := writeMovie(t, testsupport.BaseDir(cfg), "Heat", "heat-video", sampleSRT)
	if _, err := lib.Submit(ctx, video, sub); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := lib.Index().Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if page, _ := lib.Search(ctx, "money", 1, 10); page != nil {
		t.Fatal("expected empty index after reset")
	}

	n, err := lib.Reindex(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Reindex = %d, %v", n, err)
	}
	page, err := lib.Search(ctx, "money", 1, 10)
	if err != nil || page == nil || page.Total != 2 {
		t.Fatalf("expected hits after reindex, got %+v %v", page, err)
	}

	stats, err := lib.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Objects != 2 || stats.Movies != 1 || stats.Documents != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
