package clip

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"enchant/internal/apperr"
	"enchant/internal/subtitles"
)

var commandContext = exec.CommandContext

// CutRequest describes one excerpt to encode.
type CutRequest struct {
	Input    string
	Output   string
	Start    time.Duration
	Duration time.Duration
}

// Encoder produces a video excerpt.
type Encoder interface {
	Cut(ctx context.Context, req CutRequest) error
}

// FFmpegOption configures the ffmpeg encoder.
type FFmpegOption func(*FFmpeg)

// WithBinary overrides the ffmpeg executable.
func WithBinary(binary string) FFmpegOption {
	return func(f *FFmpeg) {
		if strings.TrimSpace(binary) != "" {
			f.binary = binary
		}
	}
}

// WithCodecs overrides the video and audio codecs passed to ffmpeg.
func WithCodecs(video, audio string) FFmpegOption {
	return func(f *FFmpeg) {
		if strings.TrimSpace(video) != "" {
			f.videoCodec = video
		}
		if strings.TrimSpace(audio) != "" {
			f.audioCodec = audio
		}
	}
}

// WithTimeout bounds each ffmpeg run. Zero disables the bound.
func WithTimeout(timeout time.Duration) FFmpegOption {
	return func(f *FFmpeg) {
		if timeout >= 0 {
			f.timeout = timeout
		}
	}
}

// FFmpeg re-encodes excerpts with the ffmpeg command-line tool.
type FFmpeg struct {
	binary     string
	videoCodec string
	audioCodec string
	timeout    time.Duration
}

// NewFFmpeg constructs an encoder using libx264/aac by default.
func NewFFmpeg(opts ...FFmpegOption) *FFmpeg {
	f := &FFmpeg{
		binary:     "ffmpeg",
		videoCodec: "libx264",
		audioCodec: "aac",
		timeout:    30 * time.Minute,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Args returns the ffmpeg arguments used for req.
func (f *FFmpeg) Args(req CutRequest) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-ss", subtitles.FormatClock(req.Start),
		"-t", strconv.FormatInt(int64(req.Duration/time.Second), 10),
		"-i", req.Input,
		"-c:v", f.videoCodec,
		"-c:a", f.audioCodec,
		req.Output,
	}
}

// Cut runs ffmpeg and reports a non-zero exit or timeout as KindEncoder with
// the captured output attached.
func (f *FFmpeg) Cut(ctx context.Context, req CutRequest) error {
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Output) == "" {
		return apperr.New(apperr.KindInvalidInput, "ffmpeg cut", req.Output, "input and output paths required")
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := commandContext(ctx, f.binary, f.Args(req)...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	var exitErr *exec.ExitError
	message := "ffmpeg failed"
	if errors.As(err, &exitErr) {
		message = fmt.Sprintf("ffmpeg exited with status %d", exitErr.ExitCode())
	}
	return &apperr.Error{
		Kind:    apperr.KindEncoder,
		Op:      "ffmpeg cut",
		Subject: req.Output,
		Message: message,
		Output:  strings.TrimSpace(string(output)),
		Err:     err,
	}
}

var _ Encoder = (*FFmpeg)(nil)
