package clip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
	"time"

	"enchant/internal/apperr"
)

func setHelperCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if captured != nil {
			*captured = append([]string{name}, args...)
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFMPEG_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "failure":
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		os.Exit(1)
	case "hang":
		time.Sleep(30 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func TestFFmpegArgs(t *testing.T) {
	var captured []string
	setHelperCommand(t, "success", &captured)

	enc := NewFFmpeg(WithBinary("/opt/ffmpeg"), WithCodecs("libx265", "opus"))
	err := enc.Cut(context.Background(), CutRequest{
		Input:    "/repo/objects/ab/cdef",
		Output:   "/clips/out.mp4",
		Start:    3723 * time.Second,
		Duration: 15 * time.Second,
	})
	if err != nil {
		t.Fatalf("Cut: %v", err)
	}
	want := []string{"/opt/ffmpeg", "-hide_banner", "-nostdin", "-ss", "01:02:03", "-t", "15",
		"-i", "/repo/objects/ab/cdef", "-c:v", "libx265", "-c:a", "opus", "/clips/out.mp4"}
	if !reflect.DeepEqual(captured, want) {
		t.Fatalf("unexpected args:\n%v\nwant\n%v", captured, want)
	}
}

func TestFFmpegDefaults(t *testing.T) {
	enc := NewFFmpeg(WithBinary(""), WithCodecs("", ""))
	if enc.binary != "ffmpeg" || enc.videoCodec != "libx264" || enc.audioCodec != "aac" {
		t.Fatalf("unexpected defaults: %+v", enc)
	}
	if enc.timeout != 30*time.Minute {
		t.Fatalf("unexpected default timeout: %s", enc.timeout)
	}
}

func TestFFmpegFailureCarriesOutput(t *testing.T) {
	setHelperCommand(t, "failure", nil)

	err := NewFFmpeg().Cut(context.Background(), CutRequest{Input: "in.mkv", Output: "out.mp4", Duration: time.Second})
	if !errors.Is(err, apperr.ErrEncoder) {
		t.Fatalf("expected encoder failure, got %v", err)
	}
	if out := apperr.OutputOf(err); !strings.Contains(out, "Invalid data found") {
		t.Fatalf("expected captured output, got %q", out)
	}
}

func TestFFmpegTimeout(t *testing.T) {
	setHelperCommand(t, "hang", nil)

	enc := NewFFmpeg(WithTimeout(200 * time.Millisecond))
	start := time.Now()
	err := enc.Cut(context.Background(), CutRequest{Input: "in.mkv", Output: "out.mp4", Duration: time.Second})
	if !errors.Is(err, apperr.ErrEncoder) {
		t.Fatalf("expected encoder failure, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestFFmpegRequiresPaths(t *testing.T) {
	err := NewFFmpeg().Cut(context.Background(), CutRequest{Output: "out.mp4"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
