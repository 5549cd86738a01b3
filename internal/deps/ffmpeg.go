package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

const versionTimeout = 5 * time.Second

// CheckFFmpeg resolves binary and records the version line it reports.
// A binary that resolves but fails to report a version is still considered
// available; the failure is recorded in Detail.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	status := CheckBinaries(Requirements(binary))[0]
	if !status.Available {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	output, err := commandContext(ctx, status.Command, "-hide_banner", "-version").Output()
	if err != nil {
		status.Detail = "version probe failed: " + err.Error()
		return status
	}
	status.Version = parseVersion(output)
	return status
}

// parseVersion extracts the version token from the first line of
// "ffmpeg -version" output, e.g. "ffmpeg version 6.1.1 Copyright ...".
func parseVersion(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(scanner.Text())
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(scanner.Text())
}
