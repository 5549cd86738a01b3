package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"enchant/internal/apperr"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			if output := strings.TrimSpace(apperr.OutputOf(err)); output != "" {
				fmt.Fprintln(os.Stderr, indent(output, "    "))
			}
		}
		os.Exit(1)
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
