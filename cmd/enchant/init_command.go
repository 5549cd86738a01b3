package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"enchant/internal/config"
	"enchant/internal/library"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Write a default configuration and create an empty repository",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			target := ctx.configPath()
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			switch _, err := os.Stat(target); {
			case err == nil:
				fmt.Fprintf(out, "Using existing configuration %s\n", target)
			case errors.Is(err, os.ErrNotExist):
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return fmt.Errorf("create config directory: %w", err)
				}
				if err := config.CreateSample(target); err != nil {
					return fmt.Errorf("create sample config: %w", err)
				}
				fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			default:
				return fmt.Errorf("check config path: %w", err)
			}

			*ctx.configFlag = target
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				fmt.Fprintf(out, "Repository ready at %s\n", lib.RepoDir())
				return nil
			})
		},
	}
}
