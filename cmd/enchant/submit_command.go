package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"enchant/internal/library"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var videoPath, subtitlePath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit --video <path> --subtitle <path>",
		Short: "Store a movie and its subtitle and make the subtitle searchable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := filepath.Abs(videoPath)
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			subtitle, err := filepath.Abs(subtitlePath)
			if err != nil {
				return fmt.Errorf("resolve subtitle path: %w", err)
			}

			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				movie, err := lib.Submit(cmd.Context(), video, subtitle)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, movie)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Submitted %s as movie #%d\n  video object:    %s\n  subtitle object: %s\n",
					movie.Name, movie.ID, movie.VideoObjectID, movie.SubtitleObjectID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "Video file (.mp4 or .mkv)")
	cmd.Flags().StringVar(&subtitlePath, "subtitle", "", "Subtitle file (.srt or .ass)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalogued movie as JSON")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("subtitle")
	return cmd
}
