package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"enchant/internal/clip"
	"enchant/internal/library"
	"enchant/internal/subtitles"
)

func newClipCommand(ctx *commandContext) *cobra.Command {
	var startFlag, endFlag, videoID string
	var jsonOutput bool
	var padding paddingFlags

	cmd := &cobra.Command{
		Use:   "clip --start <hh:mm:ss,mmm> --end <hh:mm:ss,mmm> --video-object-id <id>",
		Short: "Cut a video clip and the matching subtitle excerpt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			start, err := subtitles.ParseSRTTimestamp(startFlag)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := subtitles.ParseSRTTimestamp(endFlag)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			pre, post, err := padding.resolve(cmd, cfg)
			if err != nil {
				return err
			}

			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				artifact, err := lib.Clip(cmd.Context(), clip.Request{
					VideoObjectID: videoID,
					Start:         start,
					End:           end,
					Pre:           pre,
					Post:          post,
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, artifact)
				}
				printArtifacts(cmd.OutOrStdout(), []clip.Artifact{artifact})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "Start time (hh:mm:ss,mmm)")
	cmd.Flags().StringVar(&endFlag, "end", "", "End time (hh:mm:ss,mmm)")
	cmd.Flags().StringVar(&videoID, "video-object-id", "", "Video object id printed by submit or search")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the clip paths as JSON")
	padding.register(cmd)
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("video-object-id")
	return cmd
}
