package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"enchant/internal/clip"
	"enchant/internal/library"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var pageNum, pageSize int
	var autoClip, jsonOutput bool
	var padding paddingFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search subtitle lines",
		Long: `Search subtitle lines across every submitted movie.

Terms are combined with AND. Prefix a term with - (or NOT) to exclude it,
use OR between terms for alternatives, quote phrases, and end a term with *
for a prefix match.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("page-size") {
				pageSize = cfg.Search.PageSize
			}
			pre, post, err := padding.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")

			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				page, err := lib.Search(cmd.Context(), query, pageNum, pageSize)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					if page == nil {
						page = &library.SearchPage{Number: pageNum, Size: pageSize, Results: []library.Result{}}
					}
					if err := writeJSON(cmd, page); err != nil {
						return err
					}
				} else if page == nil {
					fmt.Fprintln(out, "Nothing found.")
					return nil
				} else {
					printSearchPage(out, page, shouldColorize(out))
				}

				if !autoClip || page == nil || len(page.Results) == 0 {
					return nil
				}
				artifacts, clipErr := lib.ClipHits(cmd.Context(), page.Results, pre, post)
				if !jsonOutput {
					printArtifacts(out, artifacts)
				}
				return clipErr
			})
		},
	}

	cmd.Flags().IntVarP(&pageNum, "page", "p", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Results per page (default search.page_size)")
	cmd.Flags().BoolVar(&autoClip, "auto-clip-all", false, "Cut a clip for every result on the page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result page as JSON")
	padding.register(cmd)
	return cmd
}

func printSearchPage(out io.Writer, page *library.SearchPage, colorize bool) {
	fmt.Fprintf(out, "page %d/%d, result %d - %d of total %d.\n",
		page.Number, page.Count, page.Offset+1, page.Last(), page.Total)
	if len(page.Results) == 0 {
		return
	}

	rows := make([][]string, 0, len(page.Results))
	for i, result := range page.Results {
		rows = append(rows, []string{
			strconv.Itoa(page.Offset + i + 1),
			result.Start + " --> " + result.End,
			movieName(result),
			strings.ReplaceAll(result.Content, "\n", " "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Time", "Movie", "Line"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))

	for i, result := range page.Results {
		if result.Movie == nil {
			continue
		}
		command := fmt.Sprintf("enchant clip --start %s --end %s --video-object-id %s",
			result.Start, result.End, result.Movie.VideoObjectID)
		fmt.Fprintf(out, "%3d  %s\n", page.Offset+i+1, highlight(command, colorize))
	}
}

func printArtifacts(out io.Writer, artifacts []clip.Artifact) {
	if len(artifacts) == 0 {
		return
	}
	fmt.Fprintf(out, "\nCut %d clip(s):\n", len(artifacts))
	for _, artifact := range artifacts {
		fmt.Fprintf(out, "  %s\n  %s (%d lines)\n", artifact.VideoPath, artifact.SubtitlePath, artifact.Cues)
	}
}

func movieName(result library.Result) string {
	if result.Movie == nil {
		return "(uncatalogued " + shortID(result.ObjectID) + ")"
	}
	return result.Movie.Name
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
