package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"enchant/internal/catalog"
	"enchant/internal/library"
)

func newMoviesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "movies",
		Aliases: []string{"ls"},
		Short:   "List submitted movies",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLibrary(cmd, func(lib *library.Library) error {
				movies, err := lib.Movies(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if movies == nil {
						movies = []*catalog.Movie{}
					}
					return writeJSON(cmd, movies)
				}
				out := cmd.OutOrStdout()
				if len(movies) == 0 {
					fmt.Fprintln(out, "No movies submitted yet.")
					return nil
				}
				rows := make([][]string, 0, len(movies))
				for _, movie := range movies {
					rows = append(rows, []string{
						strconv.FormatInt(movie.ID, 10),
						movie.Name,
						movie.VideoObjectID,
						movie.SubtitleFormat,
						movie.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Video Object", "Subtitle", "Added"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print movies as JSON")
	return cmd
}
