package cli

import (
	"io"
	"os"
	"slices"

	"github.com/aanand-mishra/school-records/internal/export"
	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/spf13/cobra"
)

// searchAllCmd searches every kind at once.
func searchAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search students, instructors and courses by id or name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			found := make(map[types.Kind][]types.Record, len(types.Kinds))
			for _, kind := range types.Kinds {
				recs := slices.Collect(app.Store.Search(kind, query))
				if recs == nil {
					recs = []types.Record{}
				}
				found[kind] = recs
			}

			return app.render(found, func(w io.Writer) {
				total := 0
				for _, kind := range types.Kinds {
					for _, r := range found[kind] {
						printf(w, "%-10s ", kind)
						writeRecord(w, r)
						total++
					}
				}
				if total == 0 {
					printf(w, "No records match %q\n", query)
				}
			})
		},
	}
}

func exportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all records as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return export.WriteCSV(app.Out, app.Store)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteCSV(f, app.Store); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			app.Log.Info("exported records", "path", out)
			return app.render(map[string]string{"status": "exported", "path": out}, func(w io.Writer) {
				printf(w, "Exported to %s\n", out)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
