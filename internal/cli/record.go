package cli

import (
	"io"
	"slices"
	"strings"

	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// recordCmd returns the parent command for one record kind, e.g.
// "school-records student ...". Every subcommand is a factory closing over
// app, which is only populated once the root pre-run hook has run.
func recordCmd(app *App, kind types.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: "Manage " + plural(kind),
	}
	cmd.AddCommand(
		createCmd(app, kind),
		getCmd(app, kind),
		updateCmd(app, kind),
		deleteCmd(app, kind),
		listCmd(app, kind),
		searchCmd(app, kind),
	)
	return cmd
}

func plural(kind types.Kind) string {
	return string(kind) + "s"
}

// ─────────────────────────────────────────────────────────────────────────────
// createCmd handles "<kind> create".
//
// --id is optional; without it a short id is generated with the kind's
// prefix (S-, I-, C-). --age is taken as text so that "abc" is reported as
// a validation failure by the store.
// ─────────────────────────────────────────────────────────────────────────────
func createCmd(app *App, kind types.Kind) *cobra.Command {
	var f types.Fields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a " + string(kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(f.ID) == "" {
				f.ID = newID(kind)
			}
			app.Log.Info("creating a record", "kind", kind, "id", f.ID)

			rec, err := app.Store.Create(kind, f)
			if err != nil {
				return err
			}
			if err := app.commit(cmd.Context()); err != nil {
				return err
			}
			return app.render(rec, func(w io.Writer) {
				printf(w, "Created %s %s\n", kind, rec.Key())
				writeRecord(w, rec)
			})
		},
	}

	cmd.Flags().StringVar(&f.ID, "id", "", "Record id (generated when omitted)")
	cmd.Flags().StringVar(&f.Name, "name", "", "Display name (required)")
	if kind == types.KindCourse {
		cmd.Flags().StringVar(&f.Instructor, "instructor", "", "Instructor id to assign")
	} else {
		cmd.Flags().StringVar(&f.Age, "age", "", "Age in years (required)")
		cmd.Flags().StringVar(&f.Email, "email", "", "Email address (required)")
	}
	return cmd
}

// newID returns e.g. "S-1A2B3C4D".
func newID(kind types.Kind) string {
	prefix := strings.ToUpper(string(kind)[:1]) + "-"
	return prefix + strings.ToUpper(uuid.NewString()[:8])
}

func getCmd(app *App, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one " + string(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Store.Read(kind, args[0])
			if err != nil {
				return err
			}
			return app.render(rec, func(w io.Writer) {
				writeIntroduction(w, rec)
				writeRecord(w, rec)
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// updateCmd handles "<kind> update <id>". Only the flags given on the
// command line are changed; the store re-validates the merged record.
// ─────────────────────────────────────────────────────────────────────────────
func updateCmd(app *App, kind types.Kind) *cobra.Command {
	var name, age, email, instructor string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a " + string(kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p types.Patch
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = &name
			}
			if flags.Changed("age") {
				p.Age = &age
			}
			if flags.Changed("email") {
				p.Email = &email
			}
			if flags.Changed("instructor") {
				p.Instructor = &instructor
			}

			app.Log.Info("updating a record", "kind", kind, "id", args[0])
			rec, err := app.Store.Update(kind, args[0], p)
			if err != nil {
				return err
			}
			if err := app.commit(cmd.Context()); err != nil {
				return err
			}
			return app.render(rec, func(w io.Writer) {
				printf(w, "Updated %s %s\n", kind, rec.Key())
				writeRecord(w, rec)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	if kind == types.KindCourse {
		cmd.Flags().StringVar(&instructor, "instructor", "", `Instructor id ("" clears it)`)
	} else {
		cmd.Flags().StringVar(&age, "age", "", "New age")
		cmd.Flags().StringVar(&email, "email", "", "New email address")
	}
	return cmd
}

func deleteCmd(app *App, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + string(kind) + " and all of its links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Log.Info("deleting a record", "kind", kind, "id", args[0])
			if err := app.Store.Delete(kind, args[0]); err != nil {
				return err
			}
			if err := app.commit(cmd.Context()); err != nil {
				return err
			}
			return app.render(map[string]string{"status": "deleted", "id": args[0]}, func(w io.Writer) {
				printf(w, "Deleted %s %s\n", kind, args[0])
			})
		},
	}
}

func listCmd(app *App, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all " + plural(kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs := app.Store.List(kind)
			return app.render(recs, func(w io.Writer) {
				writeTable(w, kind, recs)
			})
		},
	}
}

func searchCmd(app *App, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Find " + plural(kind) + " whose id or name contains query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			recs := slices.Collect(app.Store.Search(kind, query))
			if recs == nil {
				recs = []types.Record{}
			}
			return app.render(recs, func(w io.Writer) {
				writeTable(w, kind, recs)
			})
		},
	}
}
