package cli

import (
	"io"

	"github.com/aanand-mishra/school-records/internal/relation"
	"github.com/aanand-mishra/school-records/internal/store"
	"github.com/spf13/cobra"
)

// linkDef describes one of the four link commands.
type linkDef struct {
	use      string
	short    string
	relation relation.Relation
	verb     string
	op       func(s *store.Store, participant, course string) error
}

var (
	registerLink = linkDef{
		use: "register <student-id> <course-id>", short: "Register a student for a course",
		relation: relation.Registration, verb: "Registered", op: (*store.Store).Register,
	}
	unregisterLink = linkDef{
		use: "unregister <student-id> <course-id>", short: "Remove a student's registration",
		relation: relation.Registration, verb: "Unregistered", op: (*store.Store).Unregister,
	}
	assignLink = linkDef{
		use: "assign <instructor-id> <course-id>", short: "Assign an instructor to a course",
		relation: relation.Assignment, verb: "Assigned", op: (*store.Store).Assign,
	}
	unassignLink = linkDef{
		use: "unassign <instructor-id> <course-id>", short: "Remove an instructor's assignment",
		relation: relation.Assignment, verb: "Unassigned", op: (*store.Store).Unassign,
	}
)

func linkCmd(app *App, def linkDef) *cobra.Command {
	return &cobra.Command{
		Use:   def.use,
		Short: def.short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			participant, course := args[0], args[1]
			app.Log.Info("changing link", "relation", def.relation,
				"participant", participant, "course", course)

			if err := def.op(app.Store, participant, course); err != nil {
				return err
			}
			if err := app.commit(cmd.Context()); err != nil {
				return err
			}

			result := map[string]string{
				"relation":    string(def.relation),
				"participant": participant,
				"course":      course,
			}
			return app.render(result, func(w io.Writer) {
				printf(w, "%s %s / %s\n", def.verb, participant, course)
			})
		},
	}
}
