// Package cli is the command-line caller of the entity store.
//
// Each invocation loads the configured snapshot, runs one store operation,
// and saves again if the operation changed anything:
//
//	school-records student create --id S1 --name Ann --age 20 --email a@x.com
//	school-records course create --id C1 --name Math
//	school-records register S1 C1
//	school-records student get S1 --json
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/aanand-mishra/school-records/internal/utils/response"
	"github.com/spf13/cobra"
)

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{Out: stdout}
	root := newRootCmd(app, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	app.close()
	if err == nil {
		return ExitSuccess
	}

	if app.JSON {
		_ = response.WriteJSON(stdout, response.GeneralError(err))
	} else {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitCode(err)
}

func newRootCmd(app *App, logOut io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "school-records",
		Short: "Keep student, instructor and course records",
		Long: `Keep student, instructor and course records, with registrations
(student ↔ course) and assignments (instructor ↔ course).

The store is loaded from the configured JSON or SQLite file before each
command and saved after every change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context(), configPath, logOut)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration YAML file (or CONFIG_PATH)")
	root.PersistentFlags().BoolVar(&app.JSON, "json", false, "Output in JSON format")

	root.AddCommand(
		recordCmd(app, types.KindStudent),
		recordCmd(app, types.KindInstructor),
		recordCmd(app, types.KindCourse),
		linkCmd(app, registerLink),
		linkCmd(app, unregisterLink),
		linkCmd(app, assignLink),
		linkCmd(app, unassignLink),
		searchAllCmd(app),
		exportCmd(app),
	)
	return root
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrPersistence):
		return ExitDataErr
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrDuplicateKey):
		return ExitValidation
	case errors.Is(err, types.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, types.ErrDanglingReference):
		return ExitDataErr
	}
	return ExitError
}
