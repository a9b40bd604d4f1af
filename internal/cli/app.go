package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/aanand-mishra/school-records/internal/config"
	"github.com/aanand-mishra/school-records/internal/storage"
	"github.com/aanand-mishra/school-records/internal/store"
	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/aanand-mishra/school-records/internal/utils/response"
)

// App is what every command closes over. It is filled in by the root
// command's pre-run hook, after flags are parsed and before the
// subcommand runs.
type App struct {
	Config  *config.Config
	Log     *slog.Logger
	Storage storage.Storage
	Store   *store.Store

	Out  io.Writer
	JSON bool
}

// open loads config, builds the logger, opens the configured backend and
// restores the store from its snapshot.
func (a *App) open(ctx context.Context, configFlag string, logOut io.Writer) error {
	cfg, err := config.Load(config.Path(configFlag))
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Log = setupLogger(cfg.Env, logOut)

	st, err := storage.Open(cfg, a.Log)
	if err != nil {
		return err
	}
	a.Storage = st

	snap, err := st.Load(ctx)
	if err != nil {
		return err
	}
	a.Store = store.New(a.Log)
	if err := a.Store.Restore(snap); err != nil {
		return &types.PersistenceError{Op: "load", Path: cfg.Storage.Path, Err: err}
	}

	a.Log.Debug("store ready",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Storage.Path),
		slog.Int("students", a.Store.Len(types.KindStudent)),
		slog.Int("instructors", a.Store.Len(types.KindInstructor)),
		slog.Int("courses", a.Store.Len(types.KindCourse)))
	return nil
}

// commit saves the store after a mutating command.
func (a *App) commit(ctx context.Context) error {
	snap, err := a.Store.Snapshot()
	if err != nil {
		return err
	}
	return a.Storage.Save(ctx, snap)
}

func (a *App) close() {
	if a.Storage == nil {
		return
	}
	if err := a.Storage.Close(); err != nil {
		a.Log.Error("failed to close storage", slog.String("error", err.Error()))
	}
}

// render writes v as a JSON envelope in --json mode, otherwise calls human.
func (a *App) render(v any, human func(w io.Writer)) error {
	if a.JSON {
		return response.WriteJSON(a.Out, response.OK(v))
	}
	human(a.Out)
	return nil
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
//
// Logs go to w (stderr in main) so they never mix with command output.
func setupLogger(env string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
