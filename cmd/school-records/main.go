// main is the entry point of the school-records command.
//
// STARTUP SEQUENCE (per invocation):
//  1. Parse flags and load configuration (YAML file and/or environment)
//  2. Initialise the logger for the configured environment
//  3. Open the configured storage (JSON snapshot or SQLite file)
//  4. Restore the entity store from the stored snapshot
//  5. Run one command; save the snapshot again if it changed anything
//
// RUNNING:
//
//	go run ./cmd/school-records --config=config/local.yaml student list
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/school-records student list
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/school-records/internal/cli"
)

func main() {
	// Ctrl+C or SIGTERM cancels the context, which aborts an in-flight
	// save before it commits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
