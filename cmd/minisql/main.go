// Command minisql is the interactive shell over the on-disk B+ tree
// table: `minisql <database-filename>` opens (or creates) the file and
// enters a `db > ` prompt.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"minisql/internal/engine"
	"minisql/internal/repl"
	"minisql/internal/table"
	"minisql/internal/xerrors"
)

// cli is the single, flat command surface spec.md §6 calls for: one
// positional database file, one logging knob. Modeled on
// FocuswithJustin-JuniperBible/cmd/capsule's kong.Parse(&CLI, ...)
// convention, scaled down to the one command this program has.
var cli struct {
	Database string `arg:"" help:"Path to the database file (created if it does not exist)."`
	LogLevel string `name:"log-level" default:"error" enum:"debug,info,warn,error" help:"Minimum level for diagnostic logging."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("minisql"),
		kong.Description("A toy disk-backed B+ tree table with an interactive REPL."),
		kong.UsageOnError(),
	)

	log := newLogger(cli.LogLevel)

	tbl, err := table.Open(cli.Database)
	if err != nil {
		reportAndExit(log, err)
	}
	defer tbl.Close()

	e := engine.New(tbl, os.Stdout)
	r := repl.New(e, os.Stdout, log)
	r.DBPath = cli.Database
	r.FileSize = tbl.Pager.FileSize()

	if err := r.Run(context.Background(), os.Stdin); err != nil {
		reportAndExit(log, err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

func reportAndExit(log *slog.Logger, err error) {
	if xerrors.IsFatal(err) {
		log.Error("fatal error", "error", fmt.Sprintf("%+v", err))
	} else {
		log.Error("fatal error", "error", err)
	}
	os.Exit(1)
}
