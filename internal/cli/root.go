// Package cli wires the cppgraph command line: flag handling, config
// resolution, sink selection, and the end-of-run report.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cppgraph/cppgraph/internal/compdb"
	"github.com/cppgraph/cppgraph/internal/config"
	"github.com/cppgraph/cppgraph/internal/discover"
	"github.com/cppgraph/cppgraph/internal/pipeline"
	"github.com/cppgraph/cppgraph/internal/store"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

// Root builds the cppgraph command. The single positional argument is a
// compile_commands.json path or a project directory to search for one.
func Root() *cobra.Command {
	var (
		filter     string
		dumpPath   string
		dbPath     string
		configPath string
		noFollow   bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:     "cppgraph <compile_commands.json | project-dir>",
		Short:   "Index C++ translation units into a queryable AST graph",
		Long: `cppgraph parses every C++ source file named by a clang-style
compilation database and persists the program structure as a graph:
declarations, types, statements, expressions, control flow, templates,
inheritance, macros and comments, connected by typed relationships.

The graph is written either to a SQLite database (--output-db) or as a
SQL statement stream (--output) that loads directly into sqlite3.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dumpPath == "") == (dbPath == "") {
				return fmt.Errorf("exactly one of --output and --output-db is required")
			}

			_ = godotenv.Load()
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			if noFollow {
				cfg.Index.NoFollowIncludes = true
			}
			setupLogging(cfg.Logging.Level)

			dbFile, err := discover.CompilationDatabase(args[0])
			if err != nil {
				return err
			}
			entries, err := compdb.Load(dbFile)
			if err != nil {
				return err
			}
			entries, err = compdb.Filter(entries, filter)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				st     *store.Store
				sink   store.Sink
				target string
			)
			if dbPath != "" {
				st, err = store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				sink = store.NewTxSink(st, cfg.Batch.CommitThreshold)
				target = dbPath
			} else {
				dump, err := store.NewDumpSink(dumpPath)
				if err != nil {
					return err
				}
				if err := dump.Preamble(store.SchemaSQL()); err != nil {
					return err
				}
				sink = dump
				target = dumpPath
			}

			p := pipeline.New(ctx, cfg, st, sink, entries)
			if err := p.Run(); err != nil {
				return err
			}

			stats := p.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "indexed %d files (%d skipped)\n", stats.Files, stats.SkippedFiles)
			fmt.Fprintf(out, "%d nodes, %d relationships, %d failed statements\n",
				stats.Nodes, stats.Relations, stats.FailedStatements)
			fmt.Fprintf(out, "wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "index only entries matching this glob or substring")
	cmd.Flags().StringVarP(&dumpPath, "output", "o", "", "write the graph as a SQL statement stream to this file")
	cmd.Flags().StringVar(&dbPath, "output-db", "", "write the graph to this SQLite database")
	cmd.Flags().BoolVar(&noFollow, "no-follow-includes", false, "do not index headers reached through quoted includes")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: cppgraph.yaml, searched upward)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	return cmd
}

// loadConfig resolves the run configuration. An explicit --config path
// must exist; the default search tolerates absence.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load(".")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return config.LoadFromPath(path)
}

func setupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(level),
	})))
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
