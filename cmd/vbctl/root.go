package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whokrish/vectorbeats/internal/app"
	"github.com/whokrish/vectorbeats/internal/config"
	domcol "github.com/whokrish/vectorbeats/internal/domain/collection"
	"github.com/whokrish/vectorbeats/internal/domain/metadata"
	"github.com/whokrish/vectorbeats/internal/domain/search/filter"
	logpkg "github.com/whokrish/vectorbeats/internal/logger"
	collectionuc "github.com/whokrish/vectorbeats/internal/usecase/collection"
)

// operator is the subset of the vector service the CLI drives.
type operator interface {
	EnsureCollections(ctx context.Context) error
	AllCollectionsInfo(ctx context.Context) []collectionuc.Description
	Count(ctx context.Context, collection string, f filter.Expression) (int, error)
	Snapshot(ctx context.Context, name string) (domcol.Snapshot, error)
}

// opener connects to the configured backend. The returned func releases it.
type opener func(ctx context.Context, env string) (operator, func(), error)

func newRootCmd(open opener) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:           "vbctl",
		Short:         "Operate vectorbeats collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (local, docker, prod)")

	run := func(fn func(ctx context.Context, op operator, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			op, closeFn, err := open(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(cmd.Context(), op, cmd.OutOrStdout())
		}
	}

	ensure := &cobra.Command{
		Use:   "ensure",
		Short: "Create configured collections and payload indexes",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, op operator, out io.Writer) error {
			if err := op.EnsureCollections(ctx); err != nil {
				return fmt.Errorf("ensure collections: %w", err)
			}
			return printCollections(out, op.AllCollectionsInfo(ctx))
		}),
	}

	collections := &cobra.Command{
		Use:   "collections",
		Short: "Describe configured collections",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, op operator, out io.Writer) error {
			return printCollections(out, op.AllCollectionsInfo(ctx))
		}),
	}

	var rawFilter string
	count := &cobra.Command{
		Use:   "count <collection>",
		Short: "Count points, optionally narrowed by a JSON filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFilter(rawFilter)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, op operator, out io.Writer) error {
				n, err := op.Count(ctx, args[0], f)
				if err != nil {
					return fmt.Errorf("count %s: %w", args[0], err)
				}
				return printJSON(out, map[string]any{"collection": args[0], "count": n})
			})(cmd, args)
		},
	}
	count.Flags().StringVar(&rawFilter, "filter", "", `filter as JSON, e.g. '{"genre":["rock","jazz"]}'`)

	snapshot := &cobra.Command{
		Use:   "snapshot <collection>",
		Short: "Create a backend snapshot of one collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, op operator, out io.Writer) error {
				snap, err := op.Snapshot(ctx, args[0])
				if err != nil {
					return fmt.Errorf("snapshot %s: %w", args[0], err)
				}
				return printJSON(out, snap)
			})(cmd, args)
		},
	}

	root.AddCommand(ensure, collections, count, snapshot)
	return root
}

func parseFilter(raw string) (filter.Expression, error) {
	if raw == "" {
		return filter.Expression{}, nil
	}
	var m metadata.Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return filter.Expression{}, fmt.Errorf("--filter: %w", err)
	}
	f, err := filter.Parse(m)
	if err != nil {
		return filter.Expression{}, fmt.Errorf("--filter: %w", err)
	}
	return f, nil
}

type collectionLine struct {
	Name        string `json:"name"`
	Dimension   int    `json:"dimension,omitempty"`
	Metric      string `json:"metric,omitempty"`
	PointsCount int    `json:"points_count"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

func printCollections(out io.Writer, descs []collectionuc.Description) error {
	lines := make([]collectionLine, len(descs))
	for i, d := range descs {
		if d.Err != nil {
			lines[i] = collectionLine{Name: d.Name, Status: string(domcol.StatusUnknown), Error: d.Err.Error()}
			continue
		}
		lines[i] = collectionLine{
			Name:        d.Name,
			Dimension:   d.Info.Schema.Dimension(),
			Metric:      string(d.Info.Schema.Metric()),
			PointsCount: d.Info.PointsCount,
			Status:      string(d.Info.Status),
		}
	}
	return printJSON(out, lines)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// openBackend loads config for env and composes the vector service.
func openBackend(ctx context.Context, env string) (operator, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := app.OpenStore(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		store.Close()
		_ = logger.Sync()
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Debug("connected", zap.String("backend", store.Backend().Kind))

	svc, err := app.New(&cfg, store, logger)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc.Vectors, closeFn, nil
}
