// Package commands implements the urlcluster CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/urlcluster/internal/cli/config"
	"github.com/leapstack-labs/urlcluster/internal/cli/output"
	"github.com/leapstack-labs/urlcluster/internal/metrics"
	"github.com/leapstack-labs/urlcluster/internal/metrics/prompush"
	"github.com/leapstack-labs/urlcluster/internal/state"
	"github.com/leapstack-labs/urlcluster/pkg/adapter"
	_ "github.com/leapstack-labs/urlcluster/pkg/adapters/duckdb"   // register duckdb
	_ "github.com/leapstack-labs/urlcluster/pkg/adapters/postgres" // register postgres
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds a CommandContext from the command's context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// OpenAdapter connects to the configured target. The returned cleanup closes
// the connection.
func (c *CommandContext) OpenAdapter(ctx context.Context) (adapter.Adapter, func(), error) {
	acfg := c.Cfg.Target.AdapterConfig()
	adp, err := adapter.NewAdapter(acfg, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	if err := adp.Connect(ctx, acfg); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s target: %w", acfg.Type, err)
	}
	return adp, func() { _ = adp.Close() }, nil
}

// OpenState opens and migrates the run ledger.
func (c *CommandContext) OpenState(ctx context.Context) (*state.SQLiteStore, error) {
	store, err := state.OpenStore(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state at %s: %w", c.Cfg.StatePath, err)
	}
	return store, nil
}

// SetupMetrics installs the Pushgateway backend when one is configured. The
// returned flush pushes collected metrics and restores the no-op backend.
func (c *CommandContext) SetupMetrics() (flush func(), err error) {
	mc := c.Cfg.Metrics
	if mc.PushgatewayURL == "" {
		return func() {}, nil
	}
	b, err := prompush.NewBackend(mc.Job, mc.PushgatewayURL)
	if err != nil {
		return nil, err
	}
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			c.Logger.Warn("failed to push metrics", slog.String("url", mc.PushgatewayURL), slog.Any("error", err))
		}
		metrics.SetBackend(nil)
	}, nil
}
