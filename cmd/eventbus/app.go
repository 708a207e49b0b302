package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-eventbus/di"
	"github.com/KOMKZ/go-yogan-eventbus/event"
	"github.com/KOMKZ/go-yogan-eventbus/flagx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// cliFlags persistent flags; tagged fields override config when non-zero
type cliFlags struct {
	ConfigDir  string `flag:"config" default:"./configs" usage:"directory holding config.yaml and <env>.yaml"`
	ConfigFile string `flag:"config-file" usage:"extra config file layered over the directory"`
	EnvPrefix  string `flag:"env-prefix" default:"EVENTBUS" usage:"environment variable prefix (EVENTBUS_EVENT_POOL_SIZE=8)"`

	Metrics  bool   `flag:"metrics" usage:"enable telemetry with the stdout exporter" config:"telemetry.enabled"`
	PoolSize int    `flag:"pool-size" usage:"ants pool size for async chains (0 keeps the configured value)" config:"event.pool_size"`
	LogLevel string `flag:"log-level" usage:"log level override" config:"logger.level"`
}

// cliApp runs one command against a fully wired bus, then shuts the stack down
type cliApp struct {
	*di.DoApplication
}

func newCLIApp(flags *cliFlags) *cliApp {
	return &cliApp{
		DoApplication: di.NewDoApplication(
			di.WithName("eventbus"),
			di.WithConfigPath(flags.ConfigDir),
			di.WithConfigFile(flags.ConfigFile),
			di.WithConfigPrefix(flags.EnvPrefix),
			di.WithFlags(flags),
		),
	}
}

// Execute sets up, hands the bus to fn and always shuts down afterwards
func (c *cliApp) Execute(ctx context.Context, fn func(context.Context, *event.Dispatcher) error) error {
	if err := c.Setup(); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	err := c.Start()
	if err == nil {
		var bus *event.Dispatcher
		if bus, err = c.Dispatcher(); err == nil {
			c.Logger().DebugCtx(ctx, "✅ CLI application initialized", zap.String("bus_id", bus.ID()))
			err = fn(ctx, bus)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := c.Shutdown(shutdownCtx)

	if err != nil {
		return err
	}
	return shutdownErr
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "eventbus",
		Short:         "In-process event bus playground",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cobra.CheckErr(flagx.Bind(root.PersistentFlags(), flags))

	root.AddCommand(newDemoCmd(flags), newBenchCmd(flags), newHealthCmd(flags))
	return root
}

func newDemoCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Register sample listeners, fire sync and async events, print the registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newCLIApp(flags).Execute(cmd.Context(), func(ctx context.Context, bus *event.Dispatcher) error {
				return runDemo(ctx, bus, cmd.OutOrStdout())
			})
		},
	}
}

func newBenchCmd(flags *cliFlags) *cobra.Command {
	opts := benchOptions{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Fire events from concurrent workers while listeners churn",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newCLIApp(flags).Execute(cmd.Context(), func(ctx context.Context, bus *event.Dispatcher) error {
				res, err := runBench(ctx, bus, opts)
				if err != nil {
					return err
				}
				res.print(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cobra.CheckErr(flagx.Bind(cmd.Flags(), &opts))
	return cmd
}

func newHealthCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Boot the stack and print the aggregated health report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := newCLIApp(flags)
			return app.Execute(cmd.Context(), func(ctx context.Context, _ *event.Dispatcher) error {
				report, err := app.Health(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				if !report.IsHealthy() {
					return fmt.Errorf("bus is %s", report.Status)
				}
				return nil
			})
		},
	}
}
