// Package app provides the CLI for the mcp-confluent server.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/auth"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/healthcheck"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/mcp"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/telemetry"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/types"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/versions"
)

// shutdownTimeout bounds how long a signal-triggered shutdown may take.
const shutdownTimeout = 30 * time.Second

// NewRootCmd creates the root command. Running it with no subcommand serves
// MCP on the configured transports.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "mcp-confluent",
		Short: "MCP server for the Confluent streaming platform",
		Long: `mcp-confluent exposes Kafka, Flink, Schema Registry, Catalog, and
Telemetry operations as MCP tools over stdio, SSE, or streamable HTTP.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), v)
		},
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.Flags()
	flags.StringSlice("transports", []string{"stdio"}, "Transports to serve (stdio, sse, streamable-http)")
	flags.String("http-host", "", "Bind host for the shared HTTP listener")
	flags.Int("http-port", 0, "Bind port for the shared HTTP listener")
	flags.Bool("auth-enabled", true, "Require the pre-shared API key on HTTP transports")
	flags.String("api-key", "", "Pre-shared API key expected in the "+auth.APIKeyHeader+" header")
	flags.StringSlice("allowed-hosts", []string{"localhost", "127.0.0.1"}, "Host-header allow-list for HTTP transports")
	flags.StringSlice("bootstrap-servers", nil, "Kafka bootstrap servers")
	flags.String("sasl-username", "", "SASL/PLAIN username for the Kafka broker")
	flags.String("sasl-password", "", "SASL/PLAIN password for the Kafka broker")
	flags.String("client-id", "mcp-confluent", "Kafka client id")
	flags.String("consumer-group", "mcp-confluent", "Base consumer-group id; per-session consumers append the session id")
	for _, surface := range config.Surfaces {
		flags.String(surface+"-url", "", "Base URL for the "+surface+" API")
		flags.String(surface+"-api-key", "", "API key for the "+surface+" API")
		flags.String(surface+"-api-secret", "", "API secret for the "+surface+" API")
	}
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}
	// The logger reads "debug" from the global viper instance.
	if err := viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := versions.GetVersionInfo()
			cmd.Printf("mcp-confluent %s", info.Version)
			if info.Commit != "" {
				cmd.Printf(" (%s)", info.Commit)
			}
			if info.BuildDate != "" {
				cmd.Printf(" built %s", info.BuildDate)
			}
			cmd.Println()
		},
	}
}

// serve wires configuration, backends, the MCP server, and the transports,
// then blocks until a termination signal arrives.
func serve(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	kinds := make([]types.TransportType, 0, len(cfg.Transports))
	for _, t := range cfg.Transports {
		kind, err := types.ParseTransportType(t)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	cm := confluent.NewManager(cfg)
	mcpServer := mcp.NewServer(cm)

	metrics := telemetry.NewMetrics()
	gate := auth.NewGate(auth.Config{
		APIKey:       cfg.APIKey,
		Enabled:      cfg.AuthEnabled,
		AllowedHosts: cfg.AllowedHosts,
	}, metrics.RecordRejection)
	health := healthcheck.NewHandler(mcp.ServerName)

	orch := transport.NewOrchestrator(cfg, mcpServer, gate, health, metrics)
	if err := orch.Start(ctx, kinds); err != nil {
		return fmt.Errorf("failed to start transports: %w", err)
	}
	logger.Infof("mcp-confluent %s serving %v", versions.GetVersionInfo().Version, cfg.Transports)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	case <-ctx.Done():
		logger.Infof("context cancelled, shutting down")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := orch.Stop(stopCtx); err != nil {
		logger.Warnf("transport shutdown: %v", err)
	}
	cm.DisconnectAll(stopCtx)
	logger.Infof("shutdown complete")
	return nil
}
