package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sheetops/cellrelay/internal/config"
	"github.com/sheetops/cellrelay/internal/httpapi"
	"github.com/sheetops/cellrelay/internal/relay"
	"github.com/sheetops/cellrelay/internal/smartsheet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cellrelay",
		Short:         "One-way cell-change relay between two sheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen for change notifications and mirror cell updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.CallbackURL == "" {
				return fmt.Errorf("callback url is required to serve (CELLRELAY_CALLBACK_URL)")
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			client := newGatewayClient(cfg)
			ctx := cmd.Context()

			// Sanity read of the source sheet. Failure is logged, not fatal:
			// the backend may be briefly unavailable at boot.
			if sheet, err := client.GetSheet(ctx, cfg.SourceSheetID, smartsheet.GetSheetOptions{PageSize: 1}); err != nil {
				logger.Warn("source sheet sanity read failed", zap.Error(err))
			} else {
				logger.Info("watching source sheet",
					zap.Int64("sheetId", sheet.ID),
					zap.String("name", sheet.Name),
					zap.String("permalink", sheet.Permalink),
				)
			}

			pipeline := relay.NewPipeline(client, cfg.SourceSheetID, cfg.DestSheetID, logger)
			server := httpapi.NewServer(pipeline, logger)

			// The listener must be accepting before the webhook is enabled:
			// enabling triggers a verification handshake against the
			// callback address.
			listener, err := net.Listen("tcp", cfg.ListenAddr)
			if err != nil {
				return err
			}
			logger.Info("cellrelay listening", zap.String("addr", listener.Addr().String()))

			// Webhook setup is best-effort: the subscription may already be
			// converged, and a transient failure here must not keep the
			// receiver from serving re-deliveries.
			bootstrapper := relay.NewBootstrapper(client, cfg.SourceSheetID, cfg.WebhookName, cfg.CallbackURL, logger)
			go func() {
				bootstrapCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := bootstrapper.EnsureWebhook(bootstrapCtx); err != nil {
					logger.Error("webhook bootstrap failed, continuing without it", zap.Error(err))
				}
			}()

			return http.Serve(listener, server)
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify access to both sheets and list webhook subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client := newGatewayClient(cfg)
			ctx := cmd.Context()

			source, err := client.GetSheet(ctx, cfg.SourceSheetID, smartsheet.GetSheetOptions{PageSize: 1})
			if err != nil {
				return fmt.Errorf("source sheet: %w", err)
			}
			dest, err := client.GetSheet(ctx, cfg.DestSheetID, smartsheet.GetSheetOptions{PageSize: 1})
			if err != nil {
				return fmt.Errorf("destination sheet: %w", err)
			}
			hooks, err := client.ListWebhooks(ctx)
			if err != nil {
				return fmt.Errorf("list webhooks: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source:      %s (%d)\n", source.Name, source.ID)
			fmt.Fprintf(out, "destination: %s (%d)\n", dest.Name, dest.ID)
			fmt.Fprintf(out, "webhooks:    %d\n", len(hooks))
			for _, hook := range hooks {
				marker := " "
				if hook.ScopeObjectID == cfg.SourceSheetID && hook.Name == cfg.WebhookName {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %s -> %s (enabled=%t status=%s)\n", marker, hook.Name, hook.CallbackURL, hook.Enabled, hook.Status)
			}
			return nil
		},
	}
}

func newGatewayClient(cfg *config.Config) *smartsheet.Client {
	return smartsheet.NewClient(smartsheet.ClientOptions{
		BaseURL:     cfg.APIBaseURL,
		AccessToken: cfg.AccessToken,
		UserAgent:   "cellrelay",
	})
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
