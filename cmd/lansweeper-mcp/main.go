// Command lansweeper-mcp serves the LanSweeper inventory to MCP clients,
// over stdio by default or streamable HTTP with --http.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmerrifield20/lansweeper-go/internal/config"
	"github.com/jmerrifield20/lansweeper-go/internal/mcptools"
	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	var cfgFile, httpAddr string
	cmd := &cobra.Command{
		Use:          "lansweeper-mcp",
		Short:        "MCP server for the LanSweeper inventory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logger, cfgFile, httpAddr)
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default ~/.lansweeper/config.yaml)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")

	if err := cmd.Execute(); err != nil {
		logger.Fatal("lansweeper-mcp failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, cfgFile, httpAddr string) error {
	v := config.New(cfgFile)
	if err := config.Read(v, cfgFile != ""); err != nil {
		return err
	}
	opts := config.Options(v)
	opts.Logger = logger
	opts.UserAgent = "lansweeper-mcp/" + lansweeper.Version

	client, err := lansweeper.NewWithOptions(opts)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	s := newServer(client, logger)

	if httpAddr == "" {
		logger.Info("serving MCP over stdio")
		return server.ServeStdio(s)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           server.NewStreamableHTTPServer(s),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", zap.String("addr", httpAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

func newServer(inv mcptools.Inventory, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"lansweeper-mcp",
		lansweeper.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	mcptools.Register(s, inv, logger)
	return s
}
