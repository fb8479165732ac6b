// Command lansweeper-mock runs the in-process fake LanSweeper API as a
// standalone server for local development against the CLI or SDK.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/lansweeper-go/internal/mockapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("mock server exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("mock")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("LANSWEEPER_MOCK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8089)
	viper.SetDefault("token", "dev-token")
	viper.SetDefault("rate_limit_rps", 0)
	viper.SetDefault("rate_burst", 10)
	viper.SetDefault("cors_origins", []string{})
	viper.SetDefault("gin_mode", gin.ReleaseMode)

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Info("no config file found, using defaults and environment")
	}

	gin.SetMode(viper.GetString("gin_mode"))

	// ── Mock API ─────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	token := viper.GetString("token")
	mock := mockapi.New(mockapi.Config{
		Dataset:      mockapi.SampleDataset(token),
		RateLimitRPS: viper.GetInt("rate_limit_rps"),
		RateBurst:    viper.GetInt("rate_burst"),
		CORSOrigins:  viper.GetStringSlice("cors_origins"),
		Logger:       logger,
		Registry:     reg,
	})

	port := viper.GetInt("port")
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock LanSweeper API listening",
			zap.Int("port", port),
			zap.String("graphql_path", mockapi.GraphQLPath),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http listen: %w", err)
	case <-quit:
	}
	logger.Info("shutting down mock server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("mock server stopped")
	return nil
}
