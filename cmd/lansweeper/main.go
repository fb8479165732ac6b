package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmerrifield20/lansweeper-go/internal/config"
	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// version is overridden via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{}
	err := a.execute(ctx, newRootCmd(a))
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	cfgFile string
	debug   bool
	format  string

	v      *viper.Viper
	logger *zap.Logger
	client *lansweeper.Client
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lansweeper",
		Short: "LanSweeper inventory CLI",
		Long: `lansweeper queries the LanSweeper GraphQL API.

Settings come from flags, LANSWEEPER_* environment variables and
~/.lansweeper/config.yaml, in that order of precedence:

  LANSWEEPER_ACCESS_TOKEN=... lansweeper sites list
  lansweeper assets list site-123 --format json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.lansweeper/config.yaml)")
	pf.String("token", "", "LanSweeper personal access token")
	pf.String("endpoint", "", "GraphQL endpoint URL")
	pf.Duration("timeout", 0, "per-request timeout (e.g. 30s)")
	pf.Int("retries", 0, "maximum retry attempts")
	pf.BoolVar(&a.debug, "debug", false, "development logging with request and response bodies")
	pf.StringVar(&a.format, "format", "text", "output format: text or json")

	root.AddCommand(
		newSitesCmd(a),
		newAssetsCmd(a),
		newMeCmd(a),
		newQueryCmd(a),
		newExportCmd(a),
		newVersionCmd(),
	)
	return root
}

var flagKeys = map[string]string{
	"token":    config.KeyAccessToken,
	"endpoint": config.KeyEndpoint,
	"timeout":  config.KeyRequestTimeout,
	"retries":  config.KeyMaxRetryAttempts,
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	switch a.format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown --format %q (want text or json)", a.format)
	}

	a.v = config.New(a.cfgFile)
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := a.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}
	if err := config.Read(a.v, a.cfgFile != ""); err != nil {
		return err
	}

	var err error
	if a.debug {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

// execute runs root and releases the client and logger whether or not the
// command succeeded.
func (a *app) execute(ctx context.Context, root *cobra.Command) error {
	defer a.teardown()
	return root.ExecuteContext(ctx)
}

func (a *app) teardown() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// newClient builds the SDK client from the resolved configuration. The
// client is closed when the command finishes.
func (a *app) newClient() (*lansweeper.Client, error) {
	opts := config.Options(a.v)
	opts.Logger = a.logger
	opts.UserAgent = "lansweeper-cli/" + version
	if a.debug {
		opts.EnableRequestLogging = true
		opts.EnableResponseLogging = true
	}
	if opts.AccessToken == "" {
		return nil, errors.New("no access token: set --token, LANSWEEPER_ACCESS_TOKEN or access_token in the config file")
	}
	c, err := lansweeper.NewWithOptions(opts)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── version ──────────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and SDK versions",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lansweeper %s (sdk %s)\n", version, lansweeper.Version)
		},
	}
}
