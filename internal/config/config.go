// Package config loads client settings from a config file, LANSWEEPER_*
// environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmerrifield20/lansweeper-go/pkg/lansweeper"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "LANSWEEPER"

// Keys recognised in config files and the environment.
const (
	KeyAccessToken        = "access_token"
	KeyEndpoint           = "endpoint"
	KeyRequestTimeout     = "request_timeout"
	KeyMaxRetryAttempts   = "max_retry_attempts"
	KeyRetryDelay         = "retry_delay"
	KeyExponentialBackoff = "exponential_backoff"
	KeyMaxRetryDelay      = "max_retry_delay"
	KeyLogRequests        = "log_requests"
	KeyLogResponses       = "log_responses"
	KeyRateLimit          = "rate_limit"
	KeyRateBurst          = "rate_burst"
	KeyDatabaseURL        = "database_url"
)

// New returns a viper instance with defaults and environment binding set up.
// cfgFile overrides the default search path ($HOME/.lansweeper/config.yaml,
// then ./lansweeper.yaml).
func New(cfgFile string) *viper.Viper {
	v := viper.New()

	d := lansweeper.DefaultOptions()
	v.SetDefault(KeyEndpoint, d.Endpoint)
	v.SetDefault(KeyRequestTimeout, d.RequestTimeout)
	v.SetDefault(KeyMaxRetryAttempts, d.MaxRetryAttempts)
	v.SetDefault(KeyRetryDelay, d.RetryDelay)
	v.SetDefault(KeyExponentialBackoff, d.UseExponentialBackoff)
	v.SetDefault(KeyMaxRetryDelay, d.MaxRetryDelay)
	v.SetDefault(KeyLogRequests, false)
	v.SetDefault(KeyLogResponses, false)
	v.SetDefault(KeyRateLimit, 0.0)
	v.SetDefault(KeyRateBurst, d.RateBurst)
	v.SetDefault(KeyDatabaseURL, "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".lansweeper"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	_ = v.BindEnv(KeyAccessToken)
	return v
}

// Read loads the config file into v. A missing file is not an error unless
// one was named explicitly.
func Read(v *viper.Viper, explicit bool) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Options builds client options from v. The result is validated by the
// client constructor, not here.
func Options(v *viper.Viper) lansweeper.Options {
	o := lansweeper.DefaultOptions()
	o.AccessToken = v.GetString(KeyAccessToken)
	o.Endpoint = v.GetString(KeyEndpoint)
	o.RequestTimeout = v.GetDuration(KeyRequestTimeout)
	o.MaxRetryAttempts = v.GetInt(KeyMaxRetryAttempts)
	o.RetryDelay = v.GetDuration(KeyRetryDelay)
	o.UseExponentialBackoff = v.GetBool(KeyExponentialBackoff)
	o.MaxRetryDelay = v.GetDuration(KeyMaxRetryDelay)
	o.EnableRequestLogging = v.GetBool(KeyLogRequests)
	o.EnableResponseLogging = v.GetBool(KeyLogResponses)
	if rps := v.GetFloat64(KeyRateLimit); rps > 0 {
		o.RateLimit = rate.Limit(rps)
		o.RateBurst = v.GetInt(KeyRateBurst)
	}
	return o
}
