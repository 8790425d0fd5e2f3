package config

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/internal/postgres"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
	"github.com/fair-squares/go-fairsquares/pkg/middleware/requestcontext"
	"github.com/fair-squares/go-fairsquares/pkg/middleware/requestlogger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configOnce sync.Once
	config     = &Config{
		Logger: logger.Config{
			Output: "TEXT",
		},
		HTTPServer: HTTPServer{
			Port: 8080,
		},
		Chain: Chain{
			BlockTime: 6 * time.Second,
		},
	}
)

type Config struct {
	Logger     logger.Config   `mapstructure:"logger"`
	HTTPServer HTTPServer      `mapstructure:"http_server"`
	Postgres   postgres.Config `mapstructure:"postgres"`
	Chain      Chain           `mapstructure:"chain"`
	APIOnly    bool            `mapstructure:"api_only"`
}

type HTTPServer struct {
	Port int `mapstructure:"port"`

	Logger    requestlogger.Config              `mapstructure:"logger"`    // request logging middleware
	RequestIP requestcontext.WithClientIPConfig `mapstructure:"requestip"` // resolve client ip from proxy headers
}

type Chain struct {
	// BlockTime is the interval between produced blocks.
	BlockTime time.Duration `mapstructure:"block_time"`

	// GenesisFile points to a JSON genesis document. Empty means the
	// built-in development genesis.
	GenesisFile string `mapstructure:"genesis_file"`

	// Archive persists runtime events to Postgres when enabled.
	Archive bool `mapstructure:"archive"`
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() Config {
	ctx := logger.WithContext(context.Background(), slog.String("package", "config"))
	configOnce.Do(func() {
		// TODO: Get config file from Args: viper.SetConfigFile("./config.yaml")
		viper.AddConfigPath("./")
		viper.SetConfigName("config")

		viper.AutomaticEnv()
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		if err := viper.ReadInConfig(); err != nil {
			var errNotfound viper.ConfigFileNotFoundError
			if errors.As(err, &errNotfound) {
				logger.WarnContext(ctx, "config file not found, use default value", slogx.Error(err))
			} else {
				logger.PanicContext(ctx, "invalid config file", slogx.Error(err))
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			logger.PanicContext(ctx, "failed to unmarshal config", slogx.Error(err))
		}
		logger.InfoContext(ctx, "loaded config from environment variables successfully")
	})

	return *config
}

// BindPFlag lets a command line flag override a configuration key.
func BindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		logger.Panic("failed to bind flag to config", slogx.String("key", key), slogx.Error(err))
	}
}
