package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/cache"
	"github.com/Sternrassler/pagewindow/pkg/logging"
	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/Sternrassler/pagewindow/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Record is the demo record type pagectl stores and serves.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// app carries what every subcommand needs once the root command has run.
type app struct {
	v      *viper.Viper
	config *Config
	logger zerolog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{v: newViper()}
	var configFile string

	cmd := &cobra.Command{
		Use:   "pagectl",
		Short: "Page through a Redis-backed record collection",
		Long: `pagectl serves a record collection over HTTP one page at a time,
exports it as JSON lines by walking every page, and seeds it with demo data.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.v, configFile)
			if err != nil {
				return err
			}
			a.config = cfg

			logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.LogPretty,
				Output: cmd.ErrOrStderr(),
			})
			a.logger = logging.NewLogger(logging.ComponentServer)
			return nil
		},
	}

	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file path")
	flags.String("redis-addr", "localhost:6379", "Redis address")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("prefix", "pagewindow:records", "Redis key prefix of the record collection")
	flags.Int("per-page", pagination.DefaultPerPage, "default page size")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable console logs")
	bindFlags(a.v, flags, "redis-addr", "redis-db", "prefix", "per-page", "log-level", "log-pretty")

	cmd.AddCommand(
		newServeCommand(a),
		newExportCommand(a),
		newSeedCommand(a),
	)
	return cmd
}

// connect opens the Redis client and checks it is reachable.
func (a *app) connect(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: a.config.RedisAddr,
		DB:   a.config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", a.config.RedisAddr, err)
	}
	a.logger.Info().Str("addr", a.config.RedisAddr).Int("db", a.config.RedisDB).Msg("Connected to Redis")
	return client, nil
}

// paginator builds the record paginator. A positive count cache TTL puts
// the Redis count cache in front of the store.
func (a *app) paginator(client *redis.Client, cacheTTL time.Duration) (*pagination.Paginator[Record], *store.RedisStore[Record]) {
	records := store.NewRedisStore[Record](client, a.config.Prefix)

	var source pagination.Source[Record] = records
	if cacheTTL > 0 {
		source = cache.NewCountCache[Record](records, cache.NewManager(client), a.config.Prefix, cacheTTL)
	}

	logger := logging.NewLogger(logging.ComponentPagination)
	return pagination.New[Record](source, pagination.Config{
		PerPage: a.config.PerPage,
		Logger:  &logger,
	}), records
}
