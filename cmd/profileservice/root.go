package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/adapters/redisactivity"
	"github.com/carthy/go-auth/config"
	"github.com/carthy/go-auth/profile"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

var (
	cfg     config.AppConfig
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "profileservice",
	Short: "Profile service with stateless JWT authentication",
	Long: `profileservice issues HS512 tokens for registered users and serves the
user profile API behind the JWT security middleware.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := config.Load(files...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(issueTokenCmd)
}

func newLogger(c config.AppConfig) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// appRuntime holds the shared dependencies of the commands.
type appRuntime struct {
	logger  *slog.Logger
	db      *bun.DB
	users   *profile.UserRepository
	tokens  *auth.TokenService
	sink    auth.ActivitySink
	closers []func() error
}

func newRuntime(ctx context.Context, c config.AppConfig) (*appRuntime, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(c)
	rt := &appRuntime{logger: logger}

	db, err := profile.OpenDB(ctx, c.DB.DSN)
	if err != nil {
		return nil, err
	}
	rt.db = db
	rt.closers = append(rt.closers, db.Close)
	if logger.Enabled(ctx, slog.LevelDebug) {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	logger.Info("connected to database", "dialect", profile.DialectFor(c.DB.DSN))

	if err := profile.CreateSchema(ctx, db); err != nil {
		rt.Close()
		return nil, err
	}

	rt.users = profile.NewUserRepository(db)
	rt.tokens = auth.NewTokenService(c.Security, logger)
	rt.sink = auth.ActivitySinkFunc(func(_ context.Context, e auth.ActivityEvent) error {
		logger.Debug("activity", "type", e.EventType, "user_id", e.UserID)
		return nil
	})

	if c.RedisEnabled() {
		client, err := redisactivity.NewClient(c.Redis.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		rt.sink = redisactivity.New(client, c.Redis.Stream).WithMaxLen(100000)
		logger.Info("activity events go to redis", "stream", c.Redis.Stream)
	}

	if c.SeedUser {
		if _, created, err := profile.EnsureSeedUser(ctx, rt.users, auth.BcryptEncoder{}); err != nil {
			rt.Close()
			return nil, fmt.Errorf("seed user: %w", err)
		} else if created {
			logger.Info("seed user created", "username", profile.SeedUsername)
		}
	}

	return rt, nil
}

func (rt *appRuntime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	return errors.Join(errs...)
}
