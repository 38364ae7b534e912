package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carthy/go-auth"
	"github.com/carthy/go-auth/profile"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the profile HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		policy, err := profile.DefaultPolicy(cfg.HTTP.PublicPaths...)
		if err != nil {
			return fmt.Errorf("invalid public paths: %w", err)
		}

		users := profile.NewUserService(rt.users).
			WithHashid(cfg.UseHashidIDs).
			WithActivitySink(rt.sink).
			WithLogger(rt.logger)

		app, err := profile.NewApp(profile.Dependencies{
			Login: profile.NewLoginService(rt.users, rt.tokens).
				WithActivitySink(rt.sink).
				WithLogger(rt.logger),
			Users: users,
			Authenticator: auth.NewAuthenticationManager(rt.tokens).
				WithActivitySink(rt.sink).
				WithLogger(rt.logger),
			Policy: policy,
			Logger: rt.logger,
		})
		if err != nil {
			return err
		}

		serverErrors := make(chan error, 1)
		go func() {
			rt.logger.Info("profile service listening", "addr", cfg.HTTP.Addr)
			serverErrors <- app.Listen(cfg.HTTP.Addr)
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case sig := <-shutdown:
			rt.logger.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.ShutdownWithContext(ctx); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
		}
		return nil
	},
}
