package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/internal/server"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/analyzer"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/candidates"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if addr == "" {
				addr = cfg.Server.Address
			}

			store, err := ctx.credentialStore(cmd.Context())
			if err != nil {
				return err
			}
			client, err := ctx.inferenceClient(cmd.Context())
			if err != nil {
				return err
			}

			session := analyzer.NewSession(analyzer.Config{
				Inferrer:  client,
				Generator: client,
				Store:     store,
				Batch:     cfg.Batch(),
			})
			if err := session.LoadCredentials(cmd.Context()); err != nil {
				return err
			}

			var candidateClient *candidates.Client
			if cfg.CandidatesEnabled() {
				if candidateClient, err = candidates.New(cfg.CandidatesClient()); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			srv := &http.Server{
				Addr: addr,
				Handler: server.New(session, server.Options{
					Candidates:  candidateClient,
					RateLimiter: ctx.rateLimiter(cmd.Context()),
					Registerer:  metrics.Registry,
					BaseContext: gctx,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g.Go(func() error {
				ctx.logger.Info().Str("addr", addr).Int("credentials", len(session.Credentials())).Msg("Starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				ctx.logger.Info().Msg("Shutting down HTTP server")
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from PLACEMENT_ADDRESS)")
	return cmd
}
