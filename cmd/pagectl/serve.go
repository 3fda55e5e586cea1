package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pagewindow/pkg/metrics"
	"github.com/Sternrassler/pagewindow/pkg/pagination"
	"github.com/Sternrassler/pagewindow/pkg/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection page by page over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			paginator, _ := a.paginator(client, a.config.CountCacheTTL)

			ping := func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}
			server := &http.Server{
				Addr:              a.config.Listen,
				Handler:           newHandler(paginator, ping, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().
					Str("listen", a.config.Listen).
					Str("prefix", a.config.Prefix).
					Int("per_page", a.config.PerPage).
					Dur("count_cache_ttl", a.config.CountCacheTTL).
					Msg("Starting pagectl server")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info().Msg("Shutting down pagectl server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("listen", ":8080", "HTTP listen address")
	cmd.Flags().Duration("count-cache-ttl", 5*time.Minute, "count cache TTL (0 disables the cache)")
	bindFlags(a.v, cmd.Flags(), "listen", "count-cache-ttl")
	return cmd
}

// newHandler routes /records, /health and /metrics. ping reports whether
// the backing store is reachable.
func newHandler(paginator *pagination.Paginator[Record], ping func(context.Context) error, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /records", recordsHandler(paginator, logger))
	mux.HandleFunc("GET /health", healthHandler(ping))
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// recordsHandler answers GET /records?page=&per_page=&order=&ids= with one
// page. A request without a page parameter gets page 1.
func recordsHandler(paginator *pagination.Paginator[Record], logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !query.Has("page") {
			query.Set("page", "")
		}

		page, err := paginator.PaginateRaw(r.Context(), query)
		switch {
		case err == nil:
		case pagination.IsOptionError(err), errors.Is(err, store.ErrUnsupportedQuery):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		default:
			logger.Error().Err(err).Str("query", r.URL.RawQuery).Msg("Page request failed")
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "record source unavailable"})
			return
		}

		status := http.StatusOK
		if page.OutOfBounds() {
			status = http.StatusNotFound
		}
		writeJSON(w, status, page)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
