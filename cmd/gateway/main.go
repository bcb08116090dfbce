// Command gateway is a demo API gateway: IP-keyed rate limiting in
// front of a token-protected API, with login, refresh, and revoke
// endpoints. State lives in memory unless REDIS_URL points at a
// reachable server, in which case counters and revocations are shared
// across instances.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatekit/gatekit/pkg/auth"
	"github.com/gatekit/gatekit/pkg/config"
	"github.com/gatekit/gatekit/pkg/httpserver"
	"github.com/gatekit/gatekit/pkg/jwt"
	"github.com/gatekit/gatekit/pkg/logger"
	"github.com/gatekit/gatekit/pkg/ratelimit"
	"github.com/gatekit/gatekit/pkg/redis"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Secret      string `env:"AUTH_SECRET" envDefault:"change-me-in-production"`

	RateLimit       int           `env:"RATE_LIMIT" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	UseRedis bool `env:"USE_REDIS" envDefault:"false"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("gateway exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(logger.WithService("gateway", cfg.Environment))

	var (
		limitStore ratelimit.Store
		revocation auth.RevocationStore
		probes     []func(context.Context) error
	)

	if cfg.UseRedis {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		limitStore, err = ratelimit.NewRedisStore(client)
		if err != nil {
			return err
		}
		revocation, err = auth.NewRedisRevocationStore(client)
		if err != nil {
			return err
		}
		probes = append(probes, redis.Healthcheck(client))
		log.Info("using redis-backed stores")
	} else {
		memStore := ratelimit.NewMemoryStore()
		defer memStore.Close()
		memRevocation := auth.NewMemoryRevocationStore()
		defer memRevocation.Close()

		limitStore = memStore
		revocation = memRevocation
	}

	limiter, err := ratelimit.NewSlidingWindow(limitStore, cfg.RateLimit, cfg.RateLimitWindow)
	if err != nil {
		return err
	}

	signer, err := jwt.NewSignerFromString(cfg.Secret)
	if err != nil {
		return err
	}
	tokens, err := auth.NewService(signer, revocation, auth.WithIssuer("gateway"))
	if err != nil {
		return err
	}

	router := newRouter(log, limiter, signer, tokens, probes...)

	var srvCfg httpserver.Config
	if err := config.Load(&srvCfg); err != nil {
		return err
	}
	return httpserver.New(srvCfg, httpserver.WithLogger(log)).Run(ctx, router)
}

func newRouter(log *slog.Logger, limiter ratelimit.Limiter, signer *jwt.Signer, tokens *auth.Service, probes ...func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(ratelimit.Middleware(limiter, ratelimit.ByClientIP))

	r.Get("/healthz", httpserver.HealthHandler(log, probes...))

	r.Post("/auth/login", loginHandler(log, tokens))
	r.Post("/auth/refresh", refreshHandler(log, tokens))
	r.Post("/auth/revoke", revokeHandler(log, tokens))

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(signer))
		r.Get("/api/me", meHandler())
	})

	return r
}

func loginHandler(log *slog.Logger, tokens *auth.Service) http.HandlerFunc {
	type request struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}

		// A real deployment authenticates credentials here; the demo
		// issues tokens for whoever asks.
		pair, err := tokens.IssueTokenPair(r.Context(), req.UserID, req.Role)
		if err != nil {
			log.ErrorContext(r.Context(), "issue token pair", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to issue tokens")
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func refreshHandler(log *slog.Logger, tokens *auth.Service) http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refresh_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refresh_token is required")
			return
		}

		access, err := tokens.RefreshAccessToken(r.Context(), req.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenRevoked),
				errors.Is(err, auth.ErrUnknownToken),
				errors.Is(err, auth.ErrWrongTokenType),
				errors.Is(err, auth.ErrInvalidRefreshToken):
				writeError(w, http.StatusUnauthorized, err.Error())
			default:
				log.ErrorContext(r.Context(), "refresh access token", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to refresh token")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": access})
	}
}

func revokeHandler(log *slog.Logger, tokens *auth.Service) http.HandlerFunc {
	type request struct {
		JTI string `json:"jti"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JTI == "" {
			writeError(w, http.StatusBadRequest, "jti is required")
			return
		}

		if err := tokens.Revoke(r.Context(), req.JTI); err != nil {
			if errors.Is(err, auth.ErrUnknownToken) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			log.ErrorContext(r.Context(), "revoke refresh token", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to revoke token")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := jwt.ClaimsFromContext[map[string]any](r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no claims in context")
			return
		}
		writeJSON(w, http.StatusOK, claims)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
