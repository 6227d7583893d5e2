package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/pibox/pibox/internal/access"
	"github.com/pibox/pibox/internal/api/models"
	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/health"
	"github.com/pibox/pibox/internal/logging"
	"github.com/pibox/pibox/internal/relay"
	"github.com/pibox/pibox/internal/snapshot"
	"github.com/pibox/pibox/internal/store"
	"github.com/pibox/pibox/internal/sync"
	"github.com/pibox/pibox/internal/version"
	"github.com/pibox/pibox/internal/ws"
)

// Server is the Huma v2 API server for the edge controller.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
	eventBus   *events.Bus
}

// basicAuthMiddleware creates middleware for HTTP basic authentication
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Skip auth for operations without security requirements
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		authHeader := ctx.Header("Authorization")
		var credentials string

		if authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="PiBox API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid authentication type")
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
			if err != nil {
				ctx.SetHeader("WWW-Authenticate", `Basic realm="PiBox API"`)
				huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
				return
			}
			credentials = string(decoded)
		} else {
			// SSE endpoints can't set headers, allow query parameter fallback
			if queryAuth := ctx.Query("auth"); queryAuth != "" {
				decoded, err := base64.StdEncoding.DecodeString(queryAuth)
				if err != nil {
					ctx.SetHeader("WWW-Authenticate", `Basic realm="PiBox API"`)
					huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials format", err)
					return
				}
				credentials = string(decoded)
			}
		}

		if credentials == "" {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="PiBox API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Authentication required")
			return
		}

		parts := strings.SplitN(credentials, ":", 2)
		if len(parts) != 2 || parts[0] != username || parts[1] != password {
			ctx.SetHeader("WWW-Authenticate", `Basic realm="PiBox API"`)
			huma.WriteErr(s.api, ctx, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

// Options carries the server's dependencies and settings.
type Options struct {
	AuthUsername string
	AuthPassword string

	Stores    *store.Stores
	Access    *access.Service
	Relays    *relay.Controller
	Hub       *ws.Hub
	Syncer    *sync.Syncer
	Snapshots *snapshot.Store
	Bus       *events.Bus

	PrometheusHandler http.Handler
}

// NewServer creates the API server using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("PiBox API", version.String())
	config.Info.Description = "ANPR barrier controller API"
	// Empty servers list makes OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		logger:   logging.GetLogger("api"),
		eventBus: opts.Bus,
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Raw endpoints bypass Huma: websocket upgrade, camera pushes, metrics,
	// image serving. Cameras authenticate out of band, not with basic auth.
	if opts.Hub != nil {
		mux.Handle("GET /ws", opts.Hub)
	}
	server.registerWebhooks()
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}
	if opts.Snapshots != nil {
		mux.HandleFunc("GET /api/images/{name}", server.serveImage)
	}

	server.registerRoutes()

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

func (s *Server) Start(addr string) error {
	s.logger.Info("Starting PiBox API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	// Health check endpoint - no auth required
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health and host vitals",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status: "ok",
				Host:   health.Sample(),
			},
		}, nil
	})

	// Version endpoint - no auth required
	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerVehicleRoutes()
	s.registerAccessRoutes()
	s.registerBarrierRoutes()
	s.registerCameraRoutes()
	s.registerRelayRoutes()
	s.registerSettingsRoutes()
	s.registerLogRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// serveImage streams a stored snapshot image.
func (s *Server) serveImage(w http.ResponseWriter, r *http.Request) {
	f, err := s.options.Snapshots.Open(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := f.WriteTo(w); err != nil {
		s.logger.Debug("image write aborted", "error", err)
	}
}
