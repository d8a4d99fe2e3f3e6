package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/internal/config"
	"github.com/kazz187/agentboard/internal/rpc"
	"github.com/kazz187/agentboard/internal/web"
	"github.com/kazz187/agentboard/pkg/api/agentboardv1"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/clog"
)

type Server struct {
	server      *http.Server
	env         *config.Env
	auth        *auth.Service
	web         *web.Handler
	taskServer  *rpc.TaskServer
	agentServer *rpc.AgentServer
	boardServer *rpc.BoardServer
}

func NewServer(
	env *config.Env,
	authService *auth.Service,
	webHandler *web.Handler,
	taskServer *rpc.TaskServer,
	agentServer *rpc.AgentServer,
	boardServer *rpc.BoardServer,
) *Server {
	return &Server{
		env:         env,
		auth:        authService,
		web:         webHandler,
		taskServer:  taskServer,
		agentServer: agentServer,
		boardServer: boardServer,
	}
}

// Handler builds the full HTTP handler: the HTML board, the JSON auth API,
// the connect services, health and metrics.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
			return r.URL.Path != "/events"
		})),
		s.auth.Middleware(),
	)
	r.Mount("/auth", s.auth.Routes())
	r.Mount("/", s.web.Routes())

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(
		agentboardv1.TaskServiceName,
		agentboardv1.AgentServiceName,
		agentboardv1.BoardServiceName,
	)))
	mux.Handle("/", r)

	handlerOpts := connect.WithInterceptors(s.interceptors()...)
	rpcs := http.NewServeMux()
	rpcs.Handle(agentboardv1.NewTaskServiceHandler(s.taskServer, handlerOpts))
	rpcs.Handle(agentboardv1.NewAgentServiceHandler(s.agentServer, handlerOpts))
	rpcs.Handle(agentboardv1.NewBoardServiceHandler(s.boardServer, handlerOpts))
	authed := s.auth.Middleware()(rpcs)
	mux.Handle("/"+agentboardv1.TaskServiceName+"/", authed)
	mux.Handle("/"+agentboardv1.AgentServiceName+"/", authed)
	mux.Handle("/"+agentboardv1.BoardServiceName+"/", authed)

	return middleware.RealIP(mux)
}

// ListenAndServe starts the HTTP server. ctx is the base context of every
// request, so cancelling it ends open streams and lets shutdown finish.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.env.Addr()
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.Handler()), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.DefaultConnectHealthCheckFilter)),
		auth.NewUserLogInterceptor(),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}
