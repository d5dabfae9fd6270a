// Package server exposes the setup run over HTTP for deploy hooks.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

// TokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Runner performs one setup run.
type Runner interface {
	Run(ctx context.Context) setup.Result
}

type ctxKey struct{}

// UID returns the authenticated caller, if any.
func UID(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxKey{}).(string)
	return uid, ok
}

// Server serves the setup endpoint behind Firebase ID-token auth.
type Server struct {
	runner   Runner
	verifier TokenVerifier
	origins  []string
	log      *zap.Logger
}

// New returns a Server; origins are the CORS allowed origins.
func New(runner Runner, verifier TokenVerifier, origins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: runner, verifier: verifier, origins: origins, log: log}
}

// Handler wires the routes and CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.auth)
	api.HandleFunc("/setup", s.runSetup).Methods(http.MethodPost)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	return cors(r)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := r.Header.Get("Authorization")
		idToken, ok := strings.CutPrefix(hdr, "Bearer ")
		if !ok || idToken == "" {
			http.Error(w, "unauth", http.StatusUnauthorized)
			return
		}
		token, err := s.verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			s.log.Debug("rejected id token", zap.Error(err))
			http.Error(w, "unauth", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, token.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type setupResponse struct {
	Status string `json:"status"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) runSetup(w http.ResponseWriter, r *http.Request) {
	uid, _ := UID(r.Context())
	s.log.Info("setup requested", zap.String("uid", uid))

	res := s.runner.Run(r.Context())
	resp := setupResponse{Status: "ok", Kind: res.Kind.String(), Path: res.Path}
	code := http.StatusOK
	if !res.OK() {
		resp.Status = "failed"
		resp.Error = res.Err.Error()
		code = statusFor(res.Kind)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("encode setup response", zap.Error(err))
	}
}

func statusFor(k setup.Kind) int {
	switch k {
	case setup.KindPermission:
		return http.StatusForbidden
	case setup.KindConnectivity:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
