package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"

	"github.com/subodhkmahto/student-teacher-management-system/internal/auth"
	"github.com/subodhkmahto/student-teacher-management-system/internal/config"
	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

type Server struct {
	cfg      config.Config
	authn    *auth.Authenticator
	accounts *auth.Service
	store    platform.Store
}

func NewServer(cfg config.Config, authenticator *auth.Authenticator, accounts *auth.Service, store platform.Store) *Server {
	return &Server{
		cfg:      cfg,
		authn:    authenticator,
		accounts: accounts,
		store:    store,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(s.recoverer)
	r.Use(chimw.Timeout(s.cfg.RequestTimeout))
	r.Use(chimw.Compress(5))

	secureHeaders := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        s.cfg.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})
	r.Use(secureHeaders.Handler)
	r.Use(cors.Handler(s.corsOptions()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "Route not found",
			"path":  r.URL.Path,
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "Route not found",
			"path":  r.URL.Path,
		})
	})

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/resend-verification", s.handleResendVerification)
		r.With(s.authenticate).Get("/me", s.handleMe)
	})

	isTeacher := s.authorize(auth.RoleTeacher)
	canManage := s.authorize(auth.RoleTeacher, auth.RoleAdmin)

	r.Route("/api/students", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListStudents)
		r.With(s.requireOwner("id")).Get("/{id}", s.handleGetStudent)
		r.With(isTeacher).Post("/", s.handleCreateStudent)
		r.With(isTeacher).Put("/{id}", s.handleUpdateStudent)
	})

	r.Route("/api/teachers", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListTeachers)
		r.Get("/{id}", s.handleGetTeacher)
		r.With(canManage).Post("/", s.handleCreateTeacher)
		r.With(canManage).Put("/{id}", s.handleUpdateTeacher)
	})

	r.Route("/api/courses", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListCourses)
		r.Get("/{id}", s.handleGetCourse)
		r.With(canManage).Post("/", s.handleCreateCourse)
		r.With(canManage).Put("/{id}", s.handleUpdateCourse)
	})

	r.Route("/api/course-assignments", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListCourseAssignments)
		r.With(canManage).Post("/", s.handleCreateCourseAssignment)
	})

	r.Route("/api/enrollments", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/", s.handleListEnrollments)
		r.With(s.requireOwner("studentId")).Get("/student/{studentId}", s.handleStudentEnrollments)
		r.With(isTeacher).Get("/course/{courseId}", s.handleCourseEnrollments)
		r.Post("/", s.handleCreateEnrollment)
		r.With(canManage).Put("/{id}", s.handleUpdateEnrollment)
	})

	return r
}

func (s *Server) corsOptions() cors.Options {
	var origins []string
	if !s.cfg.IsProduction() {
		origins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if s.cfg.FrontendURL != "" {
		duplicate := false
		for _, origin := range origins {
			if origin == s.cfg.FrontendURL {
				duplicate = true
				break
			}
		}
		if !duplicate {
			origins = append(origins, s.cfg.FrontendURL)
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// Auth

type principalKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		principal, err := s.authn.Verify(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				writeError(w, http.StatusUnauthorized, "No token provided")
			case errors.Is(err, auth.ErrInvalidToken):
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			case errors.Is(err, auth.ErrProfileNotFound):
				// The identity is valid but its authorization state is
				// incomplete, hence 403 rather than 401.
				writeError(w, http.StatusForbidden, "Profile not found")
			default:
				log.Printf("authentication failed: %v", err)
				writeError(w, http.StatusUnauthorized, "Authentication failed")
			}
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func principalFromContext(ctx context.Context) *auth.Principal {
	value := ctx.Value(principalKey{})
	principal, _ := value.(*auth.Principal)
	return principal
}

func (s *Server) authorize(allowed ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r.Context())
			if principal == nil {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, role := range allowed {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			names := make([]string, len(allowed))
			for i, role := range allowed {
				names[i] = string(role)
			}
			writeError(w, http.StatusForbidden, "Access denied. Requires role: "+strings.Join(names, " or "))
		})
	}
}

// requireOwner compares the named path parameter against the principal's id.
// Teachers and admins bypass the check.
func (s *Server) requireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := principalFromContext(r.Context())
			if principal == nil {
				writeError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !principal.BypassesOwnership() && chi.URLParam(r, param) != principal.ID {
				writeError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				body := map[string]string{"error": "Internal server error"}
				if !s.cfg.IsProduction() {
					body["message"] = fmt.Sprint(rec)
				}
				writeJSON(w, http.StatusInternalServerError, body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps a failed store call to the client: uniqueness
// conflicts become the domain-specific message, everything else passes the
// store's own message through as a 400.
func writeStoreError(w http.ResponseWriter, err error, uniqueMessage string) {
	if uniqueMessage != "" && platform.IsUniqueViolation(err) {
		writeError(w, http.StatusBadRequest, uniqueMessage)
		return
	}
	writeError(w, http.StatusBadRequest, platform.Message(err))
}
