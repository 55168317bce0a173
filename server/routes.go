package server

import (
	"net/http"

	"github.com/jrsteele09/campus-auth/authmodel"
	"github.com/jrsteele09/campus-auth/users"
)

func (s *Server) initRoutes() {
	// Auth
	s.RegisterRouteHandler("POST "+authmodel.RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+authmodel.RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+authmodel.RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+authmodel.RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Resource API
	s.RegisterRouteHandler("GET "+authmodel.RouteStudents, ChainMiddleware(s.StudentsListHandler(),
		s.APIMiddleware(s.RequireAuth(), s.RequireRole(users.RoleAdmin, users.RoleTeacher))...))
	s.RegisterRouteHandler("GET "+authmodel.RouteStudent, ChainMiddleware(s.StudentHandler(),
		s.APIMiddleware(s.RequireAuth(), s.RequireRole(users.RoleAdmin, users.RoleTeacher, users.RoleStudent))...))

	// CORS preflight for every path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+authmodel.RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+authmodel.RouteMetrics, s.MetricsHandler())
	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}

func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	}
}
