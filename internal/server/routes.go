package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	pages := s.app.PageHandler

	// Public pages (HTML templates). "/" also renders the not-found page.
	mux.HandleFunc("/", pages.HomeHandler)
	mux.HandleFunc("/tours", pages.ToursHandler)
	mux.HandleFunc("/tours/", pages.ToursHandler)
	mux.HandleFunc("/destinations", pages.DestinationsHandler)
	mux.HandleFunc("/destinations/", pages.DestinationsHandler)
	mux.HandleFunc("/vehicles", pages.VehiclesHandler)
	mux.HandleFunc("/blog", pages.BlogHandler)
	mux.HandleFunc("/blog/", pages.BlogHandler)
	mux.HandleFunc("/stories", pages.StoriesHandler)
	mux.HandleFunc("/stories/", pages.StoriesHandler)
	mux.HandleFunc("/plan-trip", pages.PlanTripHandler)
	mux.HandleFunc("/contact", pages.ContactHandler)
	mux.HandleFunc("/about", pages.AboutHandler)
	mux.HandleFunc("/sitemap.xml", pages.SitemapHandler)
	mux.HandleFunc("/robots.txt", pages.RobotsHandler)

	// Static files (CSS, JS, images)
	mux.HandleFunc("/static/", pages.StaticFileHandler)

	// WebSocket route
	mux.HandleFunc("/ws/planner", s.app.WSHandler.HandleWebSocket)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// API routes - Inquiries (email-dispatch endpoint)
	mux.HandleFunc("/api/send-trip-plan", s.app.InquiryHandler.SendTripPlanHandler)
	mux.HandleFunc("/api/contact", s.app.InquiryHandler.ContactHandler)

	// API routes - Published content
	mux.HandleFunc("/api/content/", pages.ContentAPIHandler)

	// API routes - Trip planner
	mux.HandleFunc("/api/planner/catalog", s.app.PlannerHandler.CatalogHandler)
	mux.HandleFunc("/api/planner/places", s.app.PlannerHandler.PlacesHandler)
	mux.HandleFunc("/api/planner/selection", s.app.PlannerHandler.SelectionHandler)
	mux.HandleFunc("/api/planner/selection/", s.app.PlannerHandler.SelectionItemHandler)
	mux.HandleFunc("/api/planner/map", s.app.PlannerHandler.MapHandler)
	mux.HandleFunc("/api/planner/dialog", s.app.PlannerHandler.DialogHandler)
	mux.HandleFunc("/api/planner/dialog/", suffixRouter("/api/planner/dialog", map[string]http.HandlerFunc{
		"open":   s.app.PlannerHandler.DialogOpenHandler,
		"submit": s.app.PlannerHandler.DialogSubmitHandler,
		"retry":  s.app.PlannerHandler.DialogRetryHandler,
		"close":  s.app.PlannerHandler.DialogCloseHandler,
	}, s.app.APIHandler.NotFoundHandler))

	// Admin pages
	admin := s.app.AdminHandler
	mux.HandleFunc("/admin/login", admin.LoginHandler)
	mux.HandleFunc("/admin/logout", admin.LogoutHandler)
	mux.HandleFunc("/admin", admin.RequireAdmin(admin.DashboardHandler))
	mux.HandleFunc("/admin/", admin.RequireAdmin(s.app.Pages.NotFound))

	// API routes - Admin (session required)
	mux.HandleFunc("/api/admin/stats", admin.RequireAdmin(admin.StatsHandler))
	mux.HandleFunc("/api/admin/inquiries", admin.RequireAdmin(admin.InquiriesHandler))
	mux.HandleFunc("/api/admin/inquiries/", admin.RequireAdmin(admin.InquiriesHandler))
	mux.HandleFunc("/api/admin/jobs", admin.RequireAdmin(admin.JobsHandler))
	mux.HandleFunc("/api/admin/jobs/", admin.RequireAdmin(admin.JobsHandler))
	mux.HandleFunc("/api/admin/mail/config", admin.RequireAdmin(s.app.MailerHandler.ConfigHandler))
	mux.HandleFunc("/api/admin/mail/test", admin.RequireAdmin(s.app.MailerHandler.SendTestHandler))
	mux.HandleFunc("/api/admin/logs", admin.RequireAdmin(s.app.LogsHandler.TailHandler))
	mux.HandleFunc("/api/admin/logs/files", admin.RequireAdmin(s.app.LogsHandler.FilesHandler))
	mux.HandleFunc("/api/admin/", admin.RequireAdmin(admin.ContentRoutes)) // /{kind} and /{kind}/{id}

	// 404 for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
