package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/auth"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/config"
	"github.com/IQTechSolutions/ConectOne-sub011/internal/media"
)

// SetupRoutes configures all API routes.
// Returns the top-level mux AND the /api/v1 sub-router so that late-registered
// route groups can be mounted inside /api/v1 and inherit its auth middleware.
func SetupRoutes(h *Handlers, authManager *auth.Manager, schoolCtx *SchoolContextProvider, hc *HealthChecker, corsCfg config.CORSConfig) (*chi.Mux, chi.Router) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// Server identity header - distinguishes the API tier from the portal CDN
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "conectone-server-v1.0")
			next.ServeHTTP(w, req)
		})
	})

	// CORS - allow credentials for the session cookie, explicit origins only
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-School-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (no auth required)
	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
		r.Get("/health/db", hc.HandleDBStats)
	}

	// Auth routes (no auth required)
	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	var apiRouter chi.Router

	r.Route("/api/v1", func(r chi.Router) {
		apiRouter = r // capture so late-registered groups can use it

		// Public portal endpoints - consumed by the school sites without a
		// session. Advert beacons and directory enquiries come from visitors.
		r.Group(func(r chi.Router) {
			r.Get("/adverts/active", h.ListActiveAdverts)
			r.Post("/adverts/{advertId}/impression", h.RecordAdvertImpression)
			r.Post("/adverts/{advertId}/click", h.RecordAdvertClick)
			r.Post("/directory/listings/{listingId}/contact", h.ContactListingOwner)
		})

		// Everything else requires a session when auth is enabled
		r.Group(func(r chi.Router) {
			if authManager != nil {
				r.Use(authManager.RequireAuth)
			}

			// Enterprise-wide verticals
			r.Route("/schools", func(r chi.Router) {
				r.Get("/", h.ListSchools)
				r.Post("/", h.CreateSchool)
				r.Get("/{schoolId}", h.GetSchool)
				r.Put("/{schoolId}", h.UpdateSchool)
				r.Delete("/{schoolId}", h.DeleteSchool)
			})

			r.Route("/parents", func(r chi.Router) {
				r.Get("/", h.ListParents)
				r.Post("/", h.CreateParent)
				r.Get("/{parentId}", h.GetParent)
				r.Put("/{parentId}", h.UpdateParent)
				r.Delete("/{parentId}", h.DeleteParent)
				r.Get("/{parentId}/learners", h.ListParentLearners)
				r.Post("/{parentId}/learners/{learnerId}", h.LinkLearner)
				r.Delete("/{parentId}/learners/{learnerId}", h.UnlinkLearner)
			})

			r.Route("/directory", func(r chi.Router) {
				r.Route("/tiers", func(r chi.Router) {
					r.Get("/", h.ListTiers)
					r.Post("/", h.CreateTier)
					r.Get("/{tierId}", h.GetTier)
					r.Put("/{tierId}", h.UpdateTier)
					r.Delete("/{tierId}", h.DeleteTier)
				})
				r.Route("/listings", func(r chi.Router) {
					r.Get("/", h.ListListings)
					r.Post("/", h.CreateListing)
					r.Get("/{listingId}", h.GetListing)
					r.Put("/{listingId}", h.UpdateListing)
					r.Delete("/{listingId}", h.DeleteListing)
					r.Post("/{listingId}/approve", h.ApproveListing)
					r.Post("/{listingId}/reject", h.RejectListing)
					r.Post("/{listingId}/disable", h.DisableListing)
					r.Get("/{listingId}/media", h.ListListingMedia)
					r.Post("/{listingId}/media", h.AttachListingMedia)
					r.Delete("/{listingId}/media/{assetId}", h.RemoveListingMedia)
				})
			})

			r.Route("/vacations", func(r chi.Router) {
				r.Get("/", h.ListVacations)
				r.Post("/", h.CreateVacation)
				r.Get("/{vacationId}", h.GetVacation)
				r.Put("/{vacationId}", h.UpdateVacation)
				r.Delete("/{vacationId}", h.DeleteVacation)
				r.Post("/{vacationId}/publish", h.PublishVacation)
				r.Post("/{vacationId}/archive", h.ArchiveVacation)
				r.Get("/{vacationId}/images", h.ListVacationImages)
				r.Post("/{vacationId}/images", h.AttachVacationImage)
				r.Delete("/{vacationId}/images/{assetId}", h.RemoveVacationImage)
			})

			r.Route("/adverts", func(r chi.Router) {
				r.Get("/", h.ListAdverts)
				r.Post("/", h.CreateAdvert)
				r.Get("/{advertId}", h.GetAdvert)
				r.Put("/{advertId}", h.UpdateAdvert)
				r.Delete("/{advertId}", h.DeleteAdvert)
				r.Post("/{advertId}/activate", h.ActivateAdvert)
				r.Post("/{advertId}/pause", h.PauseAdvert)
				r.Post("/{advertId}/resume", h.ResumeAdvert)
			})

			r.Route("/media", func(r chi.Router) {
				r.Post("/images", h.UploadImage)
				r.Post("/videos", h.UploadVideo)
				r.Post("/batch", h.UploadBatch)
				r.Get("/assets", h.ListAssetsByOwner)
				r.Get("/assets/{assetId}", h.GetAsset)
				r.Delete("/assets/{assetId}", h.DeleteAsset)
			})

			// School-scoped verticals resolve their tenant from X-School-ID
			r.Group(func(r chi.Router) {
				if schoolCtx != nil {
					r.Use(schoolCtx.RequireSchool)
				}

				r.Route("/learners", func(r chi.Router) {
					r.Get("/", h.ListLearners)
					r.Post("/", h.CreateLearner)
					r.Get("/{learnerId}", h.GetLearner)
					r.Put("/{learnerId}", h.UpdateLearner)
					r.Delete("/{learnerId}", h.ArchiveLearner)
					r.Get("/{learnerId}/guardians", h.ListLearnerGuardians)
				})

				r.Route("/teachers", func(r chi.Router) {
					r.Get("/", h.ListTeachers)
					r.Post("/", h.CreateTeacher)
					r.Get("/{teacherId}", h.GetTeacher)
					r.Put("/{teacherId}", h.UpdateTeacher)
					r.Delete("/{teacherId}", h.DeleteTeacher)
				})

				r.Route("/age-groups", func(r chi.Router) {
					r.Get("/", h.ListAgeGroups)
					r.Post("/", h.CreateAgeGroup)
					r.Get("/{groupId}", h.GetAgeGroup)
					r.Put("/{groupId}", h.UpdateAgeGroup)
					r.Delete("/{groupId}", h.DeleteAgeGroup)
				})

				r.Route("/activity-groups", func(r chi.Router) {
					r.Get("/", h.ListActivityGroups)
					r.Post("/", h.CreateActivityGroup)
					r.Get("/{groupId}", h.GetActivityGroup)
					r.Put("/{groupId}", h.UpdateActivityGroup)
					r.Delete("/{groupId}", h.DeleteActivityGroup)
					r.Get("/{groupId}/members", h.ListGroupMembers)
					r.Post("/{groupId}/members/{learnerId}", h.EnrollMember)
					r.Delete("/{groupId}/members/{learnerId}", h.WithdrawMember)
				})

				r.Route("/events", func(r chi.Router) {
					r.Get("/", h.ListEvents)
					r.Post("/", h.CreateEvent)
					r.Get("/{eventId}", h.GetEvent)
					r.Put("/{eventId}", h.UpdateEvent)
					r.Delete("/{eventId}", h.DeleteEvent)
					r.Post("/{eventId}/publish", h.PublishEvent)
					r.Post("/{eventId}/cancel", h.CancelEvent)
					r.Get("/{eventId}/rsvps", h.ListEventRSVPs)
					r.Post("/{eventId}/rsvps", h.CreateRSVP)
					r.Delete("/{eventId}/rsvps", h.CancelRSVP)
				})

				r.Route("/messages", func(r chi.Router) {
					r.Get("/", h.ListMessages)
					r.Post("/", h.ComposeMessage)
					r.Get("/{messageId}", h.GetMessage)
					r.Put("/{messageId}", h.UpdateMessage)
					r.Delete("/{messageId}", h.DeleteMessage)
					r.Post("/{messageId}/send", h.SendMessage)
					r.Post("/{messageId}/resend", h.ResendMessage)
					r.Get("/{messageId}/preview", h.PreviewMessage)
					r.Get("/{messageId}/recipients", h.ListMessageRecipients)
				})
			})
		})
	})

	// Locally stored uploads are served under /media in development. S3/CDN
	// deployments never hit this; asset URLs point at the CDN.
	if local, ok := h.blobStore.(*media.LocalStore); ok {
		fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(local.Root())))
		r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
			fileServer.ServeHTTP(w, req)
		})
	}

	// Serve static files for the admin portal (SPA with fallback to index.html)
	spaHandler(r, "./web/dist")

	return r, apiRouter
}

// spaHandler serves static files and falls back to index.html for SPA routing
func spaHandler(r chi.Router, staticPath string) {
	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path

		// Skip API routes
		if strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/health") ||
			strings.HasPrefix(path, "/auth") || strings.HasPrefix(path, "/media") {
			http.NotFound(w, req)
			return
		}

		// Try to serve the file directly
		filePath := filepath.Join(staticPath, path)
		if _, err := os.Stat(filePath); err == nil {
			http.ServeFile(w, req, filePath)
			return
		}

		// For SPA routing, serve index.html for unknown paths
		indexPath := filepath.Join(staticPath, "index.html")
		http.ServeFile(w, req, indexPath)
	})
}
