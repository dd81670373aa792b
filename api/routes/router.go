package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cellarwise/cellarwise-backend/api/controllers"
	webhookcontrollers "github.com/cellarwise/cellarwise-backend/api/controllers/webhooks"
	"github.com/cellarwise/cellarwise-backend/api/middleware"
	"github.com/cellarwise/cellarwise-backend/internal/cellar"
	"github.com/cellarwise/cellarwise-backend/internal/outreach"
	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/internal/uploads"
	"github.com/cellarwise/cellarwise-backend/internal/usage"
	"github.com/cellarwise/cellarwise-backend/internal/users"
	stripewebhook "github.com/cellarwise/cellarwise-backend/internal/webhooks/stripe"
	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/config"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/cellarwise/cellarwise-backend/pkg/metrics"
	"github.com/cellarwise/cellarwise-backend/pkg/redis"
	"github.com/cellarwise/cellarwise-backend/pkg/stripe"
)

// Deps carries everything the router wires. Verifier, Billing, StripeClient
// and StripeWebhook may be nil when their provider is not configured.
type Deps struct {
	Pingers       map[string]controllers.Pinger
	Redis         *redis.Client
	Metrics       *metrics.Metrics
	Verifier      *auth.Verifier
	Users         users.Service
	Usage         *usage.Service
	Cellar        *cellar.Service
	Uploads       *uploads.Service
	Sommelier     *sommelier.Service
	Billing       controllers.BillingService
	Outreach      *outreach.Service
	StripeClient  *stripe.Client
	StripeWebhook *stripewebhook.Service
	WebhookGuard  *stripewebhook.IdempotencyGuard
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)

	limits := cfg.RateLimit
	generalPolicy := middleware.NewRateLimitPolicy("general", limits.GeneralWindow, limits.GeneralLimit, 0)
	authPolicy := middleware.NewRateLimitPolicy("auth", limits.AuthWindow, limits.AuthLimit, 0)
	uploadPolicy := middleware.NewRateLimitPolicy("upload", limits.UploadWindow, limits.UploadLimit, 0)
	signupPolicy := middleware.NewRateLimitPolicy("email_signup", limits.EmailSignupWindow, limits.EmailSignupLimit, limits.EmailSignupLimit)

	store := rateStore(deps.Redis)
	requireAuth := middleware.Auth(nil, nil, logg)
	if deps.Verifier != nil && deps.Users != nil {
		requireAuth = middleware.Auth(deps.Verifier, deps.Users, logg)
	}
	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(generalPolicy, store, logg))

		// Public.
		r.Post("/stripe-webhook", webhookcontrollers.StripeWebhook(webhookService(deps.StripeWebhook), deps.StripeClient, webhookGuard(deps.WebhookGuard), deps.Metrics, logg))
		r.Post("/contact", controllers.Contact(deps.Outreach, logg))
		r.With(middleware.RateLimit(signupPolicy, store, logg)).Post("/email-signup", controllers.EmailSignup(deps.Outreach, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/auth", func(r chi.Router) {
				r.Use(middleware.RateLimit(authPolicy, store, logg))
				r.Get("/user", controllers.AuthUser(deps.Usage, logg))
				r.Post("/profile", controllers.CompleteProfile(deps.Users, logg))
			})

			r.Post("/recommendations", controllers.Recommendations(deps.Sommelier, logg))

			r.Route("/cellar", func(r chi.Router) {
				r.Get("/", controllers.ListCellar(deps.Cellar, logg))
				r.Post("/save", controllers.SaveWine(deps.Cellar, logg))
				r.Get("/analytics", controllers.CellarAnalytics(deps.Cellar, logg))
				r.Delete("/{id}", controllers.DeleteCellarWine(deps.Cellar, logg))
			})

			r.With(middleware.RateLimit(uploadPolicy, store, logg)).Post("/upload/analyze", controllers.AnalyzeUpload(deps.Uploads, maxUpload, logg))
			r.Route("/uploads", func(r chi.Router) {
				r.Get("/", controllers.ListUploads(deps.Uploads, logg))
				r.Put("/{id}", controllers.UpdateUpload(deps.Uploads, logg))
				r.Delete("/{id}", controllers.DeleteUpload(deps.Uploads, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePremium(logg))
				r.Post("/analyze-meal-pairing", controllers.MealPairing(deps.Sommelier, maxUpload, logg))
				r.Post("/analyze-wine-menu", controllers.WineMenu(deps.Sommelier, maxUpload, logg))
			})

			r.Post("/create-checkout-session", controllers.CreateCheckoutSession(deps.Billing, logg))
			r.Get("/billing-info", controllers.BillingInfo(deps.Billing, logg))
			r.Post("/update-billing-address", controllers.UpdateBillingAddress(deps.Billing, logg))
			r.Post("/create-portal-session", controllers.CreatePortalSession(deps.Billing, logg))
			r.Post("/pause-subscription", controllers.PauseSubscription(deps.Billing, logg))
			r.Post("/resume-subscription", controllers.ResumeSubscription(deps.Billing, logg))
			r.Post("/change-plan", controllers.ChangePlan(deps.Billing, logg))
			r.Post("/cancel-subscription", controllers.CancelSubscription(deps.Billing, logg))
			r.Post("/reactivate-subscription", controllers.ReactivateSubscription(deps.Billing, logg))
		})
	})

	return r
}

// The helpers below keep typed nil pointers from reaching handlers as
// non-nil interfaces.

func rateStore(c *redis.Client) middleware.RateLimiterStore {
	if c == nil {
		return nil
	}
	return c
}

func webhookService(s *stripewebhook.Service) webhookcontrollers.StripeWebhookService {
	if s == nil {
		return nil
	}
	return s
}

func webhookGuard(g *stripewebhook.IdempotencyGuard) webhookcontrollers.StripeWebhookGuard {
	if g == nil {
		return nil
	}
	return g
}
