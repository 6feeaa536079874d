package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"pasal/docs"
	"pasal/internal/cart"
	"pasal/internal/catalog"
	"pasal/internal/checkout"
	"pasal/internal/commerce"
	"pasal/internal/media"
	"pasal/internal/metrics"
	"pasal/internal/paylog"
	"pasal/internal/payflow"
	"pasal/internal/pending"
	"pasal/internal/ratelimiter"
	"pasal/internal/refcode"
	"pasal/internal/session"
)

type application struct {
	config          config
	logger          *zap.SugaredLogger
	api             *commerce.Client
	sessions        session.Store
	catalog         *catalog.Service
	cart            *cart.Service
	checkout        *checkout.Service
	reconciler      *payflow.Reconciler
	pendingPayments pending.Store
	attempts        *paylog.Repository
	refs            *refcode.Codec
	media           *media.Resizer
	metrics         *metrics.Metrics
	promRegistry    *prometheus.Registry
	rateLimiter     *ratelimiter.FixedWindowLimiter
}

type config struct {
	addr        string
	env         string
	apiURL      string
	commerceURL string
	redisURL    string
	db          dbConfig
	auth        authConfig
	session     sessionConfig
	refSalt     string
	rateLimiter ratelimiter.Config
}

type dbConfig struct {
	addr        string
	maxConns    int32
	maxIdleTime string
}

type authConfig struct {
	basic basicConfig
}

type basicConfig struct {
	user string
	pass string
}

type sessionConfig struct {
	cookieName string
	ttl        time.Duration
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Signals through ctx.Done() that the request has timed out and further
	// processing should stop.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.SessionMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics",
			promhttp.HandlerFor(app.promRegistry, promhttp.HandlerOpts{}))
		r.With(app.BasicAuthMiddleware()).Get("/support/payments/{ref}", app.supportPaymentHandler)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public catalog routes.
		r.Route("/products", func(r chi.Router) {
			r.Get("/", app.listProductsHandler)
			r.Get("/{productID}", app.getProductHandler)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategoriesHandler)
			r.Get("/{categoryID}/products", app.listCategoryProductsHandler)
		})

		r.Route("/authentication", func(r chi.Router) {
			r.Post("/login", app.loginHandler)
			r.Post("/register", app.registerHandler)
			r.Post("/otp", app.verifyOTPHandler)
		})

		r.Route("/store", func(r chi.Router) {
			r.Use(app.RequireSession)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", app.getCartHandler)
				r.Post("/items", app.addCartItemHandler)
				r.Patch("/items/{itemID}", app.updateCartItemHandler)
				r.Delete("/items/{itemID}", app.removeCartItemHandler)
			})

			r.Get("/checkout/methods", app.paymentMethodsHandler)
			r.Post("/checkout", app.checkoutHandler)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", app.listOrdersHandler)
				r.Get("/{orderID}", app.getOrderHandler)
			})

			r.Get("/payments/latest", app.latestPaymentHandler)
			r.Get("/notifications", app.notificationsHandler)
		})

		r.With(app.RequireSession).Post("/users/logout", app.logoutHandler)
	})

	// Payment gateway callbacks and terminal pages. These are opened in the
	// user's browser, so they answer with HTML, never JSON.
	r.Route("/payment", func(r chi.Router) {
		r.Use(app.RateLimiterMiddleware)

		r.Get("/success", app.paymentCallbackHandler) // generic / COD verification route
		r.Get("/callback/esewa/success", app.paymentCallbackHandler)
		r.Get("/callback/khalti/success", app.paymentCallbackHandler)
		r.Get("/callback/esewa/failure", app.gatewayFailureRedirectHandler)
		r.Get("/callback/khalti/failure", app.gatewayFailureRedirectHandler)

		r.Get("/esewa/success", app.successPageHandler)
		r.Get("/khalti/success", app.successPageHandler)
		r.Get("/cod/success", app.codSuccessPageHandler)
		r.Get("/esewa/failure", app.failurePageHandler)
		r.Get("/khalti/failure", app.failurePageHandler)
		r.Get("/cod/failure", app.failurePageHandler)

		r.Post("/cancel", app.cancelPaymentHandler)
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
