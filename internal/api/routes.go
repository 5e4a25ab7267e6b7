package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/theLastOfCats/mylibrary-server/internal/auth"
	"github.com/theLastOfCats/mylibrary-server/internal/db"
	"github.com/theLastOfCats/mylibrary-server/internal/mail"
	"github.com/theLastOfCats/mylibrary-server/internal/ratelimit"
	"github.com/theLastOfCats/mylibrary-server/internal/templates"
)

// Deps holds everything the router needs.
type Deps struct {
	DB             *db.DB
	Catalog        Catalog
	Verifier       *auth.Verifier
	Templates      *templates.Manager
	Notifier       *mail.Notifier
	ReserveLimiter *ratelimit.KeyedRateLimiter
	Logger         *slog.Logger
	CORSOrigins    []string
	ExposeAllBooks bool
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Alive"))
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := NewValidator()

	mw := &Middleware{Verifier: d.Verifier, Logger: logger}
	catalogHandler := &CatalogHandler{Catalog: d.Catalog, Validator: validator, Logger: logger}
	bookHandler := &BookHandler{DB: d.DB, Validator: validator, Logger: logger, ExposeAllBooks: d.ExposeAllBooks}
	statsHandler := &StatsHandler{DB: d.DB, Logger: logger}
	userHandler := &UserHandler{DB: d.DB, Validator: validator, Logger: logger}
	wishlistHandler := &WishlistHandler{
		DB:        d.DB,
		Validator: validator,
		Templates: d.Templates,
		Notifier:  d.Notifier,
		Logger:    logger,
	}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public Routes
	r.Get("/", Health)
	r.Get("/share/{token}", wishlistHandler.SharePage)
	r.Route("/wishlist/{token}", func(r chi.Router) {
		r.Get("/", wishlistHandler.GetWishlist)
		r.Group(func(r chi.Router) {
			if d.ReserveLimiter != nil {
				r.Use(RateLimitMiddleware(d.ReserveLimiter, logger))
			}
			r.Post("/reserve", wishlistHandler.Reserve)
		})
	})

	// Protected Routes
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.AuthMiddleware)

		r.Post("/getBook", catalogHandler.GetBook)
		r.Post("/searchBooks", catalogHandler.SearchBooks)
		r.Get("/catalogStats", catalogHandler.CatalogStats)

		r.Get("/getBooks", bookHandler.GetBooks)
		r.Get("/library", bookHandler.GetLibrary)
		r.Get("/wishlist", bookHandler.GetWishlist)
		r.Get("/books", bookHandler.ListAllBooks)
		r.Get("/books/{id}", bookHandler.GetBook)
		r.Delete("/books/{id}", bookHandler.DeleteBook)
		r.Post("/addToLibrary", bookHandler.AddToLibrary)
		r.Post("/updateBook", bookHandler.UpdateBook)

		r.Get("/me", userHandler.GetMe)
		r.Post("/me/settings", userHandler.UpdateSettings)

		r.Get("/stats", statsHandler.GetStats)
		r.Get("/stats/monthly", statsHandler.GetMonthly)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
