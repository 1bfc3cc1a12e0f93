package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"railbook/internal/config"
	"railbook/internal/middleware"
	"railbook/internal/modules/auth"
	"railbook/internal/modules/booking"
	"railbook/internal/modules/catalog"
	"railbook/internal/modules/fare"
	"railbook/internal/modules/inventory"
	"railbook/internal/modules/ledger"
	"railbook/internal/modules/station"
	"railbook/internal/pkg/jwt"
	"railbook/internal/pkg/ticketpdf"
	"railbook/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const ticketIssuer = "Railbook"

// Deps is what the application needs from the outside world.
type Deps struct {
	DB       *gorm.DB
	Stations *station.Index
	Trains   *catalog.Service
	Pending  booking.PendingStore
	// Picker decides berth types when the inventory is built; nil means random.
	Picker inventory.BerthPicker
}

// App holds the wired services so cmd/api can start background work on them.
type App struct {
	Router   *gin.Engine
	Bookings *booking.Service
	Users    *repository.UserRepository
	JWT      *jwt.Service
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.DB == nil || deps.Stations == nil || deps.Trains == nil || deps.Pending == nil {
		return nil, errors.New("server: missing dependency")
	}

	picker := deps.Picker
	if picker == nil {
		picker = inventory.RandomPicker()
	}

	users := repository.NewUserRepository(deps.DB)
	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	inv := inventory.Build(deps.Trains.All(), picker, inventory.Policy{AtomicAllocation: cfg.AtomicAllocation})
	bookings := booking.NewService(booking.Deps{
		Catalog:   deps.Trains,
		Stations:  deps.Stations,
		Inventory: inv,
		Fares:     fare.NewCalculator(deps.Stations, deps.Trains),
		Ledger:    ledger.New(),
		Pending:   deps.Pending,
		Renderer:  ticketpdf.New(ticketIssuer),
	}, booking.Options{
		PendingTTL:      cfg.PendingTTL,
		HoldOnPending:   cfg.HoldOnPending,
		RestockOnCancel: cfg.RestockOnCancel,
	})

	authHandler := auth.NewHandler(auth.NewService(users, jwtService))
	stationHandler := station.NewHandler(deps.Stations)
	catalogHandler := catalog.NewHandler(deps.Trains)
	bookingHandler := booking.NewHandler(bookings)

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.ErrorLogger())
	r.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)
		stationHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
		}
	}

	return &App{Router: r, Bookings: bookings, Users: users, JWT: jwtService}, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Authorization", "Accept", "Origin", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// Server wraps http.Server for graceful shutdown.
type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(addr string, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}
	logrus.WithField("addr", addr).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
