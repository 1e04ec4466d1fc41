package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/standakozak/ticketsbooking/internal/bank"
	"github.com/standakozak/ticketsbooking/internal/clock"
	"github.com/standakozak/ticketsbooking/internal/config"
	"github.com/standakozak/ticketsbooking/internal/database"
	"github.com/standakozak/ticketsbooking/internal/handler"
	"github.com/standakozak/ticketsbooking/internal/notify"
	"github.com/standakozak/ticketsbooking/internal/queue"
	"github.com/standakozak/ticketsbooking/internal/repository"
	"github.com/standakozak/ticketsbooking/internal/router"
	"github.com/standakozak/ticketsbooking/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := database.SeedSeats(ctx, db, cfg.SeatsPerTable, cfg.StandingCapacity); err != nil {
		log.Fatalf("seed seats: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}

	store := repository.New(db)
	clk := clock.System()
	ledger := service.NewLedger()
	notifier := notify.NewAMQPNotifier(cfg.RabbitURL, cfg.AdminEmail)

	lifecycle := service.NewLifecycle(store, ledger, clk)
	booking := service.NewBookingService(store, lifecycle, notifier,
		cfg.TicketLimit, int64(cfg.TicketPrice), cfg.AccountNumber)
	sweeper := service.NewSweeper(store, lifecycle, ledger, notifier, clk, cfg.ExpiryDays)
	feed := bank.NewClient(cfg.FioToken)
	reconciler := service.NewReconciler(store, lifecycle, feed, notifier,
		int64(cfg.TicketPrice), cfg.Currency)
	admin := service.NewAdminService(store, lifecycle)

	queue.StartMailConsumers(cfg.RabbitURL)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e, cfg, rdb,
		handler.NewBookingHandler(booking),
		handler.NewAdminHandler(cfg, admin, sweeper, reconciler))

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
