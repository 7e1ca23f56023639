package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/devfood/restaurant-orders/internal/config"
	"github.com/devfood/restaurant-orders/internal/database"
	"github.com/devfood/restaurant-orders/internal/handler"
	"github.com/devfood/restaurant-orders/internal/queue"
	"github.com/devfood/restaurant-orders/internal/repository"
	"github.com/devfood/restaurant-orders/internal/router"
	"github.com/devfood/restaurant-orders/internal/storage"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	images, err := storage.NewImageStore(cfg.ImageDir)
	if err != nil {
		log.Fatalf("image store: %v", err)
	}

	rdb := config.NewRedisClient() // nil disables rate limiting and caching

	users := repository.NewUserRepo(db)
	dishes := repository.NewDishRepo(db)
	orders := repository.NewOrderRepo(db)
	tokens := repository.NewTokenRepo(db)

	h := router.Handlers{
		Auth:   handler.NewAuthHandler(cfg, users, tokens),
		Users:  handler.NewUserHandler(cfg, users),
		Dishes: handler.NewDishHandler(dishes, images),
		Orders: handler.NewOrderHandler(orders),
	}

	// Notification fan-out runs for the lifetime of the process and
	// reconnects on its own; order placement never waits for it.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg, db, rdb, h)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
