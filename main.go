package main

import (
	"fmt"
	"log"
	"os"

	"gymtrack/pkg/events"
	"gymtrack/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	svc       *ledger.Service
	publisher *events.Publisher
)

func main() {
	// Auto-load ./.env if present before reading vars
	_ = godotenv.Load()

	// Support a lightweight migrate command: `./gymtrack migrate`
	// It runs AutoMigrate then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration completed")
		return
	}

	initDB()
	svc = ledger.NewService(db)

	if url := os.Getenv("AMQP_URL"); url != "" {
		exchange := envOr("AMQP_EXCHANGE", "gymtrack")
		queue := envOr("AMQP_QUEUE", "month.closed")
		p, err := events.NewPublisher(url, exchange, queue)
		if err != nil {
			log.Printf("warning: AMQP publisher disabled: %v", err)
		} else {
			publisher = p
			defer publisher.Close()
		}
	}

	r := gin.Default()

	setupRoutes(r)

	r.Run(":" + envOr("PORT", "8081"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
