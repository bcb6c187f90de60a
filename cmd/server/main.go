package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sidescroller-session-engine/internal/api"
	"sidescroller-session-engine/internal/config"
	"sidescroller-session-engine/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("==================================")
	log.Println(" SIDE-SCROLLER SESSION ENGINE")
	log.Println("==================================")

	cfg := config.Load()

	engine := session.NewEngine(cfg)
	engine.Start(cfg.Tuning.TickHz, cfg.Tuning.PresenceSweepInterval)
	log.Printf("session engine started: tickHz=%d playerTimeout=%s", cfg.Tuning.TickHz, cfg.Tuning.PlayerTimeout)

	if cfg.GM.Enabled() {
		log.Println("GM surface enabled")
	} else {
		log.Println("GM surface disabled (no GM_PASSWORD set)")
	}

	server := api.NewServer(engine)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	go func() {
		log.Printf("API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	if cfg.KeepAlive.Enabled() {
		startKeepAlive(cfg.KeepAlive.ExternalURL, cfg.KeepAlive.Interval)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	log.Println("server ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	server.Stop()
	engine.Stop()
	log.Println("goodbye")
}

// startKeepAlive self-pings the configured external URL on an interval so
// hosts that idle down a process with no inbound traffic (e.g. Render) keep
// it warm (§9 "self-ping keep-alive").
func startKeepAlive(url string, interval time.Duration) {
	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			resp, err := client.Get(url)
			if err != nil {
				log.Printf("keep-alive ping failed: %v", err)
				continue
			}
			resp.Body.Close()
		}
	}()
	log.Printf("keep-alive enabled: pinging %s every %s", url, interval)
}
