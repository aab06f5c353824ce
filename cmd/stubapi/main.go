package main

import (
	"log"
	"net/http"

	"github.com/wuehlmarkt/kiosk/internal/config"
	"github.com/wuehlmarkt/kiosk/internal/stubapi"
)

func main() {
	cfg := config.Load()

	server := stubapi.New()
	log.Printf("Stub backend listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
