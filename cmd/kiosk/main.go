package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/wuehlmarkt/kiosk/internal/api"
	"github.com/wuehlmarkt/kiosk/internal/catalog"
	"github.com/wuehlmarkt/kiosk/internal/checkout"
	"github.com/wuehlmarkt/kiosk/internal/checkout/paypal"
	"github.com/wuehlmarkt/kiosk/internal/config"
	"github.com/wuehlmarkt/kiosk/internal/events"
	"github.com/wuehlmarkt/kiosk/internal/scanner"
	"github.com/wuehlmarkt/kiosk/internal/session"
)

// Operator action codes. The till has no touch input in this harness, so
// checkout is triggered by scanning one of the action barcodes taped next to
// the screen.
const (
	actionPayCash   = "999001"
	actionPayPayPal = "999002"
	actionCancel    = "999000"
)

func main() {
	cfg := config.Load()
	mode := getEnv("KIOSK_MODE", "sco")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.APIBaseURL)
	log.Printf("Using backend at %s", cfg.APIBaseURL)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	lookup := catalog.NewLookup(client, catalog.NewRedisCache(redisClient))

	var sink checkout.EventSink = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		sink = publisher
		log.Printf("Publishing checkout events to %v", cfg.KafkaBrokers)
	}

	nav := &logNavigator{}
	provider := paypal.NewClient(cfg.PayPalBaseURL, cfg.PayPalClientID, cfg.PayPalSecret)
	bank := checkout.BankAccount{Name: cfg.BankName, IBAN: cfg.BankIBAN, BIC: cfg.BankBIC}
	flow := checkout.NewFlow(client, provider, sink, nav, bank)
	defer flow.Close()

	var ctrl *session.Controller
	switch mode {
	case "pledge":
		resolver := session.NewPledgeResolver(client)
		ctrl = session.NewController(resolver, session.NewPledgePrinter(client, nav), nav)
	default:
		resolver := session.NewCheckoutResolver(lookup)
		ctrl = session.NewController(resolver, flow, nav)
	}
	defer ctrl.Close()

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Session ready (%s), scan away", mode)

	keyboard := scanner.NewKeyboard(os.Stdin)
	go keyboard.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down")
			return
		case code, ok := <-keyboard.Barcodes():
			if !ok {
				return
			}
			handleCode(ctx, ctrl, flow, code)
			render(ctrl)
		}
	}
}

func handleCode(ctx context.Context, ctrl *session.Controller, flow *checkout.Flow, code string) {
	switch code {
	case actionCancel:
		ctrl.RequestCancel()
		ctrl.ConfirmCancel()
	case actionPayCash:
		if err := ctrl.Checkout(ctx); err != nil {
			log.Printf("Checkout refused: %v", err)
			return
		}
		if err := flow.PayCash(ctx); err != nil {
			log.Printf("Cash payment failed: %v", err)
		}
	case actionPayPayPal:
		if err := ctrl.Checkout(ctx); err != nil {
			log.Printf("Checkout refused: %v", err)
			return
		}
		if err := flow.PayProvider(ctx); err != nil {
			log.Printf("PayPal payment failed: %v", err)
		}
	default:
		ctrl.HandleBarcode(ctx, code)
	}
}

func render(ctrl *session.Controller) {
	if note := ctrl.Notification(); note != nil {
		log.Printf("[%s] %s", note.Kind, note.Text)
	}
	for _, line := range ctrl.Lines() {
		log.Printf("  %d × %-20s %8s", line.Quantity, line.Name, line.Subtotal().StringFixed(2))
	}
	log.Printf("Gesamt: %s €", ctrl.Total().StringFixed(2))
}

// logNavigator stands in for the presentation shell, which is out of scope
// here.
type logNavigator struct{}

func (logNavigator) Home()       { log.Println("→ Startbildschirm") }
func (logNavigator) Completion() { log.Println("→ Abschlussbildschirm") }

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
