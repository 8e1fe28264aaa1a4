// Command worker consumes booking events and sends the customer
// notifications for them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/skyclient/config"
	"github.com/Domenick1991/skyclient/internal/email"
	"github.com/Domenick1991/skyclient/internal/kafka"
	"github.com/Domenick1991/skyclient/internal/logger"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.NewStructured("error", "console").Error("load config", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)

	kc := cfg.Server.Kafka
	if !kc.Enabled() {
		log.Error("server.kafka.brokers and server.kafka.booking_events_topic are required", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(kc.Brokers, kc.GroupID, kc.BookingEventsTopic, log)
	defer consumer.Close()

	sender := email.NewSender(log)
	log.Info("worker started", map[string]interface{}{"topic": kc.BookingEventsTopic, "group_id": kc.GroupID})
	if err := consumer.ConsumeBookingEvents(ctx, sender.Send); err != nil {
		log.Error("consumer stopped", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	log.Info("worker stopped", nil)
}
