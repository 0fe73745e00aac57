// alertwatch tails the anomaly alert queue and prints each alert.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/insights/internal/alerts"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	tenant := flag.String("tenant", "", "Tenant to watch (empty for the default tenant, \"*\" for all tenants on NATS)")
	asJSON := flag.Bool("json", false, "Print raw JSON instead of one line per alert")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error: failed to load config: %v\n", err)
	}
	if cfg.Alerts.Type == "" || cfg.Alerts.Type == alerts.TypeMemory {
		log.Fatal("Error: the memory alert queue is process-local, configure nats, redis or kafka")
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		log.Fatalf("Error: failed to initialize logger: %v\n", err)
	}

	notifier, err := alerts.NewNotifierFromConfig(cfg.Alerts, logger)
	if err != nil {
		log.Fatalf("Error: failed to connect to alert queue: %v\n", err)
	}
	defer func() { _ = notifier.Close() }()

	subject := notifier.Subject(*tenant)
	if *tenant == "*" {
		subject = cfg.Alerts.Subject + ".*"
	}

	err = notifier.Watch(subject, func(a alerts.Alert) error {
		if *asJSON {
			return json.NewEncoder(os.Stdout).Encode(a)
		}
		fmt.Printf("%s  %-8s %-6s %-10s %s\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), a.TenantID, a.Severity, a.Type, a.Message)
		return nil
	})
	if err != nil {
		log.Fatalf("Error: failed to subscribe to %s: %v\n", subject, err)
	}

	fmt.Fprintf(os.Stderr, "Watching %s (%s), Ctrl+C to stop\n", subject, cfg.Alerts.Type)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
