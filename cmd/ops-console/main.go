package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuepulse/client"
	"venuepulse/config"
	"venuepulse/models"
	"venuepulse/utils"
)

// ops-console is a headless dashboard client: it keeps a presence session
// alive against the dashboard service and prints push notifications from the
// gateway. Useful for soak-testing the protocol without a browser.
func main() {
	operatorID := flag.String("operator-id", "", "operator id (required)")
	operatorName := flag.String("operator-name", "", "operator display name (required)")
	standID := flag.String("stand-id", "", "initial stand id")
	standName := flag.String("stand-name", "", "initial stand name")
	section := flag.String("section", "", "initial section")
	tab := flag.String("tab", "overview", "initial tab")
	sandbox := flag.Bool("sandbox", false, "create a sandbox (non-production) session")
	token := flag.String("token", os.Getenv("API_TOKEN"), "bearer token for the service and gateway")
	flag.Parse()

	cfg := config.LoadConfig()
	logger := utils.NewLogger("ops-console")

	if *operatorID == "" || *operatorName == "" {
		logger.Fatal("operator-id and operator-name are required")
	}

	// Session manager against the dashboard service.
	api := client.NewAPIClient(cfg.ServiceURL, *token)
	manager := client.NewSessionManager(api, logger)
	manager.SetHeartbeatInterval(cfg.HeartbeatInterval)

	sessionID := manager.Start(context.Background(), *operatorID, *operatorName, models.SessionContext{
		StandID:    *standID,
		StandName:  *standName,
		Section:    *section,
		CurrentTab: *tab,
		Status:     models.StatusOnline,
	}, *sandbox)
	if sessionID == "" {
		logger.Warn("session creation failed; running session-less until restart")
	}

	// Notification channel against the gateway; toasts land in the log.
	gatewayURL := cfg.GatewayURL
	if *token != "" {
		gatewayURL += "?token=" + *token
	}
	sink := client.NotifierFunc(func(severity client.Severity, message string, duration time.Duration, id string) {
		logger.Info("notification", "severity", string(severity), "message", message, "dismiss_after", duration.String(), "id", id)
	})
	channel, err := client.NewNotificationChannel(gatewayURL, sink, logger)
	if err != nil {
		logger.Fatal("invalid gateway url", "error", err)
	}
	channel.SetReconnectDelay(cfg.ReconnectDelay)
	channel.Connect()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	channel.Close()
	manager.Stop()

	logger.Info("Console exited")
}
