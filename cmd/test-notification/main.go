package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/dmm-case-workflow/internal/config"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/external/lark"
)

// Isolated test for Lark IM message sending.
// Sends one text message with the credentials from the service config
// without starting the workflow.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	openID := flag.String("open-id", "", "recipient open_id (defaults to the first institution with one)")
	text := flag.String("text", "", "message text")
	timeout := flag.Duration("timeout", 15*time.Second, "API call timeout")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lark.AppID == "" || cfg.Lark.AppSecret == "" {
		log.Fatal("LARK_APP_ID and LARK_APP_SECRET must be set")
	}

	recipient := *openID
	if recipient == "" {
		for _, inst := range cfg.Institutions {
			if inst.LarkOpenID != "" {
				recipient = inst.LarkOpenID
				fmt.Printf("Using open_id of institution %s\n", inst.Code)
				break
			}
		}
	}
	if recipient == "" {
		log.Fatal("No open_id provided. Cannot send test message.")
	}

	message := *text
	if message == "" {
		message = fmt.Sprintf("DMM notification test sent at %s", time.Now().Format(time.RFC3339))
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client := lark.NewSDKClient(lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		BaseURL:   cfg.Lark.BaseURL,
	}, logger)
	messenger := lark.NewMessenger(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := messenger.SendTextMessage(ctx, recipient, message); err != nil {
		log.Fatalf("Failed to send message: %v", err)
	}
	fmt.Printf("✓ Message sent to %s\n", recipient)
}
