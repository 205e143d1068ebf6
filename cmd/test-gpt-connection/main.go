package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/external/openai"
)

// Drafts an external report for a sample case to check the OpenAI setup
func main() {
	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	baseURL := flag.String("base-url", "", "OpenAI compatible endpoint (optional)")
	model := flag.String("model", "gpt-4o-mini", "Model name")
	promptsPath := flag.String("prompts", "", "Path to prompts.yaml (built-in prompts when empty)")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-gpt-connection --key sk-... [--model gpt-4o-mini] [--prompts <path>] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== Report Drafter Connection Test ===")
	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", *model)
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	fmt.Printf("  Timeout: %v\n", *timeout)
	fmt.Println()

	prompts := openai.DefaultPrompts()
	if *promptsPath != "" {
		prompts, err = openai.LoadPrompts(*promptsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to load prompts: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Prompts loaded from %s\n\n", *promptsPath)
	}

	drafter := openai.NewDrafter(openai.Config{
		APIKey:  *apiKey,
		BaseURL: *baseURL,
		Model:   *model,
	}, prompts, logger)

	approved := true
	sample := &entity.Case{
		CaseNumber:          "DMM-TEST-001",
		Title:               "Claim that tap water in Izmir is contaminated",
		Description:         "A viral post says the municipal water supply was poisoned overnight.",
		Platform:            entity.PlatformTwitter,
		Status:              entity.StatusAwaitingCompletion,
		InstitutionResponse: "Routine tests from the same day show the supply within all limits.",
		CorrectiveInfo:      "Test results are published daily on the utility website.",
		ExpertEvaluation:    "The photo in the post is from an unrelated event in 2019.",
		LegalApproved:       &approved,
		FinalRecommendation: "Publish a correction.",
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	report, err := drafter.DraftExternalReport(ctx, sample, "Ministry of Health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Drafting failed after %v: %v\n", time.Since(start).Round(time.Millisecond), err)
		os.Exit(1)
	}

	fmt.Printf("✓ Report drafted in %v\n\n", time.Since(start).Round(time.Millisecond))
	fmt.Println(report)
}
