// Command revpulse-key manages per-operator billing API keys.
//
// Keys are read from stdin rather than a flag so they do not end up in
// shell history or process listings:
//
//	echo -n "sk_live_..." | revpulse-key -operator acme
//	revpulse-key -operator acme -delete
package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"revpulse/internal/cli"
	"revpulse/internal/credentials"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("key")

	operatorFlag := flag.String("operator", "", "operator to manage the key for (default: configured operator)")
	deleteFlag := flag.Bool("delete", false, "delete the operator's key instead of setting it")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(logger)

	operatorID := *operatorFlag
	if operatorID == "" {
		operatorID = cfg.DefaultOperatorID
	}

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *deleteFlag {
		if err := repo.DeleteAPIKey(ctx, operatorID, credentials.BillingKeyName); err != nil {
			logger.Error("Failed to delete key", "operator_id", operatorID, "error", err)
			os.Exit(1)
		}
		logger.Info("Key deleted", "operator_id", operatorID)
		return
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		logger.Error("Failed to read key from stdin", "error", err)
		os.Exit(1)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		logger.Error("Empty key, nothing stored")
		os.Exit(1)
	}

	if err := repo.SetAPIKey(ctx, operatorID, credentials.BillingKeyName, key); err != nil {
		logger.Error("Failed to store key", "operator_id", operatorID, "error", err)
		os.Exit(1)
	}
	logger.Info("Key stored", "operator_id", operatorID)
}
