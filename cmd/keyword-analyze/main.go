package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/minsupark/titleforge/internal/credstore"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/naver"
	"github.com/minsupark/titleforge/internal/parallel"
)

func main() {
	inputPath := flag.String("input", "", "Path to a file of raw keywords (comma/newline separated); '-' for stdin")
	keywordsArg := flag.String("keywords", "", "Raw keywords inline, comma separated (alternative to -input)")
	outputPath := flag.String("output", "session.json", "Path to write the analysis session JSON")
	targetCategory := flag.String("category", "", "Optional target category path to filter by after enrichment")
	minVolume := flag.Int("min-volume", 0, "Drop keywords under this monthly search volume")
	credDB := flag.String("cred-db", "", "Optional credential store SQLite path")
	flag.Parse()

	raw, err := readRawInput(*inputPath, *keywordsArg)
	if err != nil {
		log.Fatal(err)
	}

	store := openCredStore(*credDB)
	if store != nil {
		defer store.Close()
	}
	searchAdCreds, err := credstore.LoadSearchAd(store)
	if err != nil {
		log.Fatal(err)
	}
	shopCreds, err := credstore.LoadShopping(store)
	if err != nil {
		log.Fatal(err)
	}

	volume, err := naver.NewSearchAdClient(naver.SearchAdConfig{
		AccessLicense:      searchAdCreds.LicenseKey,
		SecretKey:          searchAdCreds.SecretKey,
		CustomerID:         searchAdCreds.CustomerID,
		RateLimitPerSecond: envInt("NAVER_RATE_LIMIT", naver.DefaultRateLimitPerSecond),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer volume.Close()
	shopping, err := naver.NewShoppingClient(naver.ShoppingConfig{
		ClientID:           shopCreds.ClientID,
		ClientSecret:       shopCreds.ClientSecret,
		RateLimitPerSecond: envInt("NAVER_RATE_LIMIT", naver.DefaultRateLimitPerSecond),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer shopping.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := keyword.NewService(volume, shopping)
	opts := keyword.BatchOptions{
		MaxConcurrency: envInt("TITLEFORGE_MAX_CONCURRENCY", parallel.DefaultMaxConcurrency),
		OnProgress: func(done, total int, label string) {
			log.Printf("titleforge analyze progress done=%d total=%d keyword=%s", done, total, label)
		},
	}

	records, err := svc.Analyze(ctx, raw, opts)
	if err != nil {
		log.Fatal(err)
	}
	records = svc.EnrichCategoryAndCount(ctx, records, opts)
	if *minVolume > 0 {
		records = keyword.FilterByMinVolume(records, *minVolume)
	}
	if *targetCategory != "" {
		records = svc.RefineByCategory(records, *targetCategory)
	}

	session := keyword.Session{
		RawInput:       raw,
		Records:        records,
		TargetCategory: *targetCategory,
	}
	if err := writeSession(*outputPath, session); err != nil {
		log.Fatal(err)
	}
	log.Printf("titleforge analyze done keywords=%d output=%s", len(records), *outputPath)
}

func readRawInput(inputPath, inline string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if inputPath == "" {
		return "", fmt.Errorf("missing required -input or -keywords")
	}
	if inputPath == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func openCredStore(path string) *credstore.Store {
	if path == "" {
		return nil
	}
	store, err := credstore.Open(path)
	if err != nil {
		log.Fatalf("open credential store: %v", err)
	}
	return store
}

func writeSession(path string, session keyword.Session) error {
	b, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}
