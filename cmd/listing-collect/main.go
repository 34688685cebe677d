package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/minsupark/titleforge/internal/credstore"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/listings"
	"github.com/minsupark/titleforge/internal/naver"
)

func main() {
	sessionPath := flag.String("session", "session.json", "Path to the analysis session JSON (updated in place unless -output is set)")
	outputPath := flag.String("output", "", "Optional path to write the updated session (defaults to -session)")
	maxPerKeyword := flag.Int("max-per-keyword", listings.DefaultMaxPerKeyword, "Listings to collect per keyword")
	selectedOnly := flag.Bool("selected-only", false, "Collect only for records marked selected")
	credDB := flag.String("cred-db", "", "Optional credential store SQLite path")
	flag.Parse()

	session, err := readSession(*sessionPath)
	if err != nil {
		log.Fatal(err)
	}
	kws := sessionKeywords(session, *selectedOnly)
	if len(kws) == 0 {
		log.Fatal("session has no keywords to collect for")
	}

	var store *credstore.Store
	if *credDB != "" {
		if store, err = credstore.Open(*credDB); err != nil {
			log.Fatalf("open credential store: %v", err)
		}
		defer store.Close()
	}
	shopCreds, err := credstore.LoadShopping(store)
	if err != nil {
		log.Fatal(err)
	}
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

	session.Listings = listings.NewCollector(shopping).CollectForKeywords(ctx, kws, *maxPerKeyword)

	out := *outputPath
	if out == "" {
		out = *sessionPath
	}
	if err := writeSession(out, session); err != nil {
		log.Fatal(err)
	}
	log.Printf("titleforge collect done keywords=%d listings=%d output=%s", len(kws), len(session.Listings), out)
}

func sessionKeywords(session keyword.Session, selectedOnly bool) []string {
	var kws []string
	for _, r := range session.Records {
		if selectedOnly && !r.Selected {
			continue
		}
		kws = append(kws, r.Keyword)
	}
	return kws
}

func readSession(path string) (keyword.Session, error) {
	var session keyword.Session
	b, err := os.ReadFile(path)
	if err != nil {
		return session, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(b, &session); err != nil {
		return session, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
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
