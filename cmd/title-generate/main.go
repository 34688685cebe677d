package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/minsupark/titleforge/internal/aitext"
	"github.com/minsupark/titleforge/internal/credstore"
	"github.com/minsupark/titleforge/internal/keyword"
)

func main() {
	sessionPath := flag.String("session", "session.json", "Path to the analysis session JSON")
	coreKeyword := flag.String("core", "", "Core keyword (must be one of the session keywords)")
	brand := flag.String("brand", "", "Brand name, placed at the front of the title")
	material := flag.String("material", "", "Material or form, placed toward the end")
	quantity := flag.String("quantity", "", "Quantity or weight, placed toward the end")
	outputPath := flag.String("output", "", "Optional path to write the generated title JSON (defaults to stdout)")
	expandKeywords := flag.Bool("expand-keywords", false, "Instead of a title, expand collected listing titles into candidate keywords")
	credDB := flag.String("cred-db", "", "Optional credential store SQLite path")
	flag.Parse()

	session, err := readSession(*sessionPath)
	if err != nil {
		log.Fatal(err)
	}

	var store *credstore.Store
	if *credDB != "" {
		if store, err = credstore.Open(*credDB); err != nil {
			log.Fatalf("open credential store: %v", err)
		}
		defer store.Close()
	}
	aiCreds, err := credstore.LoadAI(store)
	if err != nil {
		log.Fatal(err)
	}
	caller := aitext.NewAnthropicCaller(aiCreds.APIKey)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *expandKeywords {
		if err := runKeywordExpansion(ctx, caller, session, *outputPath); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := runTitleGeneration(ctx, caller, session, *coreKeyword, *brand, *material, *quantity, *outputPath); err != nil {
		log.Fatal(err)
	}
}

func runKeywordExpansion(ctx context.Context, caller aitext.Caller, session keyword.Session, outputPath string) error {
	if len(session.Listings) == 0 {
		return fmt.Errorf("session has no listings; run listing-collect first")
	}
	titles := make([]string, 0, len(session.Listings))
	for _, l := range session.Listings {
		titles = append(titles, l.Title)
	}
	prompt := aitext.BuildKeywordPrompt(titles, "")

	resp, err := aitext.GenerateWithRetry(ctx, caller, aitext.KeywordExpansionSystem, prompt)
	if err != nil {
		return fmt.Errorf("keyword expansion: %w", err)
	}
	kws, err := aitext.ParseKeywords(resp)
	if err != nil {
		return fmt.Errorf("parse keywords: %w", err)
	}
	log.Printf("titleforge expand done candidates=%d model=%s", len(kws), caller.ModelName())
	return writeJSON(outputPath, map[string]any{"keywords": kws, "model": caller.ModelName()})
}

func runTitleGeneration(ctx context.Context, caller aitext.Caller, session keyword.Session, core, brand, material, quantity, outputPath string) error {
	if len(session.Records) == 0 {
		return fmt.Errorf("session has no analyzed keywords; run keyword-analyze first")
	}
	inputs := aitext.TitleInputs{
		Brand:    brand,
		Material: material,
		Quantity: quantity,
	}
	for _, r := range session.Records {
		stat := aitext.KeywordStat{Keyword: r.Keyword, SearchVolume: r.SearchVolume, TotalProducts: r.TotalProducts}
		inputs.Selected = append(inputs.Selected, stat)
		if r.Keyword == core {
			inputs.Core = stat
		}
	}
	if inputs.Core.Keyword == "" {
		if core != "" {
			return fmt.Errorf("core keyword %q is not in the session", core)
		}
		inputs.Core = inputs.Selected[0]
	}
	if len(session.Listings) > 0 {
		titles := make([]string, 0, len(session.Listings))
		for _, l := range session.Listings {
			titles = append(titles, l.Title)
		}
		inputs.LengthStats = aitext.TitleLengthStats(titles)
	}

	resp, err := aitext.GenerateWithRetry(ctx, caller, aitext.TitleGenerationSystem, aitext.BuildTitlePrompt(inputs))
	if err != nil {
		return fmt.Errorf("title generation: %w", err)
	}
	title, err := aitext.ParseGeneratedTitle(resp)
	if err != nil {
		return fmt.Errorf("parse title: %w", err)
	}
	log.Printf("titleforge generate done title=%q model=%s", title.Name, caller.ModelName())
	return writeJSON(outputPath, map[string]any{
		"title":       title.Name,
		"explanation": title.Explanation,
		"model":       caller.ModelName(),
	})
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

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err := fmt.Println(string(b))
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
