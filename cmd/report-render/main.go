package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/minsupark/titleforge/internal/aitext"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/report"
)

type titleResult struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Model       string `json:"model"`
}

func main() {
	sessionPath := flag.String("session", "session.json", "Path to the analysis session JSON")
	titlePath := flag.String("title", "", "Optional path to a generated title JSON")
	mdPath := flag.String("output", "", "Path to write report markdown (defaults to stdout)")
	htmlPath := flag.String("html", "", "Optional path to write the HTML report")
	pdfPath := flag.String("pdf", "", "Optional path to write the PDF report (needs Chromium)")
	flag.Parse()

	session, err := readSession(*sessionPath)
	if err != nil {
		log.Fatal(err)
	}

	data := report.Data{
		GeneratedAt:    time.Now(),
		RawInput:       session.RawInput,
		TargetCategory: session.TargetCategory,
		Records:        session.Records,
		Listings:       session.Listings,
	}
	if *titlePath != "" {
		var tr titleResult
		if err := readJSON(*titlePath, &tr); err != nil {
			log.Fatal(err)
		}
		data.Title = aitext.Title{Name: tr.Title, Explanation: tr.Explanation}
		data.ModelName = tr.Model
	}

	markdown := report.BuildMarkdown(data)
	if err := writeText(*mdPath, markdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}

	if *htmlPath != "" {
		html, err := report.RenderHTML(markdown)
		if err != nil {
			log.Fatalf("render html: %v", err)
		}
		if err := os.WriteFile(*htmlPath, []byte(html), 0o644); err != nil {
			log.Fatalf("write html: %v", err)
		}
	}

	if *pdfPath != "" {
		pdf, err := report.NewChromiumPDFRenderer().Render(context.Background(), markdown)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
	}
	log.Printf("titleforge report done keywords=%d listings=%d", len(session.Records), len(session.Listings))
}

func readSession(path string) (keyword.Session, error) {
	var session keyword.Session
	if err := readJSON(path, &session); err != nil {
		return session, err
	}
	return session, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeText(path, s string) error {
	if path == "" {
		_, err := fmt.Print(s)
		return err
	}
	return os.WriteFile(path, []byte(s), 0o644)
}
