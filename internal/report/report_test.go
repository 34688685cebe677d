package report

import (
	"strings"
	"testing"
	"time"

	"github.com/minsupark/titleforge/internal/aitext"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/listings"
)

func sampleData() Data {
	return Data{
		GeneratedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TargetCategory: "생활 > 반려동물 > 간식",
		Records: []keyword.Record{
			{Keyword: "강아지간식", SearchVolume: 2000, Category: "생활 > 반려동물 > 간식 (95%)", TotalProducts: 41230},
			{Keyword: "개껌", SearchVolume: 800, Category: "생활 > 반려동물 > 간식 (90%)", TotalProducts: 7000},
		},
		Listings: []listings.Listing{
			{FinalRank: 1, Title: "국산 강아지 간식 | 수제", AvgRank: 1.5, SourceKeywordCount: 2, Price: 12900, Seller: "멍멍샵"},
		},
		Title:     aitext.Title{Name: "댕댕몰 강아지 덴탈껌 수제간식 300g", Explanation: "핵심 키워드를 연속 배치했습니다."},
		ModelName: "claude-sonnet-4",
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleData())

	for _, want := range []string{
		"# 키워드 분석 리포트",
		"기준 카테고리: 생활 > 반려동물 > 간식",
		"| 강아지간식 | 2000 | 생활 > 반려동물 > 간식 (95%) | 41230 | 80.0 |",
		"## 상위 노출 상품",
		"| 1 | 국산 강아지 간식 \\| 수제 | 1.5 | 2 | 12900 | 멍멍샵 |",
		"## 생성된 상품명",
		"**댕댕몰 강아지 덴탈껌 수제간식 300g**",
		"생성 모델: `claude-sonnet-4`",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildMarkdownOmitsEmptySections(t *testing.T) {
	md := BuildMarkdown(Data{Records: []keyword.Record{{Keyword: "개껌", SearchVolume: 100}}})
	if strings.Contains(md, "## 상위 노출 상품") || strings.Contains(md, "## 생성된 상품명") {
		t.Fatalf("empty sections must be omitted:\n%s", md)
	}
	if !strings.Contains(md, "## 키워드 분석") {
		t.Fatalf("record section missing:\n%s", md)
	}
}

func TestBuildMarkdownCapsListingRows(t *testing.T) {
	d := Data{}
	for i := 1; i <= maxListingRows+5; i++ {
		d.Listings = append(d.Listings, listings.Listing{FinalRank: i, Title: "상품"})
	}
	md := BuildMarkdown(d)
	if !strings.Contains(md, "나머지 5개 상품은 생략되었습니다.") {
		t.Fatalf("overflow note missing:\n%s", md)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(BuildMarkdown(sampleData()))
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{
		"<!doctype html>",
		"<h1", "키워드 분석 리포트",
		"<table>", "<th", "강아지간식",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("html missing %q", want)
		}
	}
}
