// Package report turns an analysis session into a markdown report, and
// renders it to HTML or PDF.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/minsupark/titleforge/internal/aitext"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/listings"
)

// Data is everything a report can show. Zero-value sections are omitted.
type Data struct {
	GeneratedAt    time.Time
	RawInput       string
	TargetCategory string
	Records        []keyword.Record
	Listings       []listings.Listing
	Title          aitext.Title
	ModelName      string
}

// maxListingRows caps the listing table so the report stays printable.
const maxListingRows = 50

func BuildMarkdown(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 키워드 분석 리포트\n\n")
	at := d.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(&b, "- 생성 시각: %s\n", at.Format(time.RFC3339))
	if d.TargetCategory != "" {
		fmt.Fprintf(&b, "- 기준 카테고리: %s\n", sanitize(d.TargetCategory))
	}
	fmt.Fprintf(&b, "- 키워드 수: %d\n", len(d.Records))
	fmt.Fprintf(&b, "- 수집 상품 수: %d\n\n", len(d.Listings))

	if len(d.Records) > 0 {
		fmt.Fprintf(&b, "## 키워드 분석\n\n")
		fmt.Fprintf(&b, "| 키워드 | 월검색량 | 카테고리 | 전체상품수 | 점수 |\n")
		fmt.Fprintf(&b, "|--------|---------:|----------|-----------:|-----:|\n")
		for _, r := range d.Records {
			fmt.Fprintf(&b, "| %s | %d | %s | %d | %.1f |\n",
				sanitizeCell(r.Keyword), r.SearchVolume, sanitizeCell(r.Category),
				r.TotalProducts, keyword.Score(r))
		}
		fmt.Fprintf(&b, "\n")
	}

	if len(d.Listings) > 0 {
		fmt.Fprintf(&b, "## 상위 노출 상품\n\n")
		fmt.Fprintf(&b, "검색 키워드별 상위 노출 상품을 제목 기준으로 합치고, 평균 노출 순위로 다시 정렬한 목록입니다.\n\n")
		fmt.Fprintf(&b, "| 순위 | 상품명 | 평균순위 | 키워드수 | 가격 | 판매처 |\n")
		fmt.Fprintf(&b, "|-----:|--------|---------:|---------:|-----:|--------|\n")
		rows := d.Listings
		if len(rows) > maxListingRows {
			rows = rows[:maxListingRows]
		}
		for _, l := range rows {
			fmt.Fprintf(&b, "| %d | %s | %.1f | %d | %d | %s |\n",
				l.FinalRank, sanitizeCell(l.Title), l.AvgRank,
				l.SourceKeywordCount, l.Price, sanitizeCell(l.Seller))
		}
		if len(d.Listings) > maxListingRows {
			fmt.Fprintf(&b, "\n나머지 %d개 상품은 생략되었습니다.\n", len(d.Listings)-maxListingRows)
		}
		fmt.Fprintf(&b, "\n")
	}

	if d.Title.Name != "" {
		fmt.Fprintf(&b, "## 생성된 상품명\n\n")
		fmt.Fprintf(&b, "**%s**\n\n", sanitize(d.Title.Name))
		if d.Title.Explanation != "" {
			fmt.Fprintf(&b, "%s\n\n", d.Title.Explanation)
		}
		if d.ModelName != "" {
			fmt.Fprintf(&b, "- 생성 모델: `%s`\n\n", sanitize(d.ModelName))
		}
	}
	return b.String()
}

// RenderHTML converts report markdown to a standalone HTML document.
func RenderHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>키워드 분석 리포트</title>" +
		"<style>" + reportCSS + "</style></head><body>" +
		"<div class='report-wrap'><div class='report-html'>" + content.String() + "</div></div>" +
		"</body></html>", nil
}

const reportCSS = `
html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;}
body{background:#fff;padding:0.6rem;font-family:'Apple SD Gothic Neo','Malgun Gothic',sans-serif;color:#1c1917;}
.report-wrap{max-width:1000px;margin:0 auto;}
.report-html h1{font-size:1.5rem;border-bottom:2px solid #a8a29e;padding-bottom:0.3rem;}
.report-html h2{font-size:1.15rem;margin-top:1.4rem;}
.report-html table{width:100% !important;border-collapse:collapse !important;border:1px solid #a8a29e !important;font-size:0.8rem !important;}
.report-html th,.report-html td{border:1px solid #a8a29e !important;padding:0.35rem 0.45rem !important;text-align:left !important;vertical-align:top !important;}
.report-html thead th{background:#f1f5f9 !important;font-weight:700 !important;}
@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report-wrap{max-width:none;} }
`

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func sanitizeCell(s string) string {
	return strings.ReplaceAll(sanitize(s), "|", "\\|")
}
