package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minsupark/titleforge/internal/aitext"
	"github.com/minsupark/titleforge/internal/keyword"
	"github.com/minsupark/titleforge/internal/naver"
	"github.com/minsupark/titleforge/internal/report"
)

// startSearchAdServer serves the keyword tool endpoint with fixed volumes.
func startSearchAdServer(t *testing.T, volumes map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/keywordstool" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Signature") == "" || r.Header.Get("X-Timestamp") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		hint := r.URL.Query().Get("hintKeywords")
		type idea struct {
			RelKeyword         string `json:"relKeyword"`
			MonthlyPcQcCnt     any    `json:"monthlyPcQcCnt"`
			MonthlyMobileQcCnt any    `json:"monthlyMobileQcCnt"`
		}
		resp := map[string]any{"keywordList": []idea{
			{RelKeyword: hint, MonthlyPcQcCnt: volumes[hint] / 2, MonthlyMobileQcCnt: volumes[hint] - volumes[hint]/2},
			{RelKeyword: hint + "추천", MonthlyPcQcCnt: 99999, MonthlyMobileQcCnt: "< 10"},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type shopFixture struct {
	total int
	items []map[string]string
}

func startShoppingServer(t *testing.T, fixtures map[string]shopFixture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search/shop.json" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Naver-Client-Id") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fx := fixtures[r.URL.Query().Get("query")]
		json.NewEncoder(w).Encode(map[string]any{
			"total": fx.total,
			"start": 1,
			"items": fx.items,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type scriptedCaller struct {
	bySystem map[string]string
}

func (s *scriptedCaller) Generate(_ context.Context, system, _ string) (string, error) {
	return s.bySystem[system], nil
}

func (s *scriptedCaller) ModelName() string { return "scripted" }

func TestPipelineEndToEnd(t *testing.T) {
	petItems := []map[string]string{
		{"title": "국산 <b>강아지</b> 수제 간식", "productId": "101", "lprice": "12900", "mallName": "멍멍샵",
			"category1": "생활", "category2": "반려동물", "category3": "간식"},
		{"title": "강아지 덴탈껌 대용량", "productId": "102", "lprice": "9900", "mallName": "댕댕상회",
			"category1": "생활", "category2": "반려동물", "category3": "간식"},
		{"title": "고양이 츄르", "productId": "103", "lprice": "4900", "mallName": "냥이네",
			"category1": "생활", "category2": "반려동물", "category3": "고양이간식"},
	}
	gumItems := []map[string]string{
		{"title": "국산 강아지 수제 간식", "productId": "101", "lprice": "12900", "mallName": "멍멍샵",
			"category1": "생활", "category2": "반려동물", "category3": "간식"},
		{"title": "오래먹는 우족 개껌", "productId": "201", "lprice": "15900", "mallName": "멍멍샵",
			"category1": "생활", "category2": "반려동물", "category3": "간식"},
	}

	searchAd := startSearchAdServer(t, map[string]int{"강아지간식": 2000, "개껌": 800})
	shopping := startShoppingServer(t, map[string]shopFixture{
		"강아지간식": {total: 41230, items: petItems},
		"개껌":    {total: 7000, items: gumItems},
	})

	volumeClient, err := naver.NewSearchAdClient(naver.SearchAdConfig{
		AccessLicense: "lic", SecretKey: "sec", CustomerID: "123",
		BaseURL: searchAd.URL, RateLimitPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("NewSearchAdClient: %v", err)
	}
	defer volumeClient.Close()
	shoppingClient, err := naver.NewShoppingClient(naver.ShoppingConfig{
		ClientID: "id", ClientSecret: "secret",
		BaseURL: shopping.URL, RateLimitPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("NewShoppingClient: %v", err)
	}
	defer shoppingClient.Close()

	ctx := context.Background()
	svc := keyword.NewService(volumeClient, shoppingClient)

	// Analyze: the duplicate spelling collapses into the first form.
	records, err := svc.Analyze(ctx, "강아지간식, 개껌\n강아지 간식", keyword.BatchOptions{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 deduped keywords, got %+v", records)
	}
	if records[0].Keyword != "강아지간식" || records[0].SearchVolume != 2000 {
		t.Fatalf("first record: %+v", records[0])
	}

	records = svc.EnrichCategoryAndCount(ctx, records, keyword.BatchOptions{})
	if records[0].TotalProducts != 41230 {
		t.Fatalf("total products not refreshed: %+v", records[0])
	}
	if !strings.HasPrefix(records[0].Category, "생활 > 반려동물 > 간식") {
		t.Fatalf("category: %q", records[0].Category)
	}

	refined := svc.RefineByCategory(records, "생활 > 반려동물")
	if len(refined) != 2 {
		t.Fatalf("refine dropped matching records: %+v", refined)
	}

	collected := svc.CollectListings(ctx, []string{"강아지간식", "개껌"}, 10)
	if len(collected) != 4 {
		t.Fatalf("expected 4 merged listings, got %d", len(collected))
	}
	if collected[0].Title != "국산 강아지 수제 간식" || collected[0].SourceKeywordCount != 2 {
		t.Fatalf("merged listing: %+v", collected[0])
	}

	// AI stages run against a scripted model.
	caller := &scriptedCaller{bySystem: map[string]string{
		aitext.KeywordExpansionSystem: "수제간식, 덴탈껌, 오래먹는+개껌",
		aitext.TitleGenerationSystem:  "완성된 상품명: 멍멍샵 강아지 수제간식 덴탈껌 300g\n\n설명: 핵심 블록을 연속 배치.",
	}}

	titles := make([]string, 0, len(collected))
	for _, l := range collected {
		titles = append(titles, l.Title)
	}
	resp, err := aitext.GenerateWithRetry(ctx, caller, aitext.KeywordExpansionSystem, aitext.BuildKeywordPrompt(titles, ""))
	if err != nil {
		t.Fatalf("keyword expansion: %v", err)
	}
	expanded, err := aitext.ParseKeywords(resp)
	if err != nil {
		t.Fatalf("ParseKeywords: %v", err)
	}
	if len(expanded) != 3 || expanded[2] != "오래먹는개껌" {
		t.Fatalf("expanded keywords: %v", expanded)
	}

	inputs := aitext.TitleInputs{
		Core:        aitext.KeywordStat{Keyword: "강아지간식", SearchVolume: 2000, TotalProducts: 41230},
		Brand:       "멍멍샵",
		LengthStats: aitext.TitleLengthStats(titles),
	}
	for _, r := range refined {
		inputs.Selected = append(inputs.Selected, aitext.KeywordStat{
			Keyword: r.Keyword, SearchVolume: r.SearchVolume, TotalProducts: r.TotalProducts,
		})
	}
	resp, err = aitext.GenerateWithRetry(ctx, caller, aitext.TitleGenerationSystem, aitext.BuildTitlePrompt(inputs))
	if err != nil {
		t.Fatalf("title generation: %v", err)
	}
	title, err := aitext.ParseGeneratedTitle(resp)
	if err != nil {
		t.Fatalf("ParseGeneratedTitle: %v", err)
	}
	if title.Name != "멍멍샵 강아지 수제간식 덴탈껌 300g" {
		t.Fatalf("title: %+v", title)
	}

	md := report.BuildMarkdown(report.Data{
		TargetCategory: "생활 > 반려동물",
		Records:        refined,
		Listings:       collected,
		Title:          title,
		ModelName:      caller.ModelName(),
	})
	for _, want := range []string{"강아지간식", "국산 강아지 수제 간식", "멍멍샵 강아지 수제간식 덴탈껌 300g"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q", want)
		}
	}
	if _, err := report.RenderHTML(md); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
}
