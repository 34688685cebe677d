package aitext

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCaller struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeCaller) Generate(_ context.Context, _, _ string) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	resp := ""
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeCaller) ModelName() string { return "fake" }

func TestGenerateWithRetrySuccessFirstTry(t *testing.T) {
	c := &fakeCaller{responses: []string{"개껌, 덴탈껌"}}
	got, err := GenerateWithRetry(context.Background(), c, "sys", "prompt")
	if err != nil || got != "개껌, 덴탈껌" {
		t.Fatalf("got %q, %v", got, err)
	}
	if c.calls != 1 {
		t.Fatalf("calls = %d", c.calls)
	}
}

func TestGenerateWithRetryClientErrorNoRetry(t *testing.T) {
	c := &fakeCaller{errs: []error{errors.New("status code: 401 unauthorized")}}
	if _, err := GenerateWithRetry(context.Background(), c, "sys", "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if c.calls != 1 {
		t.Fatalf("client error must not retry, calls = %d", c.calls)
	}
}

func TestParseKeywords(t *testing.T) {
	resp := `# 분석 결과
- 설명 줄은 무시됩니다
강아지간식, 개껌, 강아지+오래먹는+개껌, 껌
덴탈껌
개껌, DENTAL GUM, dental gum`
	got, err := ParseKeywords(resp)
	if err != nil {
		t.Fatalf("ParseKeywords: %v", err)
	}
	want := []string{"강아지간식", "개껌", "강아지오래먹는개껌", "덴탈껌", "DENTAL GUM"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseKeywordsNothingExtractable(t *testing.T) {
	cases := []string{"", "# 머리말만\n- 목록만", "ㄱ, ㄴ"}
	for _, resp := range cases {
		if _, err := ParseKeywords(resp); !errors.Is(err, ErrNoExtractableContent) {
			t.Fatalf("ParseKeywords(%q): expected ErrNoExtractableContent, got %v", resp, err)
		}
	}
}

func TestParseGeneratedTitle(t *testing.T) {
	resp := `완성된 상품명: 댕댕몰 강아지 덴탈껌 수제간식 소고기 300g

설명: 핵심 키워드를 앞쪽에 연속 배치했습니다.`
	title, err := ParseGeneratedTitle(resp)
	if err != nil {
		t.Fatalf("ParseGeneratedTitle: %v", err)
	}
	if title.Name != "댕댕몰 강아지 덴탈껌 수제간식 소고기 300g" {
		t.Fatalf("name = %q", title.Name)
	}
	if !strings.Contains(title.Explanation, "연속 배치") {
		t.Fatalf("explanation = %q", title.Explanation)
	}
}

func TestParseGeneratedTitleNumberedAndBracketed(t *testing.T) {
	title, err := ParseGeneratedTitle("1. 완성된 상품명: [강아지 수제 간식 세트]")
	if err != nil {
		t.Fatalf("ParseGeneratedTitle: %v", err)
	}
	if title.Name != "강아지 수제 간식 세트" {
		t.Fatalf("name = %q", title.Name)
	}
}

func TestParseGeneratedTitleMissing(t *testing.T) {
	if _, err := ParseGeneratedTitle("설명만 있고 제목이 없습니다."); !errors.Is(err, ErrNoTitle) {
		t.Fatalf("expected ErrNoTitle, got %v", err)
	}
}

func TestBuildKeywordPrompt(t *testing.T) {
	p := BuildKeywordPrompt([]string{"국산 강아지 간식", "수제 덴탈껌"}, "")
	if !strings.Contains(p, DefaultKeywordRules) {
		t.Fatal("default rules missing")
	}
	if !strings.Contains(p, "- 국산 강아지 간식\n- 수제 덴탈껌\n") {
		t.Fatalf("titles missing: %q", p)
	}
	custom := BuildKeywordPrompt([]string{"상품"}, "[나만의 규칙]")
	if !strings.Contains(custom, "[나만의 규칙]") || strings.Contains(custom, DefaultKeywordRules) {
		t.Fatal("custom rules not honored")
	}
}

func TestBuildTitlePrompt(t *testing.T) {
	p := BuildTitlePrompt(TitleInputs{
		Selected: []KeywordStat{
			{Keyword: "강아지간식", SearchVolume: 2000, TotalProducts: 41230},
			{Keyword: "개껌", SearchVolume: 800, TotalProducts: 7000},
		},
		Core:        KeywordStat{Keyword: "강아지간식", SearchVolume: 2000, TotalProducts: 41230},
		Brand:       "댕댕몰",
		LengthStats: "평균 32자, 최소 21자, 최대 45자",
	})
	if !strings.Contains(p, "1. 강아지간식 (월검색량: 2,000, 전체상품수: 41,230)") {
		t.Fatalf("keyword list malformed:\n%s", p)
	}
	if !strings.Contains(p, "브랜드명: 댕댕몰") {
		t.Fatal("brand missing")
	}
	if !strings.Contains(p, "재료(형태): 지정되지 않음 (생략)") {
		t.Fatal("omitted material marker missing")
	}
	if !strings.Contains(p, "평균 32자") {
		t.Fatal("length stats missing")
	}
}

func TestTitleLengthStats(t *testing.T) {
	got := TitleLengthStats([]string{"강아지 간식", "개껌"})
	if got != "평균 4자, 최소 2자, 최대 6자" {
		t.Fatalf("stats = %q", got)
	}
	if TitleLengthStats(nil) != "" {
		t.Fatal("empty input must produce empty stats")
	}
}
