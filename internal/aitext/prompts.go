package aitext

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KeywordStat carries the numbers a keyword brings into a prompt.
type KeywordStat struct {
	Keyword       string
	SearchVolume  int
	TotalProducts int
}

// KeywordExpansionSystem instructs the model to emit nothing but a flat
// comma-separated keyword list, so ParseKeywords has a fighting chance.
const KeywordExpansionSystem = `당신은 네이버 쇼핑 상품명 분석 전문가입니다.
아래 상품명을 분석해, 사람들이 실제 검색할 가능성이 높은 키워드를 대량 생성하세요.
결과는 네이버 월간 검색량 API 비교용이며, 모든 카테고리에 공용으로 사용 가능해야 합니다.

필수 출력 형식 (사용자 규칙과 상관없이 반드시 준수)
- 키워드만 쉼표(,)로 구분하여 한 줄에 출력
- 설명/머리말/코드블록 금지
- 각 키워드는 2~15자, 최대 3어절, 바이그램/트라이그램은 앵커 포함 필수
- single + bigram + trigram 합산 300개 이상의 키워드 생성
- 조건 미달 시 개수 확보 위해 규칙 완화 가능`

// DefaultKeywordRules is the user-visible rule block appended when the
// caller supplies no custom rules.
const DefaultKeywordRules = `[규칙]
1. 브랜드명 제거 - 상품명 선두 1~3어절은 브랜드일 확률이 높으므로 우선 제거. 단, 선두 토큰이 일반 제품명/형태/재료/특징 핵심 집합이면 제거하지 않음.
2. 단위·용량·수치 제거 - g, kg, ml, 개, 개입, 박스, 세트, %, 소형, 중형, 대형 등 제외.
3. 광고성·과장어 제거 - 인기, 특가, 신상, 할인, 무료배송, 가성비, 추천 등 주관적 수식어 제외.
4. 인증/기관어 제거 - HACCP, 국내산, 국내생산, 오리지널 등.
5. 카테고리 앵커(제품 핵심명사) 추출 - 제품을 직접 가리키는 일반명/형태/타입 명사를 추출하고 상위 앵커 토큰 집합을 만든다.
6. 대상 일반어(강아지/여성/유아 등)는 단독 키워드 금지, 앵커와 결합된 조합만 제한적으로 허용.
7. 싱글은 앵커 그 자체만, 바이그램/트라이그램은 서로 다른 축의 조합 + 앵커 포함 필수, 자연스러운 한국어 어순. 4어절 이상 조합 금지.`

// TitleGenerationSystem pins the response shape: the finished title on the
// first line behind a fixed prefix, explanation after.
const TitleGenerationSystem = `당신의 임무는 완성된 상품명 1개를 만드는 것입니다.
첫 번째 줄에 반드시 이렇게 써주세요:
완성된 상품명: [여기에 실제 상품명을 써주세요]

그 다음에 설명을 해주세요. 절대 설명만 하지 마세요.`

const titlePromptTemplate = `[사용자 입력 정보]
당신은 네이버 스마트스토어 상품명 SEO 최적화 전문가입니다. 아래 입력을 바탕으로 동일 토큰 3회 이상 반복 금지(복합어 접두 포함)를 지키고, 핵심 구문을 인접(연속) 배치하며, 카테고리 평균 글자수(± 한 단어)를 맞추는 상품명을 생성하세요. 모든 단어는 입력 리스트 내부 단어만 사용하고, 외부 단어·자체 동의어 생성은 금지합니다.

# 사용자 입력 정보(그대로 분석)
1. 사용할 키워드 리스트 (키워드명, 월검색량, 전체상품수):%s
2. 핵심 키워드 - 사용할 키워드 리스트에서 사용자가 선택한 키워드
(키워드명, 월검색량, 전체상품수): %s
3. 선택 입력 키워드:
   - 브랜드명: %s  ← 제목 맨 앞에 반드시 포함(미입력 시 생략)
   - 재료(형태): %s  ← 반드시 포함, 제목 맨 끝쪽 배치(미입력 시 생략)
   - 수량(무게): %s  ← 반드시 포함, 제목 맨 끝쪽 배치(미입력 시 생략)
4. 상위 상품명 길이 통계 (공백 포함): %s
   - 생성 목표: 평균 글자수 ± 한 단어(≈2~3자) 내에서 조정.

# 생성 규칙
- 동일 토큰 3회 이상 금지(복합어 접두 포함해 카운트).
- 핵심 구문은 붙여서 연속 배치. 핵심 블록은 제목 초반, 보조/헤드 블록은 핵심 뒤에 배치.
- 길이 초과 시 붙여쓰기로 압축, 그래도 길면 가치 낮은 보조부터 제거.
- 배치 우선순위: 브랜드(맨 앞) → 핵심키워드 블록(연속·초반) → 보조 타깃 블록 → 재료(형태) → 수량(무게)(맨 끝).`

// TitleInputs collects everything the title-generation prompt interpolates.
type TitleInputs struct {
	Selected    []KeywordStat
	Core        KeywordStat
	Brand       string
	Material    string
	Quantity    string
	LengthStats string
}

// BuildKeywordPrompt assembles the keyword-expansion user prompt from
// collected product titles. Empty rules fall back to DefaultKeywordRules.
func BuildKeywordPrompt(productTitles []string, customRules string) string {
	rules := customRules
	if strings.TrimSpace(rules) == "" {
		rules = DefaultKeywordRules
	}
	var sb strings.Builder
	sb.WriteString(rules)
	sb.WriteString("\n\n상품명 목록:\n")
	for _, t := range productTitles {
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildTitlePrompt assembles the title-generation user prompt.
func BuildTitlePrompt(in TitleInputs) string {
	var kws strings.Builder
	for i, k := range in.Selected {
		fmt.Fprintf(&kws, "\n   %d. %s", i+1, k.describe())
	}
	return fmt.Sprintf(titlePromptTemplate,
		kws.String(),
		in.Core.describe(),
		orOmitted(in.Brand),
		orOmitted(in.Material),
		orOmitted(in.Quantity),
		orDefault(in.LengthStats, "통계 정보 없음"),
	)
}

func (k KeywordStat) describe() string {
	return fmt.Sprintf("%s (월검색량: %s, 전체상품수: %s)",
		k.Keyword, formatInt(k.SearchVolume), formatInt(k.TotalProducts))
}

func orOmitted(v string) string {
	if strings.TrimSpace(v) == "" {
		return "지정되지 않음 (생략)"
	}
	return v
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// TitleLengthStats summarizes title lengths (runes, spaces included) the
// way the prompt expects: "평균 N자, 최소 N자, 최대 N자".
func TitleLengthStats(titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	minL, maxL, sum := -1, 0, 0
	for _, t := range titles {
		n := utf8.RuneCountInString(t)
		if minL < 0 || n < minL {
			minL = n
		}
		if n > maxL {
			maxL = n
		}
		sum += n
	}
	avg := float64(sum) / float64(len(titles))
	return fmt.Sprintf("평균 %.0f자, 최소 %d자, 최대 %d자", avg, minL, maxL)
}

// formatInt renders an integer with thousands separators, matching the
// number format the prompt tells the model to expect.
func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}
