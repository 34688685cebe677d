// Package keyword composes the text normalizer, the parallel orchestrator,
// and the two external providers into the keyword analysis pipeline:
// enrichment, scoring, filtering, and category refinement.
package keyword

import "github.com/minsupark/titleforge/internal/listings"

// Failure sentinels shown in the category column when a provider call
// failed. They survive in the display layer only; matching logic never
// treats them as paths.
const (
	CategoryLookupFailed   = "조회 실패"
	CategoryAnalysisFailed = "분석 실패"
)

// Record is one analyzed keyword. SearchVolume and TotalProducts are
// fetched independently and may be filled in separate passes; Category
// stays "" (or a failure sentinel) until enriched. Selected belongs to the
// consuming workflow and is never written by the pipeline.
type Record struct {
	Keyword       string `json:"keyword"`
	SearchVolume  int    `json:"search_volume"`
	Category      string `json:"category"`
	TotalProducts int    `json:"total_products"`
	Selected      bool   `json:"selected,omitempty"`
}

// Session is the value the surrounding workflow threads through the
// pipeline stages. It is plain data: the pipeline fills fields and hands it
// back, nothing here persists beyond the run.
type Session struct {
	RawInput       string             `json:"raw_input"`
	Records        []Record           `json:"records"`
	TargetCategory string             `json:"target_category,omitempty"`
	Listings       []listings.Listing `json:"listings,omitempty"`
}
