// Package listings collects product listings per keyword from the shopping
// provider and merges them across keywords: listings with the same
// comparison-normalized title are one entity, ranked by their average
// position over every keyword they appeared under.
package listings

import (
	"context"
	"log"
	"sort"

	"github.com/minsupark/titleforge/internal/category"
	"github.com/minsupark/titleforge/internal/naver"
	"github.com/minsupark/titleforge/internal/textnorm"
)

// DefaultMaxPerKeyword mirrors the provider page the analysis samples: the
// first 40 relevance-ranked listings.
const DefaultMaxPerKeyword = 40

// ShoppingProvider is the slice of the shopping client the collector needs.
type ShoppingProvider interface {
	Search(ctx context.Context, query string, display int) (naver.SearchResult, error)
}

// Listing is a cleaned, ranked product listing. The aggregation fields
// (AvgRank, SourceKeywords, SourceKeywordCount, FinalRank) stay zero until
// CollectForKeywords merges duplicates.
type Listing struct {
	Rank          int    `json:"rank"`
	Title         string `json:"title"`
	SourceKeyword string `json:"source_keyword"`
	Price         int    `json:"price"`
	Seller        string `json:"seller"`
	CategoryPath  string `json:"category_path"`
	ExternalID    string `json:"external_id"`
	ImageURL      string `json:"image_url,omitempty"`
	Link          string `json:"link,omitempty"`

	AvgRank            float64  `json:"avg_rank"`
	SourceKeywords     []string `json:"source_keywords,omitempty"`
	SourceKeywordCount int      `json:"source_keyword_count"`
	FinalRank          int      `json:"final_rank"`
}

type Collector struct {
	shopping ShoppingProvider
}

func NewCollector(shopping ShoppingProvider) *Collector {
	return &Collector{shopping: shopping}
}

// CollectForKeyword runs one shopping search and returns up to maxResults
// cleaned listings, ranked from 1 in the provider's relevance order.
// Listings whose cleaned title is empty are dropped.
func (c *Collector) CollectForKeyword(ctx context.Context, keyword string, maxResults int) ([]Listing, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxPerKeyword
	}
	res, err := c.shopping.Search(ctx, textnorm.ForWire(keyword), maxResults)
	if err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(res.Items))
	for i, item := range res.Items {
		if i >= maxResults {
			break
		}
		title := textnorm.StripMarkup(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Listing{
			Rank:          i + 1,
			Title:         title,
			SourceKeyword: keyword,
			Price:         textnorm.ExtractPrice(item.LPrice),
			Seller:        item.MallName,
			CategoryPath:  category.JoinLevels(item.CategoryLevels()...),
			ExternalID:    listingID(item),
			ImageURL:      item.Image,
			Link:          item.Link,
		})
	}
	return out, nil
}

// CollectForKeywords gathers listings for every keyword and deduplicates
// them by normalized title. One keyword's failure costs only that keyword's
// listings, never the batch. The result is sorted ascending by average rank
// (ties keep first-occurrence order) with FinalRank assigned 1-based.
func (c *Collector) CollectForKeywords(ctx context.Context, keywords []string, maxPerKeyword int) []Listing {
	var all []Listing
	for _, kw := range keywords {
		got, err := c.CollectForKeyword(ctx, kw, maxPerKeyword)
		if err != nil {
			log.Printf("titleforge listings collect_failed keyword=%q err=%v", kw, err)
			continue
		}
		all = append(all, got...)
	}
	return Aggregate(all)
}

// Aggregate merges duplicate-title listings. Exported separately so the
// merge semantics are testable without a provider.
func Aggregate(all []Listing) []Listing {
	type occurrence struct {
		rankSum  int
		count    int
		keywords []string
		seenKw   map[string]struct{}
	}
	occ := map[string]*occurrence{}
	var unique []Listing

	for _, l := range all {
		key := textnorm.ForComparison(l.Title)
		o := occ[key]
		if o == nil {
			o = &occurrence{seenKw: map[string]struct{}{}}
			occ[key] = o
			unique = append(unique, l)
		}
		o.rankSum += l.Rank
		o.count++
		if _, ok := o.seenKw[l.SourceKeyword]; !ok {
			o.seenKw[l.SourceKeyword] = struct{}{}
			o.keywords = append(o.keywords, l.SourceKeyword)
		}
	}

	for i := range unique {
		o := occ[textnorm.ForComparison(unique[i].Title)]
		unique[i].AvgRank = float64(o.rankSum) / float64(o.count)
		unique[i].SourceKeywords = o.keywords
		unique[i].SourceKeywordCount = len(o.keywords)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].AvgRank < unique[j].AvgRank
	})
	for i := range unique {
		unique[i].FinalRank = i + 1
	}
	return unique
}

func listingID(item naver.ShoppingItem) string {
	if item.ProductID != "" {
		return item.ProductID
	}
	return textnorm.ExtractListingID(item.Link)
}
