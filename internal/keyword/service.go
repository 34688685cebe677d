package keyword

import (
	"context"
	"errors"
	"log"
	"sort"

	"github.com/minsupark/titleforge/internal/category"
	"github.com/minsupark/titleforge/internal/listings"
	"github.com/minsupark/titleforge/internal/naver"
	"github.com/minsupark/titleforge/internal/parallel"
	"github.com/minsupark/titleforge/internal/textnorm"
)

// ErrNoKeywords is returned when the raw input yields nothing to analyze.
var ErrNoKeywords = errors.New("no keywords to analyze")

// categorySampleSize is how many top listings vote on a keyword's category.
const categorySampleSize = 20

// VolumeProvider supplies monthly search volume for a wire-normalized
// keyword.
type VolumeProvider interface {
	MonthlySearchVolume(ctx context.Context, wireKeyword string) (int, error)
}

// ShoppingProvider supplies ranked listings plus the aggregate match count.
type ShoppingProvider interface {
	Search(ctx context.Context, query string, display int) (naver.SearchResult, error)
}

// BatchOptions tunes the parallel enrichment passes.
type BatchOptions struct {
	MaxConcurrency int
	CancelCheck    func() bool
	OnProgress     parallel.ProgressFn
}

// Service wires the providers into the enrichment and collection
// operations. It holds no mutable state; every call is value-in, value-out.
type Service struct {
	volume   VolumeProvider
	shopping ShoppingProvider
}

func NewService(volume VolumeProvider, shopping ShoppingProvider) *Service {
	return &Service{volume: volume, shopping: shopping}
}

// Analyze runs the first pipeline stage: split and dedupe the raw text,
// enrich every keyword with volume and category, then drop zero-volume
// keywords — unless every keyword came back zero, in which case the full
// set is returned so the caller can still present something selectable.
func (s *Service) Analyze(ctx context.Context, rawText string, opts BatchOptions) ([]Record, error) {
	kws := textnorm.SplitKeywords(rawText)
	if len(kws) == 0 {
		return nil, ErrNoKeywords
	}
	records := s.EnrichVolumeAndCategory(ctx, kws, opts)

	withVolume := make([]Record, 0, len(records))
	for _, r := range records {
		if r.SearchVolume > 0 {
			withVolume = append(withVolume, r)
		}
	}
	if len(withVolume) == 0 {
		return records, nil
	}
	return withVolume, nil
}

// EnrichVolumeAndCategory is the initial pass: volume plus a sampled
// category per keyword, with TotalProducts deliberately left 0 (the full
// product count is deferred to the second pass over the keywords the user
// actually keeps). A failed item degrades to volume 0 and the
// analysis-failed sentinel; the batch never errors.
func (s *Service) EnrichVolumeAndCategory(ctx context.Context, keywords []string, opts BatchOptions) []Record {
	outcomes := parallel.Run(ctx, keywords, func(ctx context.Context, kw string) (Record, error) {
		volume, err := s.volume.MonthlySearchVolume(ctx, textnorm.ForWire(kw))
		if err != nil {
			return Record{}, err
		}
		cat, _, err := s.lookupCategory(ctx, kw)
		if err != nil {
			cat = CategoryLookupFailed
		}
		return Record{Keyword: kw, SearchVolume: volume, Category: cat}, nil
	}, runOptions(opts))

	records := make([]Record, 0, len(keywords))
	for _, o := range outcomes {
		if o.Err != nil {
			log.Printf("titleforge keyword enrich_failed keyword=%q err=%v", o.Item, o.Err)
			records = append(records, Record{Keyword: o.Item, Category: CategoryAnalysisFailed})
			continue
		}
		records = append(records, o.Res)
	}
	// A cancelled run covers a prefix of the input; the missing tail
	// still gets degraded records so callers always receive one record
	// per keyword, in order.
	for i := len(records); i < len(keywords); i++ {
		records = append(records, Record{Keyword: keywords[i], Category: CategoryAnalysisFailed})
	}
	return records
}

// EnrichCategoryAndCount is the second pass over already volume-enriched
// records: it refreshes the category and fills the real total product
// count. Volume is carried through untouched either way.
func (s *Service) EnrichCategoryAndCount(ctx context.Context, records []Record, opts BatchOptions) []Record {
	o := runOptions(opts)
	o.Label = func(item any) string {
		if r, ok := item.(Record); ok {
			return r.Keyword
		}
		return ""
	}
	outcomes := parallel.Run(ctx, records, func(ctx context.Context, rec Record) (Record, error) {
		cat, total, err := s.lookupCategory(ctx, rec.Keyword)
		if err != nil {
			return Record{}, err
		}
		rec.Category = cat
		rec.TotalProducts = total
		return rec, nil
	}, o)

	out := make([]Record, 0, len(records))
	for _, oc := range outcomes {
		if oc.Err != nil {
			log.Printf("titleforge keyword category_refresh_failed keyword=%q err=%v", oc.Item.Keyword, oc.Err)
			degraded := oc.Item
			degraded.Category = CategoryLookupFailed
			degraded.TotalProducts = 0
			out = append(out, degraded)
			continue
		}
		out = append(out, oc.Res)
	}
	for i := len(out); i < len(records); i++ {
		degraded := records[i]
		degraded.Category = CategoryLookupFailed
		out = append(out, degraded)
	}
	return out
}

// RefineByCategory keeps records whose category path agrees with the
// user-selected target, sorted descending by volume. An empty target is a
// no-op.
func (s *Service) RefineByCategory(records []Record, target string) []Record {
	return FilterByCategory(records, target)
}

// FilterByCategory is the pure half of RefineByCategory, usable without a
// Service.
func FilterByCategory(records []Record, target string) []Record {
	if target == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if category.PathsMatch(target, r.Category) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SearchVolume > out[j].SearchVolume
	})
	return out
}

// CollectListings gathers and merges listings for the selected keywords.
func (s *Service) CollectListings(ctx context.Context, keywords []string, maxPerKeyword int) []listings.Listing {
	return listings.NewCollector(s.shopping).CollectForKeywords(ctx, keywords, maxPerKeyword)
}

// lookupCategory samples the top listings for a keyword and majority-votes
// their category paths. Returns the display-form category (with confidence
// percentage) and the aggregate product count for the query.
func (s *Service) lookupCategory(ctx context.Context, kw string) (string, int, error) {
	res, err := s.shopping.Search(ctx, textnorm.ForWire(kw), categorySampleSize)
	if err != nil {
		return "", 0, err
	}
	paths := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		paths = append(paths, category.JoinAll(item.CategoryLevels()...))
	}
	inf := category.InferDominant(paths)
	return inf.String(), res.Total, nil
}

func runOptions(opts BatchOptions) parallel.Options {
	return parallel.Options{
		MaxConcurrency: opts.MaxConcurrency,
		CancelCheck:    opts.CancelCheck,
		OnProgress:     opts.OnProgress,
	}
}
