package keyword

import (
	"sort"
	"unicode/utf8"
)

// ScoreConfig names the empirically tuned constants behind the keyword
// score. The defaults reproduce the production formula; override a copy of
// DefaultScoreConfig to experiment.
type ScoreConfig struct {
	// VolumeDivisor and VolumeWeight turn raw monthly volume into points:
	// volume/VolumeDivisor × VolumeWeight, capped at VolumeCap.
	VolumeDivisor float64
	VolumeWeight  float64
	VolumeCap     float64
	// LengthBonus maps keyword rune-length to bonus points. Lengths not
	// present get 0.
	LengthBonus map[int]float64
	MaxScore    float64
}

// DefaultScoreConfig is the production tuning: a 2-4 character keyword is
// the sweet spot, and volume alone can contribute at most 70 of 100 points.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		VolumeDivisor: 1000,
		VolumeWeight:  50,
		VolumeCap:     70,
		LengthBonus:   map[int]float64{2: 20, 3: 20, 4: 20, 5: 10, 6: 5},
		MaxScore:      100,
	}
}

// Score rates a record in [0, MaxScore] from its search volume and keyword
// length. Pure: no provider contact, safe from any goroutine.
func (cfg ScoreConfig) Score(rec Record) float64 {
	volume := float64(rec.SearchVolume) / cfg.VolumeDivisor * cfg.VolumeWeight
	if volume > cfg.VolumeCap {
		volume = cfg.VolumeCap
	}
	total := volume + cfg.LengthBonus[utf8.RuneCountInString(rec.Keyword)]
	if total > cfg.MaxScore {
		total = cfg.MaxScore
	}
	return total
}

// Score rates a record with the default tuning.
func Score(rec Record) float64 {
	return DefaultScoreConfig().Score(rec)
}

// FilterByMinVolume keeps records at or above the volume threshold, sorted
// descending by volume. The input is not modified.
func FilterByMinVolume(records []Record, threshold int) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.SearchVolume >= threshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SearchVolume > out[j].SearchVolume
	})
	return out
}
