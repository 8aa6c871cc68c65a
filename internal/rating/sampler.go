package rating

import (
	"math"
	"math/rand"
	"sort"

	"github.com/example/derbot/pkg/models"
)

// Weighting selects how ratings translate into draw weights.
type Weighting int

const (
	// Linear uses w = clamp(5 - r, 0.1, 5).
	Linear Weighting = iota
	// Exponential uses w = exp(3 * (5 - r) / 5); used for article drills.
	Exponential
)

const (
	// TieredThreshold is the pool size from which tiered sampling is used.
	TieredThreshold = 30
	// DrawSize is the number of words drawn per sample.
	DrawSize = 10
)

// Weight returns the draw weight of a word with rating r.
func Weight(r float64, w Weighting) float64 {
	if w == Exponential {
		return math.Exp(3 * (Max - Clamp(r)) / Max)
	}
	return math.Max(0.1, math.Min(Max, Max-r))
}

// Sampler draws words from a candidate pool.
type Sampler struct {
	rnd *rand.Rand
}

func NewSampler(rnd *rand.Rand) *Sampler {
	return &Sampler{rnd: rnd}
}

// Draw selects up to k entries without replacement. Pools of at least
// TieredThreshold entries are split into rating tiers (lowest 50%, middle
// 30%, top 20%) drawn in a 6:3:1 proportion; smaller pools are drawn with
// rating weights.
func (s *Sampler) Draw(pool []models.Entry, k int, w Weighting) []models.Entry {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}
	if len(pool) >= TieredThreshold {
		return s.tiered(pool, k)
	}
	return s.weighted(pool, k, w)
}

// One draws a single entry, or false when the pool is empty. Small pools
// are sampled by weight; large pools draw a tiered batch and pick from it.
func (s *Sampler) One(pool []models.Entry, w Weighting) (models.Entry, bool) {
	if len(pool) == 0 {
		return models.Entry{}, false
	}
	if len(pool) < TieredThreshold {
		return s.weighted(pool, 1, w)[0], true
	}
	drawn := s.tiered(pool, DrawSize)
	return drawn[s.rnd.Intn(len(drawn))], true
}

func (s *Sampler) weighted(pool []models.Entry, k int, w Weighting) []models.Entry {
	rest := append([]models.Entry(nil), pool...)
	weights := make([]float64, len(rest))
	for i, e := range rest {
		weights[i] = Weight(e.Rating, w)
	}

	out := make([]models.Entry, 0, k)
	for len(out) < k && len(rest) > 0 {
		var total float64
		for _, wt := range weights {
			total += wt
		}
		x := s.rnd.Float64() * total
		i := 0
		for ; i < len(weights)-1; i++ {
			x -= weights[i]
			if x < 0 {
				break
			}
		}
		out = append(out, rest[i])
		rest = append(rest[:i], rest[i+1:]...)
		weights = append(weights[:i], weights[i+1:]...)
	}
	return out
}

func (s *Sampler) tiered(pool []models.Entry, k int) []models.Entry {
	sorted := append([]models.Entry(nil), pool...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating < sorted[j].Rating })

	n := len(sorted)
	lowEnd := n * 5 / 10
	midEnd := lowEnd + n*3/10
	tiers := [][]models.Entry{
		append([]models.Entry(nil), sorted[:lowEnd]...),
		append([]models.Entry(nil), sorted[lowEnd:midEnd]...),
		append([]models.Entry(nil), sorted[midEnd:]...),
	}

	low := int(math.Round(float64(k) * 0.6))
	mid := int(math.Round(float64(k) * 0.3))
	if low+mid > k {
		mid = k - low
	}
	quota := []int{low, mid, k - low - mid}

	out := make([]models.Entry, 0, k)
	for i, tier := range tiers {
		s.rnd.Shuffle(len(tier), func(a, b int) { tier[a], tier[b] = tier[b], tier[a] })
		take := min(quota[i], len(tier))
		out = append(out, tier[:take]...)
		tiers[i] = tier[take:]
	}
	// Short tiers are topped up from whatever remains, weakest tier first.
	for _, tier := range tiers {
		for _, e := range tier {
			if len(out) == k {
				return out
			}
			out = append(out, e)
		}
	}
	return out
}

// WithoutMastered drops entries whose rating reached MasteredThreshold.
func WithoutMastered(pool []models.Entry) []models.Entry {
	return Filter(pool, func(e models.Entry) bool { return !IsMastered(e.Rating) })
}

// Excluding drops the entry with the given word id unless that would leave
// the pool empty.
func Excluding(pool []models.Entry, wordID int64) []models.Entry {
	if wordID == 0 {
		return pool
	}
	out := Filter(pool, func(e models.Entry) bool { return e.WordID != wordID })
	if len(out) == 0 {
		return pool
	}
	return out
}

// Filter returns the entries for which keep returns true.
func Filter(pool []models.Entry, keep func(models.Entry) bool) []models.Entry {
	out := make([]models.Entry, 0, len(pool))
	for _, e := range pool {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
