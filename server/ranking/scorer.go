// Package ranking holds the feed scoring function and the feed orchestration.
// The scorer is pure: every tunable lives in Config so tests can exercise
// alternate weights deterministically.
package ranking

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/citypulse/pulse/store"
)

// scoreEpsilon is the tolerance under which two blended scores count as
// equal; ties break by recency.
const scoreEpsilon = 1e-9

// Config carries every ranking tunable. Values are named once here and
// referenced everywhere else.
type Config struct {
	// Alpha weights normalized similarity against time decay in the blend.
	Alpha float64
	// HalfLife is the e-folding time of the recency decay.
	HalfLife time.Duration
	// TTL is the item lifetime. The lookback window never exceeds it.
	TTL time.Duration
	// Lookback is the default candidate window for feed requests.
	Lookback time.Duration
	// OverfetchMin and OverfetchFactor size the similarity search so
	// post-sort pagination has enough candidates:
	// k = max(OverfetchMin, (offset+limit)*OverfetchFactor).
	OverfetchMin    int
	OverfetchFactor int
}

// DefaultConfig returns the production ranking configuration.
func DefaultConfig() Config {
	return Config{
		Alpha:           0.65,
		HalfLife:        24 * time.Hour,
		TTL:             store.DefaultTTL,
		Lookback:        store.DefaultTTL,
		OverfetchMin:    50,
		OverfetchFactor: 3,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return errors.Errorf("alpha must be in [0, 1], got %f", c.Alpha)
	}
	if c.HalfLife <= 0 {
		return errors.New("half-life must be positive")
	}
	if c.TTL <= 0 {
		return errors.New("ttl must be positive")
	}
	if c.Lookback <= 0 || c.Lookback > c.TTL {
		return errors.Errorf("lookback must be in (0, ttl], got %s with ttl %s", c.Lookback, c.TTL)
	}
	if c.OverfetchMin <= 0 || c.OverfetchFactor <= 0 {
		return errors.New("overfetch parameters must be positive")
	}
	return nil
}

// ClampLookback bounds a requested window to (0, TTL], substituting the
// default for non-positive requests. An over-wide window must not resurrect
// expired items.
func (c Config) ClampLookback(requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = c.Lookback
	}
	if requested > c.TTL {
		return c.TTL
	}
	return requested
}

// Breakdown is the score decomposition attached to each ranked item.
type Breakdown struct {
	// Similarity is the normalized similarity component in [0, 1].
	Similarity float64 `json:"similarity"`
	// Decay is the recency component in (0, 1].
	Decay float64 `json:"decay"`
	// Final is the blended score in [0, 1].
	Final float64 `json:"final"`
}

// NormalizeSimilarity maps raw cosine similarity from [-1, 1] to [0, 1].
// Inputs are clamped first; stores are not trusted to pre-clamp. The same
// mapping yields source relevance on the ask path.
func NormalizeSimilarity(raw float64) float64 {
	if raw < -1 {
		raw = -1
	} else if raw > 1 {
		raw = 1
	}
	return (raw + 1) / 2
}

// TimeDecay returns exp(-age/halfLife), clamped to 1 for negative ages so
// items with future timestamps score as fresh. Strictly decreasing in age,
// always positive.
func (c Config) TimeDecay(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Exp(-age.Hours() / c.HalfLife.Hours())
}

// Blend combines a normalized similarity and a decay factor, both in [0, 1],
// into a final score in [0, 1].
func (c Config) Blend(simNorm, decay float64) float64 {
	return c.Alpha*simNorm + (1-c.Alpha)*decay
}

// Score computes the full breakdown for one candidate.
func (c Config) Score(rawSimilarity float64, createdTs, nowTs int64) Breakdown {
	simNorm := NormalizeSimilarity(rawSimilarity)
	decay := c.TimeDecay(time.Duration(nowTs-createdTs) * time.Second)
	return Breakdown{
		Similarity: simNorm,
		Decay:      decay,
		Final:      c.Blend(simNorm, decay),
	}
}

// RecencyScore is the cold-start breakdown: no similarity signal, the decay
// factor alone decides the order.
func (c Config) RecencyScore(createdTs, nowTs int64) Breakdown {
	decay := c.TimeDecay(time.Duration(nowTs-createdTs) * time.Second)
	return Breakdown{
		Similarity: 0,
		Decay:      decay,
		Final:      decay,
	}
}

// less orders two ranked items: higher final score first, then newer first
// when scores agree within epsilon.
func less(a, b *RankedItem) bool {
	if math.Abs(a.Breakdown.Final-b.Breakdown.Final) > scoreEpsilon {
		return a.Breakdown.Final > b.Breakdown.Final
	}
	return a.Item.CreatedTs > b.Item.CreatedTs
}
