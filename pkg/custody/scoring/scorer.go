package scoring

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"custodia-hq/custodia/pkg/custody"
)

// RiskLevel is the coarse risk classification derived from an
// admissibility score.
type RiskLevel string

// Risk levels, strongest to weakest evidence.
const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY HIGH"
)

// Score thresholds for the risk mapping. A score at or above the LOW
// threshold classifies as LOW risk, and so on down the ladder.
const (
	ThresholdLow    = 75
	ThresholdMedium = 50
	ThresholdHigh   = 25
)

// Config contains the source-weight table and the expected lifecycle
// action set used for custody completeness.
type Config struct {
	// Weights maps lowercase source types to weights in [0,1].
	Weights map[string]float64 `yaml:"weights"`

	// DefaultWeight applies to unrecognized source types.
	DefaultWeight float64 `yaml:"default_weight"`

	// ExpectedActions is the lifecycle action set whose presence in a
	// timeline defines custody completeness.
	ExpectedActions []custody.Action `yaml:"expected_actions"`
}

// DefaultConfig returns the default scoring configuration. Official
// capture sources weigh higher than user-submitted ones.
func DefaultConfig() *Config {
	return &Config{
		Weights: map[string]float64{
			"official":       1.0,
			"cctv":           1.0,
			"bodycam":        0.95,
			"dashcam":        0.8,
			"mobile":         0.5,
			"phone":          0.5,
			"user-submitted": 0.4,
		},
		DefaultWeight:   0.5,
		ExpectedActions: []custody.Action{custody.ActionRegistered, custody.ActionVerified},
	}
}

// Scorer computes admissibility scores. It is safe for concurrent use; the
// weight table may be swapped at runtime via Reload.
type Scorer struct {
	mu     sync.RWMutex
	config *Config
	logger *slog.Logger
}

// NewScorer creates a scorer with the given configuration. A nil config
// uses DefaultConfig.
func NewScorer(config *Config) *Scorer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Scorer{
		config: config,
		logger: slog.Default().With("component", "custody.scoring"),
	}
}

// Reload replaces the scoring configuration. In-flight scoring calls see
// either the old or the new table, never a mix.
func (s *Scorer) Reload(config *Config) {
	if config == nil {
		return
	}
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
	s.logger.Info("scoring configuration reloaded",
		"source_types", len(config.Weights),
		"default_weight", config.DefaultWeight,
	)
}

// Score combines a source weight and a custody completeness fraction into
// a bounded admissibility score. Pure: same inputs, same score.
func Score(sourceWeight, custodyCompleteness float64) int {
	score := int(math.Round(sourceWeight*50 + custodyCompleteness*50))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// SourceWeight looks up the weight for a source type. Unrecognized source
// types resolve to the default weight; they are never an error.
func (s *Scorer) SourceWeight(sourceType string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	weight, ok := s.config.Weights[strings.ToLower(sourceType)]
	if !ok {
		s.logger.Debug("unrecognized source type, using default weight",
			"source_type", sourceType,
			"default_weight", s.config.DefaultWeight,
		)
		return s.config.DefaultWeight
	}
	return weight
}

// Completeness returns the fraction, in [0,1], of the expected lifecycle
// action set present in the timeline.
func (s *Scorer) Completeness(timeline []*custody.CustodyEvent) float64 {
	s.mu.RLock()
	expected := s.config.ExpectedActions
	s.mu.RUnlock()

	if len(expected) == 0 {
		return 1
	}

	present := make(map[custody.Action]bool, len(timeline))
	for _, event := range timeline {
		present[event.Action] = true
	}

	found := 0
	for _, action := range expected {
		if present[action] {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}

// ScoreEvidence computes the admissibility score for a record given its
// custody timeline.
func (s *Scorer) ScoreEvidence(record *custody.EvidenceRecord, timeline []*custody.CustodyEvent) int {
	return Score(s.SourceWeight(record.SourceType), s.Completeness(timeline))
}

// Classify maps an admissibility score onto a risk level.
func Classify(score int) RiskLevel {
	switch {
	case score >= ThresholdLow:
		return RiskLow
	case score >= ThresholdMedium:
		return RiskMedium
	case score >= ThresholdHigh:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// Admissible reports whether a risk level counts toward corroboration:
// LOW and MEDIUM do, HIGH and VERY HIGH do not.
func (r RiskLevel) Admissible() bool {
	return r == RiskLow || r == RiskMedium
}
