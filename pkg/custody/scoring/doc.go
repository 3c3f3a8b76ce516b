// Package scoring implements admissibility scoring and risk classification.
//
// The admissibility score is a pure function of two auditable inputs:
//
//	score = clamp(0, 100, round(sourceWeight*50 + custodyCompleteness*50))
//
// sourceWeight comes from a configured lookup table keyed by source type
// (official capture sources weigh more than user-submitted ones), with an
// explicit default for unrecognized types — an unknown source type is never
// an error, it just scores at the default weight. custodyCompleteness is
// the fraction of the expected lifecycle action set (by default REGISTERED
// and VERIFIED) present in the item's custody timeline.
//
// Both inputs remain derivable from registry and ledger state, so a stored
// score can always be recomputed and audited.
//
// Scores map onto risk levels with fixed thresholds: 75 and above is LOW
// risk, 50-74 MEDIUM, 25-49 HIGH, below 25 VERY HIGH.
//
// The weight table can be hot-reloaded from a YAML file; see Watcher.
package scoring
