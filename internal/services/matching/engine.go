package matching

import (
	"sort"

	"bank-reconciliation-backend/internal/models"
)

// Outcome of the decision policy for a single bank transaction.
const (
	OutcomeAutoConfirm = "AUTO_CONFIRM"
	OutcomeSuggested   = "SUGGESTED"
	OutcomeAmbiguous   = "AMBIGUOUS"
	OutcomeNoMatch     = "NO_MATCH"
)

// Decision is the ranked result for one bank transaction.
type Decision struct {
	Transaction *models.BankTransaction
	Outcome     string
	Best        *Candidate
	Alternates  []Candidate
}

// Engine ranks scored candidates for a transaction and classifies the outcome.
// It is stateless; one engine may serve concurrent batches.
type Engine struct {
	scorer *Scorer
	cfg    Config
}

func NewEngine(ruleSet RuleSet, cfg Config) *Engine {
	return &Engine{scorer: NewScorer(ruleSet, cfg), cfg: cfg}
}

func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// Decide scores every candidate entry for tx and applies the decision policy.
// Ordering is fully deterministic: confidence descending, then smaller date
// gap, then earliest entry creation.
func (e *Engine) Decide(tx *models.BankTransaction, entries []*models.LedgerEntry) Decision {
	var ranked []Candidate
	for _, entry := range entries {
		c := e.scorer.Score(tx, entry)
		if c.Confidence == 0 {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if ranked[i].DateDiff != ranked[j].DateDiff {
			return ranked[i].DateDiff < ranked[j].DateDiff
		}
		return ranked[i].Entry.CreatedAt.Before(ranked[j].Entry.CreatedAt)
	})

	var valid []Candidate
	for _, c := range ranked {
		if e.scorer.IsValidMatch(c.Confidence) {
			valid = append(valid, c)
		}
	}

	if len(valid) == 0 {
		return Decision{Transaction: tx, Outcome: OutcomeNoMatch}
	}

	best := valid[0]
	alternates := valid[1:]
	if len(alternates) > e.cfg.MaxAlternates {
		alternates = alternates[:e.cfg.MaxAlternates]
	}

	d := Decision{Transaction: tx, Best: &best, Alternates: alternates}
	switch {
	case len(valid) >= 2 && best.Confidence-valid[1].Confidence <= e.cfg.AmbiguityGap:
		// Comparably scored rivals force manual adjudication even when the
		// best candidate clears the auto-confirm floor.
		d.Outcome = OutcomeAmbiguous
	case best.Confidence >= e.cfg.AutoConfirmFloor &&
		(len(valid) == 1 || best.Confidence-valid[1].Confidence >= e.cfg.AutoConfirmMargin):
		d.Outcome = OutcomeAutoConfirm
	default:
		d.Outcome = OutcomeSuggested
	}
	return d
}
