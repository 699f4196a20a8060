package matching

import (
	"bank-reconciliation-backend/internal/models"
)

// Match-type classification bands over aggregated confidence.
const (
	MatchTypeExact = "EXACT"
	MatchTypeFuzzy = "FUZZY"
	MatchTypeNone  = "NONE"
)

// RuleScore is one rule's contribution, kept for snapshots and review UIs.
type RuleScore struct {
	Rule    string  `json:"rule"`
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
}

// Candidate is the scored pairing of one bank transaction with one ledger
// entry. It lives only for the decision cycle unless surfaced as a suggestion.
type Candidate struct {
	Entry      *models.LedgerEntry
	RuleScores []RuleScore
	Confidence float64
	MatchType  string
	DateDiff   int
}

// Scorer applies a rule set to a single pair and aggregates the per-rule
// results into one confidence value.
type Scorer struct {
	ruleSet RuleSet
	cfg     Config
}

func NewScorer(ruleSet RuleSet, cfg Config) *Scorer {
	return &Scorer{ruleSet: ruleSet, cfg: cfg}
}

// Score evaluates every rule and computes the weighted average over matched
// rules. Amount equality gates the whole candidate: without it, confidence is
// zero no matter how well dates or names line up.
func (s *Scorer) Score(tx *models.BankTransaction, entry *models.LedgerEntry) Candidate {
	c := Candidate{
		Entry:    entry,
		DateDiff: DaysBetween(tx.TransactionDate, entry.EntryDate),
	}

	amountMatched := false
	var weightSum, scoreSum float64
	for _, rule := range s.ruleSet.Rules() {
		res := rule.Evaluate(tx, entry)
		c.RuleScores = append(c.RuleScores, RuleScore{
			Rule:    rule.Name(),
			Matched: res.Matched,
			Score:   res.Score,
			Weight:  rule.Weight(),
		})
		if !res.Matched {
			continue
		}
		if rule.Name() == RuleExactAmount {
			amountMatched = true
		}
		weightSum += rule.Weight()
		scoreSum += rule.Weight() * res.Score
	}

	if !amountMatched || weightSum == 0 {
		c.Confidence = 0
	} else {
		c.Confidence = scoreSum / weightSum
	}
	c.MatchType = s.classify(c.Confidence)
	return c
}

func (s *Scorer) classify(confidence float64) string {
	switch {
	case confidence >= s.cfg.AutoConfirmFloor:
		return MatchTypeExact
	case confidence >= s.cfg.ValidMatchFloor:
		return MatchTypeFuzzy
	default:
		return MatchTypeNone
	}
}

// IsValidMatch reports whether a confidence clears the suggestion floor.
func (s *Scorer) IsValidMatch(confidence float64) bool {
	return confidence >= s.cfg.ValidMatchFloor
}
