package matching

import (
	"math"
	"time"

	"bank-reconciliation-backend/internal/models"
)

// Stable rule names, used in rule-score snapshots and audit rows.
const (
	RuleExactAmount    = "exact_amount"
	RuleExactDate      = "exact_date"
	RuleFuzzyDate      = "fuzzy_date"
	RuleVirtualAccount = "virtual_account"
	RuleNameSimilarity = "name_similarity"
)

// RuleResult is the outcome of evaluating one rule against one pair.
type RuleResult struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
}

// Rule is a pure comparison between a bank transaction and a candidate ledger
// entry. Evaluate must be deterministic and total: absent optional fields make
// the rule not match, never error.
type Rule interface {
	Name() string
	Priority() int
	Weight() float64
	Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult
}

// RuleSet is an ordered, immutable collection of rules. Build one per entity
// configuration; rules hold no state, so a set is safe for concurrent use.
type RuleSet struct {
	rules []Rule
}

func NewRuleSet(rules ...Rule) RuleSet {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	return RuleSet{rules: rs}
}

func (rs RuleSet) Rules() []Rule {
	return rs.rules
}

// DefaultRuleSet builds the five baseline rules from cfg.
func DefaultRuleSet(cfg Config) RuleSet {
	return NewRuleSet(
		exactAmountRule{weight: cfg.Weights.ExactAmount},
		exactDateRule{weight: cfg.Weights.ExactDate},
		fuzzyDateRule{weight: cfg.Weights.FuzzyDate, toleranceDays: cfg.FuzzyDateDays},
		virtualAccountRule{weight: cfg.Weights.VirtualAccount},
		nameSimilarityRule{weight: cfg.Weights.NameSimilarity, floor: cfg.NameSimilarityFloor},
	)
}

type exactAmountRule struct {
	weight float64
}

func (r exactAmountRule) Name() string    { return RuleExactAmount }
func (r exactAmountRule) Priority() int   { return 1 }
func (r exactAmountRule) Weight() float64 { return r.weight }

func (r exactAmountRule) Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult {
	if tx.Amount.Equal(entry.Amount) {
		return RuleResult{Matched: true, Score: 1.0}
	}
	return RuleResult{}
}

type exactDateRule struct {
	weight float64
}

func (r exactDateRule) Name() string    { return RuleExactDate }
func (r exactDateRule) Priority() int   { return 2 }
func (r exactDateRule) Weight() float64 { return r.weight }

func (r exactDateRule) Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult {
	if DaysBetween(tx.TransactionDate, entry.EntryDate) == 0 {
		return RuleResult{Matched: true, Score: 1.0}
	}
	return RuleResult{}
}

type fuzzyDateRule struct {
	weight        float64
	toleranceDays int
}

func (r fuzzyDateRule) Name() string    { return RuleFuzzyDate }
func (r fuzzyDateRule) Priority() int   { return 3 }
func (r fuzzyDateRule) Weight() float64 { return r.weight }

// Score decays linearly with the day gap: 1 - days/10, so a 3-day gap still
// scores 0.7 instead of dropping to zero.
func (r fuzzyDateRule) Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult {
	days := DaysBetween(tx.TransactionDate, entry.EntryDate)
	if days > r.toleranceDays {
		return RuleResult{}
	}
	return RuleResult{Matched: true, Score: 1.0 - float64(days)/10.0}
}

type virtualAccountRule struct {
	weight float64
}

func (r virtualAccountRule) Name() string    { return RuleVirtualAccount }
func (r virtualAccountRule) Priority() int   { return 4 }
func (r virtualAccountRule) Weight() float64 { return r.weight }

func (r virtualAccountRule) Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult {
	if tx.VirtualAccount != "" && tx.VirtualAccount == entry.VirtualAccount {
		return RuleResult{Matched: true, Score: 1.0}
	}
	return RuleResult{}
}

type nameSimilarityRule struct {
	weight float64
	floor  float64
}

func (r nameSimilarityRule) Name() string    { return RuleNameSimilarity }
func (r nameSimilarityRule) Priority() int   { return 5 }
func (r nameSimilarityRule) Weight() float64 { return r.weight }

func (r nameSimilarityRule) Evaluate(tx *models.BankTransaction, entry *models.LedgerEntry) RuleResult {
	if tx.CounterpartyName == "" || entry.CounterpartyName == "" {
		return RuleResult{}
	}
	sim := NameSimilarity(tx.CounterpartyName, entry.CounterpartyName)
	if sim <= r.floor {
		return RuleResult{}
	}
	return RuleResult{Matched: true, Score: sim}
}

// DaysBetween returns the absolute number of whole calendar days between two
// instants, ignoring time of day and timezone offsets.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Abs(ad.Sub(bd).Hours() / 24))
}
