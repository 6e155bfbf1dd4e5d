package domain

import "time"

// Criterion describes one configured scoring dimension.
type Criterion struct {
	Name    string
	Weight  float64
	Enabled bool
}

// CriteriaConfig is the criteria set loaded once per rating run and passed
// by value into the scorer, so a run never sees a mid-batch config change.
type CriteriaConfig struct {
	Criteria []Criterion
	MinScore float64
	MaxScore float64
}

// Enabled returns the criteria that participate in scoring, in config order.
func (c CriteriaConfig) Enabled() []Criterion {
	out := make([]Criterion, 0, len(c.Criteria))
	for _, cr := range c.Criteria {
		if cr.Enabled {
			out = append(out, cr)
		}
	}
	return out
}

// InRange reports whether an evaluator score falls inside the valid range.
func (c CriteriaConfig) InRange(score float64) bool {
	return score >= c.MinScore && score <= c.MaxScore
}

// CriterionScore is one evaluator verdict for a single criterion.
type CriterionScore struct {
	Name   string
	Score  float64
	Reason string
	Weight float64
}

// Rating holds the full per-criterion breakdown for one post. It is
// created once, after every enabled criterion scored successfully, and is
// immutable afterwards. Total is derived, never authoritative on its own.
type Rating struct {
	PostID   int64
	Criteria []CriterionScore
	Total    float64
	RatedAt  time.Time
}

// ComputeTotal recalculates the weighted total from the stored criterion
// rows. Persisted totals must always match this value.
func (r Rating) ComputeTotal() float64 {
	var total float64
	for _, cs := range r.Criteria {
		total += cs.Score * cs.Weight
	}
	return total
}
