package domain

import (
	"fmt"
	"time"
)

// CycleStatus enumerates the editorial review lifecycle.
type CycleStatus string

const (
	StatusDraft       CycleStatus = "draft"
	StatusInReview    CycleStatus = "in_review"
	StatusChangesMade CycleStatus = "changes_made"
	StatusApproved    CycleStatus = "approved"
	StatusSent        CycleStatus = "sent"
)

// allowedTransitions maps each state to the states reachable from it.
var allowedTransitions = map[CycleStatus][]CycleStatus{
	StatusDraft:       {StatusInReview},
	StatusInReview:    {StatusChangesMade, StatusApproved},
	StatusChangesMade: {StatusInReview, StatusApproved},
	StatusApproved:    {StatusChangesMade, StatusSent},
	StatusSent:        {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to CycleStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status accepts no further mutations.
func (s CycleStatus) Terminal() bool {
	return s == StatusSent
}

// Valid reports whether the string is a known lifecycle status.
func (s CycleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusChangesMade, StatusApproved, StatusSent:
		return true
	}
	return false
}

// Cycle is one publication run. It owns the cycle's posts, ratings,
// duplicate groups, and articles; resetting a cycle cascades their deletion.
type Cycle struct {
	ID          int64
	TargetDate  time.Time
	Status      CycleStatus
	Subject     string
	TopCount    int
	ActiveCount int
	CreatedAt   time.Time
}

// String renders the cycle for log lines.
func (c Cycle) String() string {
	return fmt.Sprintf("cycle %d (%s, %s)", c.ID, c.TargetDate.Format("2006-01-02"), c.Status)
}
