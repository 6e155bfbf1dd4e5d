package domain

// DuplicateGroup records posts judged to cover the same topic within one
// cycle. Exactly one member is kept as primary; the rest are excluded from
// selection. A post belongs to at most one group per cycle.
type DuplicateGroup struct {
	ID            int64
	CycleID       int64
	Topic         string
	PrimaryPostID int64
	DuplicateIDs  []int64
}
