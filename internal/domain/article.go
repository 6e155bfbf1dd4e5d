package domain

// Article is a selected, generated, publishable unit derived from one post.
// Rank is the 1-based selection order by weighted score and never changes;
// the two position columns are assigned at the review and send checkpoints
// and shifted by manual editorial actions.
type Article struct {
	ID             int64
	CycleID        int64
	PostID         int64
	Headline       string
	Body           string
	Rank           int
	ReviewPosition *int
	FinalPosition  *int
	IsActive       bool
	Skipped        bool
}

// InOrdering reports whether the article participates in the active
// ordering that positions are assigned over.
func (a Article) InOrdering() bool {
	return a.IsActive && !a.Skipped
}

// PositionField selects which of the two tracked orderings an assignment
// pass or manual edit applies to.
type PositionField string

const (
	ReviewPositionField PositionField = "review_position"
	FinalPositionField  PositionField = "final_position"
)

// Position returns the article's value for the given ordering field.
func (a Article) Position(field PositionField) *int {
	if field == FinalPositionField {
		return a.FinalPosition
	}
	return a.ReviewPosition
}

// PositionAssignment is one row of a computed position pass.
type PositionAssignment struct {
	ArticleID int64
	Position  *int
}
