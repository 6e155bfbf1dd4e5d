package usecase

import (
	"fmt"
	"strings"

	"NewsCurator/internal/domain"
)

// BuildDigestMessage renders the cycle's current ordering as plain text
// for editorial preview. Sent cycles render the final ordering; everything
// else renders the review ordering. Delivery is not this system's job.
func BuildDigestMessage(cycle domain.Cycle, articles []domain.Article) string {
	field := domain.ReviewPositionField
	if cycle.Status == domain.StatusSent {
		field = domain.FinalPositionField
	}

	ordered := OrderingFor(articles, field)
	if len(ordered) == 0 {
		return ""
	}

	var sb strings.Builder
	if cycle.Subject != "" {
		fmt.Fprintf(&sb, "%s\n\n", cycle.Subject)
	}
	for _, article := range ordered {
		fmt.Fprintf(&sb, "%d. %s\n%s\n\n", *article.Position(field), article.Headline, article.Body)
	}

	return sb.String()
}
