package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Participant is the roster row for a school participant. The ID is
// derived from enrollment fields and never regenerated, so repeated
// logins resolve to the same identity. Visitors (VIS_*) have no roster
// row and no group.
type Participant struct {
	ID          string `gorm:"primaryKey" json:"id"`
	DisplayName string `json:"display_name"`
	Group       string `gorm:"index" json:"group"` // school name; empty = ungrouped

	Timestamps
}

// ParticipantID derives the stable identity from enrollment fields,
// e.g. "倉敷小学校_1年_A_5". Full-width digits and latin letters are
// folded to their half-width forms first so that "１組" and "1組" are
// the same participant.
func ParticipantID(school, grade, class string, number int) string {
	return fmt.Sprintf("%s_%s_%s_%d",
		normalizeField(school), normalizeField(grade), normalizeField(class), number)
}

func normalizeField(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}
