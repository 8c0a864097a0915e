package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerEntry is one appended submission. Rows are never updated or
// deleted; the current state of a participant is a fold over their rows.
// PointDelta is the signed change relative to the previously folded
// state for TargetDate, so summing deltas always reconciles to the point
// value of the latest action set per date.
type LedgerEntry struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ParticipantID string `gorm:"index;not null" json:"participant_id"`
	Nickname      string `json:"nickname"`

	TargetDate string `gorm:"index;not null" json:"target_date"` // e.g. "6/1 (月)"
	ActionKeys string `json:"action_keys"`                       // comma-joined full replacement set for TargetDate
	PointDelta int    `json:"point_delta"`
	Memo       string `json:"memo"`

	Survey datatypes.JSONType[SurveyAnswers] `gorm:"type:jsonb" json:"survey,omitempty"`

	Timestamps
}

// SurveyAnswers holds the 環境の日 mission answers (all optional).
type SurveyAnswers struct {
	Q1       string `json:"q1,omitempty"`
	Q2       string `json:"q2,omitempty"`
	Q3       string `json:"q3,omitempty"`
	Feedback string `json:"feedback,omitempty"`
}

const actionKeySep = ", "

// JoinActionKeys renders an action set the way the original sheet stored
// it, so exports stay compatible with historical data.
func JoinActionKeys(keys []string) string {
	return strings.Join(keys, actionKeySep)
}

// SplitActionKeys parses a stored action set. Empty input means the
// participant unchecked everything for that date.
func SplitActionKeys(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, actionKeySep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Actions returns the entry's action set as a slice.
func (e *LedgerEntry) Actions() []string {
	return SplitActionKeys(e.ActionKeys)
}

// HasAction reports whether the entry's set contains key.
func (e *LedgerEntry) HasAction(key string) bool {
	for _, k := range e.Actions() {
		if k == key {
			return true
		}
	}
	return false
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
