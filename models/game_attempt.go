package models

// GameAttempt records one completed quiz run. Append-only: the same
// player may appear any number of times, one row per finished session.
type GameAttempt struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ParticipantName string  `gorm:"index;not null" json:"participant_name"`
	Group           string  `gorm:"index" json:"group"`
	ElapsedSeconds  float64 `gorm:"not null" json:"elapsed_seconds"` // wall clock + penalties
	Date            string  `gorm:"index;not null" json:"date"`      // YYYY-MM-DD

	Timestamps
}
