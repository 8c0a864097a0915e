package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"decokatsu-challenge-system/models"

	"gorm.io/gorm"
)

// GameService owns the quiz-attempt log and the best-time leaderboard.
// Attempts only ever accumulate; there is nothing to reconcile here.
type GameService struct {
	DB *gorm.DB

	now func() time.Time
}

func NewGameService(db *gorm.DB) *GameService {
	return &GameService{DB: db, now: time.Now}
}

// RecordAttempt appends one finished run. Duplicates are expected —
// every completed session is its own row.
func (s *GameService) RecordAttempt(name, group string, elapsedSeconds float64, date string) error {
	if elapsedSeconds < 0 {
		return fmt.Errorf("%w: elapsed %.2fs", ErrInvalidAttempt, elapsedSeconds)
	}
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	attempt := models.GameAttempt{
		ParticipantName: name,
		Group:           group,
		ElapsedSeconds:  elapsedSeconds,
		Date:            date,
	}
	if err := s.DB.Create(&attempt).Error; err != nil {
		return fmt.Errorf("%w: recording game attempt: %v", ErrStoreUnavailable, err)
	}

	log.Printf("⏱ Game attempt: %s (%s) %.2fs on %s", name, group, elapsedSeconds, date)
	return nil
}

// Scope selects the time window the leaderboard ranks over.
type Scope int

const (
	ScopeToday Scope = iota
	ScopeAllTime
)

// LeaderboardEntry is one ranked row: a player's best time in scope.
type LeaderboardEntry struct {
	ParticipantName    string  `json:"participant_name"`
	Group              string  `json:"group"`
	BestElapsedSeconds float64 `json:"best_elapsed_seconds"`

	achievedAt time.Time // when the best time first landed; tie-break
}

// Top returns the n best (participant, group) pairs, fastest first.
// Ties on elapsed time go to whoever posted the time first, so the
// ordering is stable across calls. Pure read over the attempt log.
func (s *GameService) Top(n int, scope Scope) ([]LeaderboardEntry, error) {
	q := s.DB.Model(&models.GameAttempt{}).Order("created_at ASC, id ASC")
	if scope == ScopeToday {
		q = q.Where("date = ?", s.now().Format("2006-01-02"))
	}

	var attempts []models.GameAttempt
	if err := q.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("%w: reading game scores: %v", ErrStoreUnavailable, err)
	}

	best := make(map[string]*LeaderboardEntry)
	var order []string
	for _, a := range attempts {
		key := a.ParticipantName + "\x00" + a.Group
		e, ok := best[key]
		if !ok {
			best[key] = &LeaderboardEntry{
				ParticipantName:    a.ParticipantName,
				Group:              a.Group,
				BestElapsedSeconds: a.ElapsedSeconds,
				achievedAt:         a.CreatedAt,
			}
			order = append(order, key)
			continue
		}
		if a.ElapsedSeconds < e.BestElapsedSeconds {
			e.BestElapsedSeconds = a.ElapsedSeconds
			e.achievedAt = a.CreatedAt
		}
	}

	ranked := make([]LeaderboardEntry, 0, len(best))
	for _, key := range order {
		ranked = append(ranked, *best[key])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].BestElapsedSeconds != ranked[j].BestElapsedSeconds {
			return ranked[i].BestElapsedSeconds < ranked[j].BestElapsedSeconds
		}
		return ranked[i].achievedAt.Before(ranked[j].achievedAt)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}
