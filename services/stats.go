package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"decokatsu-challenge-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StatsService serves the campaign-wide aggregates shown on the login
// screen and the inter-school ranking. Reads are pure folds over the
// ledger; the global snapshot is cached and refreshed on a fixed
// 60-second cadence, so it can lag a write by up to a minute. Nothing
// else is cached.
type StatsService struct {
	DB *gorm.DB

	mu       sync.RWMutex
	snapshot GlobalStats
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

// GlobalStats is the login-screen banner: everyone's progress.
type GlobalStats struct {
	Participants int64     `json:"participants"` // distinct IDs ever seen in the ledger
	Heroes       int64     `json:"heroes"`       // distinct IDs with the survey sentinel
	TotalPoints  int64     `json:"total_points"` // grams of CO2, campaign-wide
	RefreshedAt  time.Time `json:"refreshed_at"`
}

// Global returns the cached snapshot, computing it on first use.
func (s *StatsService) Global() (GlobalStats, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if !snap.RefreshedAt.IsZero() {
		return snap, nil
	}
	return s.Refresh()
}

// Refresh recomputes the snapshot from the ledger.
func (s *StatsService) Refresh() (GlobalStats, error) {
	var snap GlobalStats

	err := s.DB.Model(&models.LedgerEntry{}).
		Select("COUNT(DISTINCT participant_id)").Scan(&snap.Participants).Error
	if err != nil {
		return GlobalStats{}, fmt.Errorf("%w: counting participants: %v", ErrStoreUnavailable, err)
	}

	err = s.DB.Model(&models.LedgerEntry{}).
		Where("action_keys LIKE ?", "%"+models.SurveyActionKey+"%").
		Select("COUNT(DISTINCT participant_id)").Scan(&snap.Heroes).Error
	if err != nil {
		return GlobalStats{}, fmt.Errorf("%w: counting heroes: %v", ErrStoreUnavailable, err)
	}

	err = s.DB.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(point_delta), 0)").Scan(&snap.TotalPoints).Error
	if err != nil {
		return GlobalStats{}, fmt.Errorf("%w: summing points: %v", ErrStoreUnavailable, err)
	}

	snap.RefreshedAt = time.Now()

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap, nil
}

// StartRefreshScheduler refreshes the snapshot every minute, matching
// the staleness bound the login screen was designed around.
func (s *StatsService) StartRefreshScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if _, err := s.Refresh(); err != nil {
				log.Printf("[Stats] refresh failed: %v", err)
			}
		}),
	)
}

// GroupTotal is one row of the inter-school ranking.
type GroupTotal struct {
	Group       string `json:"group"`
	TotalPoints int64  `json:"total_points"`
}

// GroupRanking sums every rostered participant's total per school,
// highest first. Equal totals order by group name so repeated calls
// agree. Ungrouped participants (visitors) are excluded.
func (s *StatsService) GroupRanking() ([]GroupTotal, error) {
	var rows []GroupTotal
	err := s.DB.Raw(`
		SELECT p."group" AS "group", COALESCE(SUM(l.point_delta), 0) AS total_points
		FROM ledger_entries l
		INNER JOIN participants p ON p.id = l.participant_id
		WHERE l.deleted_at IS NULL AND p.deleted_at IS NULL AND p."group" <> ''
		GROUP BY p."group"
		ORDER BY total_points DESC, "group" ASC
	`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: ranking groups: %v", ErrStoreUnavailable, err)
	}
	return rows, nil
}
