package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"decokatsu-challenge-system/models"

	"gorm.io/gorm"
)

// LotteryService backs the festival reception desk: look a participant
// up, see how many spins their points earn, and mark the draw as done.
// "Done" is itself a zero-point ledger row, so the desk state replays
// from the same log as everything else.
type LotteryService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewLotteryService(db *gorm.DB, ledger *LedgerService) *LotteryService {
	return &LotteryService{DB: db, Ledger: ledger}
}

// DeskRow is one aggregated participant as the desk sees them.
type DeskRow struct {
	ParticipantID string `json:"participant_id"`
	Nickname      string `json:"nickname"`
	TotalPoints   int    `json:"total_points"`
	Spins         int    `json:"spins"`
	Drawn         bool   `json:"drawn"`
}

// SpinsFor converts a point total into lottery spins, one per goal
// reached.
func SpinsFor(totalPoints int) int {
	if totalPoints < 0 {
		return 0
	}
	return totalPoints / models.GoalPoints
}

// Search aggregates the ledger per participant and filters by ID or
// nickname substring. Empty query returns everyone.
func (s *LotteryService) Search(query string) ([]DeskRow, error) {
	var entries []models.LedgerEntry
	err := s.DB.Order("created_at ASC, id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reading ledger: %v", ErrStoreUnavailable, err)
	}

	byID := make(map[string]*DeskRow)
	var order []string
	for _, e := range entries {
		row, ok := byID[e.ParticipantID]
		if !ok {
			row = &DeskRow{ParticipantID: e.ParticipantID}
			byID[e.ParticipantID] = row
			order = append(order, e.ParticipantID)
		}
		row.TotalPoints += e.PointDelta
		if e.Nickname != "" {
			row.Nickname = e.Nickname
		}
		if e.HasAction(models.LotteryDoneActionKey) {
			row.Drawn = true
		}
	}

	rows := make([]DeskRow, 0, len(order))
	for _, id := range order {
		row := byID[id]
		row.Spins = SpinsFor(row.TotalPoints)
		if query != "" &&
			!strings.Contains(row.ParticipantID, query) &&
			!strings.Contains(row.Nickname, query) {
			continue
		}
		rows = append(rows, *row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ParticipantID < rows[j].ParticipantID
	})
	return rows, nil
}

// Complete records the draw for a participant. Refused when the
// participant already drew or has not reached the goal; otherwise a
// zero-point marker row is appended.
func (s *LotteryService) Complete(participantID string) error {
	rows, err := s.Search(participantID)
	if err != nil {
		return err
	}
	var row *DeskRow
	for i := range rows {
		if rows[i].ParticipantID == participantID {
			row = &rows[i]
			break
		}
	}
	if row == nil {
		return fmt.Errorf("%w: participant %s has no ledger rows", ErrNotEligible, participantID)
	}
	if row.Drawn {
		return fmt.Errorf("%w: %s", ErrAlreadyDrawn, participantID)
	}
	if row.TotalPoints < models.GoalPoints {
		return fmt.Errorf("%w: %s has %dg (goal %dg)", ErrNotEligible,
			participantID, row.TotalPoints, models.GoalPoints)
	}

	entry := models.LedgerEntry{
		ParticipantID: participantID,
		Nickname:      row.Nickname,
		TargetDate:    models.LotteryDate,
		ActionKeys:    models.LotteryDoneActionKey,
		PointDelta:    0,
		Memo:          "現地抽選完了",
	}
	if err := s.Ledger.append(&entry); err != nil {
		return err
	}

	log.Printf("🎰 Lottery completed: %s (%s, %dg, %d spins)",
		participantID, row.Nickname, row.TotalPoints, row.Spins)
	return nil
}
