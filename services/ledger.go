package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"decokatsu-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService owns the append-only submission ledger and everything
// derived from it: per-participant folded state, diff-based
// reconciliation of daily checklists, and eco-hero certification.
type LedgerService struct {
	DB      *gorm.DB
	Catalog *CatalogService

	now func() time.Time // injectable for tests
}

func NewLedgerService(db *gorm.DB, catalog *CatalogService) *LedgerService {
	return &LedgerService{DB: db, Catalog: catalog, now: time.Now}
}

// Outcome reports what a submission did to the ledger.
type Outcome struct {
	Written bool `json:"written"`
	Delta   int  `json:"delta"`
}

// ParticipantState is the fold of a participant's ledger rows. It is
// derived on every read, never stored.
type ParticipantState struct {
	ParticipantID string              `json:"participant_id"`
	Nickname      string              `json:"nickname"`
	TotalPoints   int                 `json:"total_points"`
	History       map[string][]string `json:"history"` // date label → last submitted action set
}

// StateFor folds all ledger rows for the participant in submission
// order: total accumulates every delta; per date, the last entry's
// action set wins (each entry already carries the full replacement set).
// Pure and idempotent given the same log.
func (s *LedgerService) StateFor(participantID string) (ParticipantState, error) {
	entries, err := s.entriesFor(participantID)
	if err != nil {
		return ParticipantState{}, err
	}

	state := ParticipantState{
		ParticipantID: participantID,
		History:       make(map[string][]string),
	}
	for _, e := range entries {
		state.TotalPoints += e.PointDelta
		state.History[e.TargetDate] = e.Actions()
		if e.Nickname != "" {
			state.Nickname = e.Nickname
		}
	}
	return state, nil
}

// SubmitDay reconciles a day's checklist against the participant's
// current folded state and appends the signed difference, if any.
//
// The previous state is refetched here, at decision time, not taken
// from the caller: a stale client that checks, unchecks and re-checks
// still converges, because every delta is computed against the folded
// truth. Two *concurrent* submissions for the same date can still race
// each other (both reading the same fold) — the surrounding session
// layer is assumed to allow one active writer per participant.
func (s *LedgerService) SubmitDay(participantID, nickname, date string, actionKeys []string, memo string) (Outcome, error) {
	return s.submit(participantID, nickname, date, actionKeys, memo, nil)
}

// SubmitSurvey records the 環境の日 special mission: the sentinel action
// plus the questionnaire answers. Goes through the same reconciliation
// path, so re-submitting the survey is a no-op.
func (s *LedgerService) SubmitSurvey(participantID, nickname string, answers models.SurveyAnswers) (Outcome, error) {
	return s.submit(participantID, nickname, models.SurveyDate,
		[]string{models.SurveyActionKey}, answers.Feedback, &answers)
}

func (s *LedgerService) submit(participantID, nickname, date string, actionKeys []string, memo string, answers *models.SurveyAnswers) (Outcome, error) {
	actionKeys = dedupeKeys(actionKeys)
	if err := s.Catalog.Validate(actionKeys); err != nil {
		return Outcome{}, err
	}

	prev, err := s.StateFor(participantID)
	if err != nil {
		return Outcome{}, err
	}
	prevKeys := prev.History[date]

	if sameActionSet(actionKeys, prevKeys) {
		return Outcome{Written: false, Delta: 0}, nil
	}

	delta := s.Catalog.PointsFor(actionKeys) - s.Catalog.PointsFor(prevKeys)

	entry := models.LedgerEntry{
		ParticipantID: participantID,
		Nickname:      nickname,
		TargetDate:    date,
		ActionKeys:    models.JoinActionKeys(actionKeys),
		PointDelta:    delta,
		Memo:          memo,
	}
	if answers != nil {
		entry.Survey = datatypes.NewJSONType(*answers)
	}
	if err := s.append(&entry); err != nil {
		return Outcome{}, err
	}
	s.upsertRoster(participantID, nickname)

	log.Printf("🌱 Ledger append: %s %s Δ%+dg (%d actions)", participantID, date, delta, len(actionKeys))
	return Outcome{Written: true, Delta: delta}, nil
}

// IsCertified reports whether the participant has EVER submitted the
// survey sentinel. It scans every row, not the folded last-per-date
// sets, so a later edit that drops the sentinel from that date cannot
// revoke certification.
func (s *LedgerService) IsCertified(participantID string) (bool, error) {
	entries, err := s.entriesFor(participantID)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.HasAction(models.SurveyActionKey) {
			return true, nil
		}
	}
	return false, nil
}

// ResolveResult is what the login flow gets back.
type ResolveResult struct {
	ParticipantID string           `json:"participant_id"`
	Nickname      string           `json:"nickname"`
	State         ParticipantState `json:"state"`
	Certified     bool             `json:"certified"`
}

// Resolve derives the stable participant ID from enrollment fields and
// returns the folded state. A previously saved nickname wins over the
// freshly typed one, matching how the sheet kept the first spelling.
func (s *LedgerService) Resolve(school, grade, class string, number int, nickname string) (ResolveResult, error) {
	id := models.ParticipantID(school, grade, class, number)

	state, err := s.StateFor(id)
	if err != nil {
		return ResolveResult{}, err
	}
	name := state.Nickname
	if name == "" {
		name = nickname
	}
	state.Nickname = name

	certified, err := s.IsCertified(id)
	if err != nil {
		return ResolveResult{}, err
	}

	s.upsertRosterWithGroup(id, name, school)

	return ResolveResult{ParticipantID: id, Nickname: name, State: state, Certified: certified}, nil
}

// RecordDeclaration appends a zero-point booth declaration for a
// walk-in visitor and returns the generated visitor ID.
func (s *LedgerService) RecordDeclaration(nickname, text string) (string, error) {
	id := fmt.Sprintf("VIS_%s_%s", s.now().Format("150405"), uuid.NewString()[:4])

	entry := models.LedgerEntry{
		ParticipantID: id,
		Nickname:      nickname,
		TargetDate:    models.VisitorDate,
		ActionKeys:    models.DeclarationActionKey,
		PointDelta:    s.Catalog.PointsFor([]string{models.DeclarationActionKey}),
		Memo:          text,
	}
	if err := s.append(&entry); err != nil {
		return "", err
	}

	log.Printf("🎟 Visitor declaration: %s (%s)", id, nickname)
	return id, nil
}

// entriesFor loads a participant's rows in replay order.
func (s *LedgerService) entriesFor(participantID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.DB.Where("participant_id = ?", participantID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reading ledger for %s: %v", ErrStoreUnavailable, participantID, err)
	}
	return entries, nil
}

func (s *LedgerService) append(entry *models.LedgerEntry) error {
	if err := s.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: appending ledger entry: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// upsertRoster keeps the participants table current for school
// participants. Visitors have no roster row.
func (s *LedgerService) upsertRoster(participantID, nickname string) {
	if strings.HasPrefix(participantID, "VIS_") {
		return
	}
	// School is the first ID segment ("倉敷小学校_1年_A_5").
	group := participantID
	if i := strings.Index(participantID, "_"); i > 0 {
		group = participantID[:i]
	}
	s.upsertRosterWithGroup(participantID, nickname, group)
}

func (s *LedgerService) upsertRosterWithGroup(participantID, nickname, group string) {
	p := models.Participant{ID: participantID, DisplayName: nickname, Group: group}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "group", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		// Roster is a convenience mirror; the ledger row already landed.
		log.Printf("⚠️ Roster upsert failed for %s: %v", participantID, err)
	}
}

func dedupeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func sameActionSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}
	if len(set) != len(b) {
		return false
	}
	for _, k := range b {
		if _, ok := set[k]; !ok {
			return false
		}
	}
	return true
}
