// services/export.go
package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"decokatsu-challenge-system/models"
	"decokatsu-challenge-system/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ExportService ships nightly CSV snapshots of the ledger to object
// storage. Column order matches the original collection sheet so the
// organizers' downstream tooling keeps working.
type ExportService struct {
	DB        *gorm.DB
	eventCode string
}

func NewExportService(db *gorm.DB) *ExportService {
	code := os.Getenv("EVENT_CODE")
	if code == "" {
		code = "decokatsu-challenge"
	}
	return &ExportService{DB: db, eventCode: code}
}

// BuildCSV renders the full ledger in submission order.
func (s *ExportService) BuildCSV() ([]byte, error) {
	var entries []models.LedgerEntry
	if err := s.DB.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: reading ledger for export: %v", ErrStoreUnavailable, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"日時", "ID", "ニックネーム", "対象日付", "実施項目", "CO2削減量", "メモ", "Q1", "Q2", "Q3"})
	for _, e := range entries {
		answers := e.Survey.Data()
		_ = w.Write([]string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.ParticipantID,
			e.Nickname,
			e.TargetDate,
			e.ActionKeys,
			strconv.Itoa(e.PointDelta),
			e.Memo,
			answers.Q1,
			answers.Q2,
			answers.Q3,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing export csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Run builds and uploads one snapshot.
func (s *ExportService) Run() error {
	data, err := s.BuildCSV()
	if err != nil {
		return err
	}
	key := fmt.Sprintf("exports/%s/ledger-%s.csv", s.eventCode, time.Now().Format("2006-01-02"))
	if err := utils.UploadBytesToR2(key, "text/csv", data); err != nil {
		return err
	}
	log.Printf("📤 Ledger export uploaded: %s (%d bytes)", key, len(data))
	return nil
}

// StartExportScheduler uploads a snapshot every night.
func (s *ExportService) StartExportScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			if err := s.Run(); err != nil {
				log.Printf("[Export] nightly export failed: %v", err)
			}
		}),
	)
}
