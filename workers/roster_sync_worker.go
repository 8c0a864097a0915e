// workers/roster_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"decokatsu-challenge-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RosterParticipant matches the JSON the enrollment service publishes
// for each school participant.
type RosterParticipant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	School      string    `json:"school"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetRosterChangesResponse is the top-level sync response.
type GetRosterChangesResponse struct {
	Participants []RosterParticipant `json:"participants"`
}

// RosterSyncWorker mirrors the schools' enrollment roster into the
// local participants table so group rankings and the reception desk
// show current names even before a child's first submission.
type RosterSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g. "http://localhost:8500"
	endpointPath string // e.g. "/api/v1/public/roster"
	serviceToken string
	httpClient   *http.Client
}

func NewRosterSyncWorker(db *gorm.DB, rosterServiceBaseURL, endpointPath, serviceToken string) *RosterSyncWorker {
	return &RosterSyncWorker{
		db:           db,
		interval:     5 * time.Minute,
		baseURL:      rosterServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *RosterSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Roster Sync Worker (enrollment service → participants)…")
	go w.run(ctx)
}

func (w *RosterSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial roster sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Roster sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Roster Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local table.
func (w *RosterSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	w.db.Model(&models.Participant{}).
		Select("COALESCE(MAX(updated_at), '0001-01-01')").
		Scan(&lastTime)
	return lastTime
}

func (w *RosterSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	u, err := url.Parse(fmt.Sprintf("%s%s", w.baseURL, w.endpointPath))
	if err != nil {
		return fmt.Errorf("failed to parse roster URL: %w", err)
	}
	if !since.IsZero() {
		q := u.Query()
		q.Set("since", since.UTC().Format(time.RFC3339))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create roster request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call roster service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("roster service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response GetRosterChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode roster response: %w", err)
	}

	if len(response.Participants) == 0 {
		return nil
	}

	rows := make([]models.Participant, 0, len(response.Participants))
	for _, p := range response.Participants {
		rows = append(rows, models.Participant{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Group:       p.School,
		})
	}

	err = w.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "group", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert roster batch: %w", err)
	}

	log.Printf("📥 Roster sync: upserted %d participant(s)", len(rows))
	return nil
}
