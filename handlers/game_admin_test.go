package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameAttemptAndLeaderboard(t *testing.T) {
	app := newTestApp(t)

	attempts := []map[string]any{
		{"name": "A", "group": "g", "elapsed_seconds": 12.3, "date": "2026-06-05"},
		{"name": "A", "group": "g", "elapsed_seconds": 9.8, "date": "2026-06-05"},
		{"name": "B", "group": "g", "elapsed_seconds": 10.1, "date": "2026-06-05"},
	}
	for _, a := range attempts {
		resp, _ := doJSON(t, app, "POST", "/game/attempts", a, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, app, "GET", "/game/leaderboard?scope=all&limit=2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	board := body["leaderboard"].([]any)
	require.Len(t, board, 2)
	first := board[0].(map[string]any)
	assert.Equal(t, "A", first["participant_name"])
	assert.EqualValues(t, 9.8, first["best_elapsed_seconds"])
}

func TestGameAttemptRejectsNegativeElapsed(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/game/attempts", map[string]any{
		"name": "A", "elapsed_seconds": -1.0,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLotteryDeskFlow(t *testing.T) {
	app := newTestApp(t)
	auth := map[string]string{"X-Participant-ID": "倉敷小学校_1年_A_5", "X-Participant-Name": "たろう"}

	fullDay := []string{"電気", "食事", "水", "分別", "マイデコ"}
	for _, date := range []string{"6/1 (月)", "6/2 (火)"} {
		resp, _ := doJSON(t, app, "POST", "/challenge/days", map[string]any{
			"date": date, "action_keys": fullDay,
		}, auth)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := doJSON(t, app, "GET", "/admin/lottery/participants?q=倉敷", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := body["participants"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.EqualValues(t, 620, row["total_points"])
	assert.EqualValues(t, 1, row["spins"])
	assert.Equal(t, false, row["drawn"])

	resp, _ = doJSON(t, app, "POST", "/admin/lottery/倉敷小学校_1年_A_5/complete", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Repeat draw conflicts.
	resp, _ = doJSON(t, app, "POST", "/admin/lottery/倉敷小学校_1年_A_5/complete", nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
