package services

import (
	"strings"
	"testing"

	"decokatsu-challenge-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDate = "6/1 (月)"

func TestSubmitDayReconciliation(t *testing.T) {
	ledger, _ := newTestLedger(t)

	// First submission: 電気(50) + 食事(100)
	out, err := ledger.SubmitDay("倉敷小学校_1年_A_5", "たろう", testDate, []string{"電気", "食事"}, "")
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, 150, out.Delta)

	// Unchecking 食事 must append a compensating negative delta.
	out, err = ledger.SubmitDay("倉敷小学校_1年_A_5", "たろう", testDate, []string{"電気"}, "")
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, -100, out.Delta)

	state, err := ledger.StateFor("倉敷小学校_1年_A_5")
	require.NoError(t, err)
	assert.Equal(t, 50, state.TotalPoints)
	assert.Equal(t, []string{"電気"}, state.History[testDate])
}

func TestSubmitDayIdempotent(t *testing.T) {
	ledger, db := newTestLedger(t)

	out, err := ledger.SubmitDay("p1", "はなこ", testDate, []string{"水", "分別"}, "")
	require.NoError(t, err)
	require.True(t, out.Written)

	// Same set, different order: no-op, no row, total unchanged.
	out, err = ledger.SubmitDay("p1", "はなこ", testDate, []string{"分別", "水"}, "")
	require.NoError(t, err)
	assert.False(t, out.Written)
	assert.Zero(t, out.Delta)
	assert.EqualValues(t, 1, countEntries(t, db, "p1"))

	state, err := ledger.StateFor("p1")
	require.NoError(t, err)
	assert.Equal(t, 110, state.TotalPoints)
}

func TestSubmitDayOutOfOrderEditsConverge(t *testing.T) {
	ledger, _ := newTestLedger(t)

	// check → uncheck → check again
	seqs := [][]string{
		{"電気"},
		{},
		{"電気"},
		{"電気", "マイデコ"},
	}
	for _, keys := range seqs {
		_, err := ledger.SubmitDay("p1", "", testDate, keys, "")
		require.NoError(t, err)
	}

	state, err := ledger.StateFor("p1")
	require.NoError(t, err)
	// Total always reconciles to the value of the latest set.
	assert.Equal(t, 100, state.TotalPoints)
	assert.ElementsMatch(t, []string{"電気", "マイデコ"}, state.History[testDate])
}

func TestConservation(t *testing.T) {
	ledger, db := newTestLedger(t)

	submissions := []struct {
		date string
		keys []string
	}{
		{"6/1 (月)", []string{"電気", "食事"}},
		{"6/2 (火)", []string{"水"}},
		{"6/1 (月)", []string{"食事"}},
		{"6/3 (水)", []string{"電気", "食事", "水", "分別", "マイデコ"}},
		{"6/2 (火)", nil},
	}
	for _, sub := range submissions {
		_, err := ledger.SubmitDay("p1", "", sub.date, sub.keys, "")
		require.NoError(t, err)
	}

	var sum int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).
		Where("participant_id = ?", "p1").
		Select("COALESCE(SUM(point_delta), 0)").Scan(&sum).Error)

	state, err := ledger.StateFor("p1")
	require.NoError(t, err)
	assert.EqualValues(t, sum, state.TotalPoints)

	// And the total equals the point value of each date's latest set.
	assert.Equal(t, 100+0+310, state.TotalPoints)
}

func TestUnknownActionRejectedBeforeWrite(t *testing.T) {
	ledger, db := newTestLedger(t)

	_, err := ledger.SubmitDay("p1", "", testDate, []string{"nonexistent_key"}, "")
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Zero(t, countEntries(t, db, "p1"))

	state, err := ledger.StateFor("p1")
	require.NoError(t, err)
	assert.Zero(t, state.TotalPoints)
	assert.Empty(t, state.History)
}

func TestCertificationIsMonotonic(t *testing.T) {
	ledger, _ := newTestLedger(t)

	certified, err := ledger.IsCertified("p1")
	require.NoError(t, err)
	assert.False(t, certified)

	out, err := ledger.SubmitSurvey("p1", "たろう", models.SurveyAnswers{
		Q1: "5：パーフェクト達成！", Q2: "4：つづけたい", Feedback: "たのしかった",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SurveyPoints, out.Delta)

	certified, err = ledger.IsCertified("p1")
	require.NoError(t, err)
	assert.True(t, certified)

	// A later edit removing the sentinel from that date must not
	// revoke certification, even though it claws the points back.
	out, err = ledger.SubmitDay("p1", "たろう", models.SurveyDate, nil, "")
	require.NoError(t, err)
	assert.Equal(t, -models.SurveyPoints, out.Delta)

	certified, err = ledger.IsCertified("p1")
	require.NoError(t, err)
	assert.True(t, certified)

	state, err := ledger.StateFor("p1")
	require.NoError(t, err)
	assert.Zero(t, state.TotalPoints)
}

func TestSubmitSurveyIdempotent(t *testing.T) {
	ledger, db := newTestLedger(t)

	_, err := ledger.SubmitSurvey("p1", "", models.SurveyAnswers{Q1: "5"})
	require.NoError(t, err)

	out, err := ledger.SubmitSurvey("p1", "", models.SurveyAnswers{Q1: "3"})
	require.NoError(t, err)
	assert.False(t, out.Written)
	assert.EqualValues(t, 1, countEntries(t, db, "p1"))
}

func TestResolveDerivesStableIdentity(t *testing.T) {
	ledger, _ := newTestLedger(t)

	res, err := ledger.Resolve("倉敷小学校", "1年", "Ａ", 5, "たろう")
	require.NoError(t, err)
	// Full-width class letter folds to half-width.
	assert.Equal(t, "倉敷小学校_1年_A_5", res.ParticipantID)
	assert.Equal(t, "たろう", res.Nickname)

	_, err = ledger.SubmitDay(res.ParticipantID, res.Nickname, testDate, []string{"電気"}, "")
	require.NoError(t, err)

	// Same enrollment fields, new nickname: same identity, and the
	// previously saved nickname wins.
	res2, err := ledger.Resolve("倉敷小学校", "1年", "A", 5, "じろう")
	require.NoError(t, err)
	assert.Equal(t, res.ParticipantID, res2.ParticipantID)
	assert.Equal(t, "たろう", res2.Nickname)
	assert.Equal(t, 50, res2.State.TotalPoints)
}

func TestResolveUpsertsRoster(t *testing.T) {
	ledger, db := newTestLedger(t)

	res, err := ledger.Resolve("岡山小学校", "3年", "2", 12, "ももこ")
	require.NoError(t, err)

	var p models.Participant
	require.NoError(t, db.First(&p, "id = ?", res.ParticipantID).Error)
	assert.Equal(t, "岡山小学校", p.Group)
	assert.Equal(t, "ももこ", p.DisplayName)
}

func TestRecordDeclaration(t *testing.T) {
	ledger, db := newTestLedger(t)

	id, err := ledger.RecordDeclaration("ももたろう", "マイボトルを使います")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "VIS_"))

	var entry models.LedgerEntry
	require.NoError(t, db.First(&entry, "participant_id = ?", id).Error)
	assert.Equal(t, models.DeclarationActionKey, entry.ActionKeys)
	assert.Zero(t, entry.PointDelta)
	assert.Equal(t, "マイボトルを使います", entry.Memo)
	assert.Equal(t, models.VisitorDate, entry.TargetDate)

	// Visitors never enter the roster.
	var n int64
	require.NoError(t, db.Model(&models.Participant{}).Count(&n).Error)
	assert.Zero(t, n)
}
