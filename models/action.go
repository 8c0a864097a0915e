package models

import (
	"time"
)

// ActionDefinition: static catalog config (seeded into DB, loaded once at startup)
type ActionDefinition struct {
	Key       string    `gorm:"primaryKey;type:varchar(64)" json:"key"`
	Label     string    `gorm:"not null" json:"label"`
	Points    int       `gorm:"not null;default:0;check:points >= 0" json:"points"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Sentinel / bookkeeping action keys
const (
	SurveyActionKey      = "環境の日アンケート" // one-time mission, certifies the eco hero
	DeclarationActionKey = "デコ活宣言"          // visitor booth declaration, zero points
	LotteryDoneActionKey = "ガラポン済"          // lottery desk marker, zero points
)

// Campaign constants
const (
	GoalPoints        = 500  // grams of CO2 to qualify for the lottery
	MaxPossiblePoints = 1340 // every action every day + survey
	SurveyPoints      = 100
)

// Date labels the campaign runs on. Historical rows carry these labels
// verbatim, so they are data, not formatting.
var (
	ChallengeDates = []string{"6/1 (月)", "6/2 (火)", "6/3 (水)", "6/4 (木)"}
	SurveyDate     = "6/5 (金)"
	VisitorDate    = "一般来場"
	LotteryDate    = "会場受付"
)

// DefaultCatalog is the seed set for the action_catalog table.
var DefaultCatalog = []ActionDefinition{
	{Key: "電気", Label: "① 💡 電気を消した", Points: 50},
	{Key: "食事", Label: "② 🍚 残さず食べた", Points: 100},
	{Key: "水", Label: "③ 🚰 水を止めた", Points: 30},
	{Key: "分別", Label: "④ ♻️ 正しく分けた", Points: 80},
	{Key: "マイデコ", Label: "⑤ 🍴 マイ・デコ活", Points: 50},
	{Key: SurveyActionKey, Label: "🌿 環境の日 スペシャルミッション", Points: SurveyPoints},
	{Key: DeclarationActionKey, Label: "🌿 デコ活宣言（一般来場）", Points: 0},
	{Key: LotteryDoneActionKey, Label: "🎰 ガラポン抽選 実施済み", Points: 0},
}
