package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CoachingSession struct {
	SessionID        uint64          `json:"session_id"`
	Client           string          `json:"client"`
	Coach            string          `json:"coach"`
	Amount           decimal.Decimal `json:"amount"`
	ScheduledTime    uint64          `json:"scheduled_time"`
	Attended         bool            `json:"attended"`
	AttendanceMarked bool            `json:"attendance_marked"`
	Completed        bool            `json:"completed"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ClientStats struct {
	Client           string `json:"client"`
	TotalSessions    uint64 `json:"total_sessions"`
	AttendedSessions uint64 `json:"attended_sessions"`
	MissedSessions   uint64 `json:"missed_sessions"`
	AtRisk           bool   `json:"at_risk"`
}

// EscrowConfig is the per-deployment singleton written once by Initialize.
type EscrowConfig struct {
	PaymentAsset   string    `json:"payment_asset"`
	SessionCounter uint64    `json:"session_counter"`
	InitializedAt  time.Time `json:"initialized_at"`
}

type Balance struct {
	Asset   string          `json:"asset"`
	Holder  string          `json:"holder"`
	Balance decimal.Decimal `json:"balance"`
}
