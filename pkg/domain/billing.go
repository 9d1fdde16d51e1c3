package domain

import "time"

// BillingSummary is the account-level billing snapshot shown on the
// billing screen.
type BillingSummary struct {
	Plan           string    `json:"plan"`
	ActiveTrackers int       `json:"activeTrackers"`
	AmountDueCents int64     `json:"amountDueCents"`
	PeriodEnd      time.Time `json:"periodEnd"`
}
