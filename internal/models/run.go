package models

import "time"

// GenerationRun is one saved template
type GenerationRun struct {
	ID         string    `json:"id"`
	Pharmacy   string    `json:"pharmacy"`
	PharmacyID string    `json:"pharmacy_id"`
	Period     string    `json:"period"`
	SheetCount int       `json:"sheet_count"`
	MissingDEA []string  `json:"missing_dea"`
	OutputPath string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// RuleOverride is a stored AIG rule table document
type RuleOverride struct {
	ID        string    `json:"id"`
	Document  []byte    `json:"-"`
	RuleCount int       `json:"rule_count"`
	CreatedAt time.Time `json:"created_at"`
}
