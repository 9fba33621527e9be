package models

import "time"

// PassResult counts what one reconciliation pass did.
type PassResult struct {
	Kind    SyncKind `json:"kind"`
	Added   int      `json:"added"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
}

// SyncStatus describes the most recent sync run.
type SyncStatus struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Passes     map[SyncKind]PassResult `json:"passes"`
}
