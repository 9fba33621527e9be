package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"guild-mirror/models"
)

// StatusManager keeps the summary of the latest sync run and writes it to a
// JSON file for operators.
type StatusManager struct {
	statusFile string
	mutex      sync.Mutex
	status     *models.SyncStatus
}

// NewStatusManager creates a status manager. An empty path disables Save.
func NewStatusManager(statusFile string) *StatusManager {
	return &StatusManager{statusFile: statusFile}
}

// Begin starts tracking a new run.
func (sm *StatusManager) Begin(runID string, startedAt time.Time) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	sm.status = &models.SyncStatus{
		RunID:     runID,
		StartedAt: startedAt.UTC(),
		Passes:    make(map[models.SyncKind]models.PassResult),
	}
}

// RecordPass stores the counters of one finished pass.
func (sm *StatusManager) RecordPass(result models.PassResult) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.status == nil {
		return
	}
	sm.status.Passes[result.Kind] = result
}

// Last returns a copy of the most recent run, if any.
func (sm *StatusManager) Last() (models.SyncStatus, bool) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.status == nil {
		return models.SyncStatus{}, false
	}
	out := *sm.status
	out.Passes = make(map[models.SyncKind]models.PassResult, len(sm.status.Passes))
	for k, v := range sm.status.Passes {
		out.Passes[k] = v
	}
	return out, true
}

// Save stamps the run as finished and commits it to the JSON file.
func (sm *StatusManager) Save(finishedAt time.Time) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.status == nil {
		return nil
	}
	sm.status.FinishedAt = finishedAt.UTC()
	if sm.statusFile == "" {
		return nil
	}

	dir := filepath.Dir(sm.statusFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(sm.status, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := os.WriteFile(sm.statusFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}
