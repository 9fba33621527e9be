package database

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"guild-mirror/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusManager_SaveWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status", "sync.json")
	sm := NewStatusManager(path)

	sm.Begin("run-1", syncTime)
	sm.RecordPass(models.PassResult{Kind: models.KindGuild, Added: 2})
	sm.RecordPass(models.PassResult{Kind: models.KindMember, Updated: 3, Failed: 1})
	require.NoError(t, sm.Save(syncTime.Add(time.Minute)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got models.SyncStatus
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 2, got.Passes[models.KindGuild].Added)
	assert.Equal(t, 1, got.Passes[models.KindMember].Failed)
	assert.True(t, got.FinishedAt.Equal(syncTime.Add(time.Minute)))
}

func TestStatusManager_NoRunAndNoFile(t *testing.T) {
	sm := NewStatusManager("")
	_, ok := sm.Last()
	assert.False(t, ok)
	assert.NoError(t, sm.Save(syncTime))

	sm.Begin("run-2", syncTime)
	require.NoError(t, sm.Save(syncTime))
	last, ok := sm.Last()
	require.True(t, ok)
	assert.Equal(t, "run-2", last.RunID)
}
