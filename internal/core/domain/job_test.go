package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStateTerminal(t *testing.T) {
	assert.True(t, JobDone.Terminal())
	assert.True(t, JobSkipped.Terminal())
	assert.True(t, JobFailed.Terminal())

	assert.False(t, JobDiscovered.Terminal())
	assert.False(t, JobExtracting.Terminal())
	assert.False(t, JobUploading.Terminal())
	assert.False(t, JobIndexWait.Terminal())
	assert.False(t, JobPredicting.Terminal())
}

func TestUploadJobFailRecordsStage(t *testing.T) {
	job := &UploadJob{State: JobIndexWait}
	job.Fail(&IndexTimeoutError{Attempts: 5})

	assert.Equal(t, JobFailed, job.State)
	assert.Equal(t, JobIndexWait, job.FailedStage)
	assert.Contains(t, job.Reason, "5 attempts")
	assert.False(t, job.FinishedAt.IsZero())
}

func TestStoreStatusReady(t *testing.T) {
	assert.True(t, StoreStatusEmpty.Ready())
	assert.True(t, StoreStatusSync.Ready())

	assert.False(t, StoreStatusSyncing.Ready())
	assert.False(t, StoreStatusUpserting.Ready())
	assert.False(t, StoreStatusStale.Ready())
}

func TestSyncSettingsValidate(t *testing.T) {
	settings := DefaultSyncSettings()
	settings.StoreName = "inbox"
	settings.LoaderID = "loader-1"
	settings.ChatflowID = "flow-1"
	assert.NoError(t, settings.Validate())

	missing := DefaultSyncSettings()
	err := missing.Validate()
	var cerr *ConfigurationError
	assert.ErrorAs(t, err, &cerr)
	assert.Equal(t, "store", cerr.Field)
}
