package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailPayloadRoundTrip(t *testing.T) {
	payload := SendEmailJobPayload{
		To:      "lea@example.com",
		Subject: "Votre paiement est confirmé",
		Body:    "<p>Merci</p>",
	}

	decoded, err := SendEmailJobPayloadFromMap(payload.ToMap())
	require.NoError(t, err)
	assert.Equal(t, payload, *decoded)
}

func TestJobLifecycleTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeSendEmail,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)

	job.MarkAsFailed("smtp timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("smtp timeout")
	job.MarkAsFailed("smtp timeout")
	assert.False(t, job.IsRetryable(), "job at max retries must not retry again")

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMsg)
	require.NotNil(t, job.CompletedAt)
}
