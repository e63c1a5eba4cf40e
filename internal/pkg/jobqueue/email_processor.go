package jobqueue

import (
	"context"
	"fmt"

	"github.com/foliotap/foliotap/internal/pkg/mail"
	"github.com/foliotap/foliotap/internal/pkg/statistics"
)

// processSendEmailJob delivers one outbound email via SMTP
func (q *Queue) processSendEmailJob(job *Job) error {
	payload, err := SendEmailJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid email payload: %w", err)
	}

	if payload.To == "" {
		return fmt.Errorf("email payload missing recipient")
	}

	return mail.SendMail(payload.To, payload.Subject, payload.Body)
}

// processRevenueSnapshotJob recomputes the cached billing aggregates
func (q *Queue) processRevenueSnapshotJob(_ context.Context) error {
	return statistics.UpdateRevenueSnapshot()
}
