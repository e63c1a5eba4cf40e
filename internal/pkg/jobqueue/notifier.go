package jobqueue

// QueueNotifier enqueues outbound emails instead of sending them inline.
// It satisfies the billing service's notifier contract.
type QueueNotifier struct {
	queue *Queue
}

// NewQueueNotifier creates a notifier backed by the given queue
func NewQueueNotifier(queue *Queue) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (n *QueueNotifier) Send(to, subject, body string) error {
	payload := SendEmailJobPayload{To: to, Subject: subject, Body: body}
	_, err := n.queue.EnqueueJob(JobTypeSendEmail, payload.ToMap())
	return err
}
