package notify

import (
	"log"

	"letter-tracker/backend/internal/worker"

	"github.com/gofrs/uuid"
)

// Delivery is the external channel boundary. Sends are best-effort: a failed
// email or push never fails the workflow operation that triggered it.
type Delivery interface {
	SendEmail(userID uuid.UUID, subject, body string) error
	SendPush(userID uuid.UUID, title, body string) error
}

// QueueDelivery hands sends to the redis job queue so actual channel I/O
// happens outside the request that created the notification rows.
type QueueDelivery struct {
	queue *worker.JobQueue
}

func NewQueueDelivery(queue *worker.JobQueue) *QueueDelivery {
	return &QueueDelivery{queue: queue}
}

func (d *QueueDelivery) SendEmail(userID uuid.UUID, subject, body string) error {
	return d.queue.Enqueue("default", worker.JobTypeEmailDelivery, map[string]interface{}{
		"user_id": userID.String(),
		"subject": subject,
		"body":    body,
	})
}

func (d *QueueDelivery) SendPush(userID uuid.UUID, title, body string) error {
	return d.queue.Enqueue("default", worker.JobTypePushDelivery, map[string]interface{}{
		"user_id": userID.String(),
		"title":   title,
		"body":    body,
	})
}

// LogDelivery is used when no queue is configured and in tests.
type LogDelivery struct{}

func (LogDelivery) SendEmail(userID uuid.UUID, subject, body string) error {
	log.Printf("email to %s: %s", userID, subject)
	return nil
}

func (LogDelivery) SendPush(userID uuid.UUID, title, body string) error {
	log.Printf("push to %s: %s", userID, title)
	return nil
}
