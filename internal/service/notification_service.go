package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sciclub-api/pkg/jobs"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
	"github.com/noah-isme/sciclub-api/pkg/middleware/requestid"
)

// Notification is a templated email addressed to a single recipient.
type Notification struct {
	To       string
	Subject  string
	Template string
	Data     map[string]interface{}
}

type mailRenderer interface {
	Render(id string, data interface{}) (string, error)
}

type mailQueue interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

const mailJobType = "mail"

type mailJob struct {
	Template  string
	Message   mailer.Message
	RequestID string
}

// NotificationService renders club emails and hands them to a transport.
type NotificationService struct {
	renderer mailRenderer
	sender   mailer.Sender
	queue    mailQueue
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(renderer mailRenderer, sender mailer.Sender, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{renderer: renderer, sender: sender, metrics: metrics, logger: logger}
}

// AttachQueue routes Dispatch through an asynchronous queue.
func (s *NotificationService) AttachQueue(queue mailQueue) {
	s.queue = queue
}

// Send renders and delivers the notification before returning.
func (s *NotificationService) Send(ctx context.Context, n Notification) error {
	msg, err := s.render(n)
	if err != nil {
		s.metrics.RecordNotification(n.Template, OutcomeFailure)
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification(n.Template, OutcomeFailure)
		return fmt.Errorf("send %s to %s: %w", n.Template, n.To, err)
	}
	s.metrics.RecordNotification(n.Template, OutcomeSuccess)
	return nil
}

// Dispatch renders the notification and queues it for delivery. Without a
// queue it sends synchronously.
func (s *NotificationService) Dispatch(ctx context.Context, n Notification) error {
	if s.queue == nil {
		return s.Send(ctx, n)
	}
	msg, err := s.render(n)
	if err != nil {
		s.metrics.RecordNotification(n.Template, OutcomeFailure)
		return err
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    mailJobType,
		Payload: mailJob{Template: n.Template, Message: msg, RequestID: requestid.FromContext(ctx)},
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.metrics.RecordNotification(n.Template, OutcomeFailure)
		return fmt.Errorf("queue %s: %w", n.Template, err)
	}
	s.metrics.RecordNotification(n.Template, OutcomeQueued)
	return nil
}

// HandleJob delivers a queued mail job.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(mailJob)
	if !ok {
		s.logger.Error("dropping malformed mail job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := s.sender.Send(ctx, payload.Message); err != nil {
		return err
	}
	s.metrics.RecordNotification(payload.Template, OutcomeSuccess)
	return nil
}

// GiveUp records a queued mail job that exhausted its retries.
func (s *NotificationService) GiveUp(job jobs.Job, err error) {
	payload, _ := job.Payload.(mailJob)
	s.metrics.RecordNotification(payload.Template, OutcomeFailure)
	s.logger.Warn("notification dropped after retries",
		zap.String("job_id", job.ID),
		zap.String("template", payload.Template),
		zap.String("to", payload.Message.To),
		zap.String("request_id", payload.RequestID),
		zap.Int("attempts", job.Attempt),
		zap.Error(err))
}

func (s *NotificationService) render(n Notification) (mailer.Message, error) {
	body, err := s.renderer.Render(n.Template, n.Data)
	if err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{To: n.To, Subject: n.Subject, HTMLBody: body}, nil
}
