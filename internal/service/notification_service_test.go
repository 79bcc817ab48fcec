package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/sciclub-api/pkg/jobs"
	"github.com/noah-isme/sciclub-api/pkg/mailer"
)

type stubSender struct {
	mu       sync.Mutex
	messages []mailer.Message
	err      error
	done     chan struct{}
}

func (s *stubSender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	if s.done != nil {
		s.done <- struct{}{}
	}
	return nil
}

type stubRenderer struct{ err error }

func (r stubRenderer) Render(id string, data interface{}) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "<p>" + id + "</p>", nil
}

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *stubQueue) Enqueue(ctx context.Context, job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestNotificationSendRendersAndDelivers(t *testing.T) {
	sender := &stubSender{}
	metrics := NewMetricsService()
	svc := NewNotificationService(stubRenderer{}, sender, metrics, nil)

	err := svc.Send(context.Background(), Notification{To: "a@x.com", Subject: "Hi", Template: mailer.TemplateContactOTP})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "a@x.com", sender.messages[0].To)
	assert.Equal(t, "<p>contact_otp</p>", sender.messages[0].HTMLBody)
	assert.EqualValues(t, 1, metrics.Snapshot().NotificationsSent)
}

func TestNotificationSendFailures(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewNotificationService(stubRenderer{err: errors.New("bad template")}, &stubSender{}, metrics, nil)
	require.Error(t, svc.Send(context.Background(), Notification{To: "a@x.com"}))

	sender := &stubSender{err: errors.New("smtp down")}
	svc = NewNotificationService(stubRenderer{}, sender, metrics, nil)
	err := svc.Send(context.Background(), Notification{To: "a@x.com", Template: "x"})
	require.ErrorContains(t, err, "smtp down")
	assert.EqualValues(t, 2, metrics.Snapshot().NotificationsFailed)
}

func TestNotificationDispatchWithoutQueueSendsInline(t *testing.T) {
	sender := &stubSender{}
	svc := NewNotificationService(stubRenderer{}, sender, nil, nil)

	require.NoError(t, svc.Dispatch(context.Background(), Notification{To: "a@x.com", Template: "x"}))
	assert.Len(t, sender.messages, 1)
}

func TestNotificationDispatchEnqueuesRenderedMail(t *testing.T) {
	sender := &stubSender{}
	queue := &stubQueue{}
	svc := NewNotificationService(stubRenderer{}, sender, nil, nil)
	svc.AttachQueue(queue)

	require.NoError(t, svc.Dispatch(context.Background(), Notification{To: "a@x.com", Subject: "S", Template: "x"}))
	assert.Empty(t, sender.messages)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, mailJobType, queue.jobs[0].Type)
	assert.NotEmpty(t, queue.jobs[0].ID)

	require.NoError(t, svc.HandleJob(context.Background(), queue.jobs[0]))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "S", sender.messages[0].Subject)

	queue.err = jobs.ErrQueueClosed
	err := svc.Dispatch(context.Background(), Notification{To: "a@x.com", Template: "x"})
	require.ErrorIs(t, err, jobs.ErrQueueClosed)
}

func TestNotificationHandleJobDropsMalformedPayload(t *testing.T) {
	sender := &stubSender{}
	svc := NewNotificationService(stubRenderer{}, sender, nil, nil)

	require.NoError(t, svc.HandleJob(context.Background(), jobs.Job{ID: "j", Payload: "nonsense"}))
	assert.Empty(t, sender.messages)
}

func TestNotificationThroughWorkerQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	sender := &stubSender{done: make(chan struct{}, 1)}
	svc := NewNotificationService(stubRenderer{}, sender, nil, nil)
	queue := jobs.NewQueue("mail", svc.HandleJob, jobs.QueueConfig{Workers: 1, OnGiveUp: svc.GiveUp})
	queue.Start(context.Background())
	svc.AttachQueue(queue)

	require.NoError(t, svc.Dispatch(context.Background(), Notification{To: "a@x.com", Template: "x"}))
	select {
	case <-sender.done:
	case <-time.After(2 * time.Second):
		t.Fatal("mail not delivered")
	}
	queue.Stop()
}
