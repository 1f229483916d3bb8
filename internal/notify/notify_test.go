package notify

import (
	"context"
	"errors"
	"sync"
)

type sentMessage struct {
	Channel string
	To      string
	Subject string
	Body    string
}

// recordingSender captures deliveries and can be told to fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (r *recordingSender) SendEmail(ctx context.Context, to, subject, body string) error {
	return r.record(sentMessage{Channel: "email", To: to, Subject: subject, Body: body})
}

func (r *recordingSender) SendSMS(ctx context.Context, to, body string) error {
	return r.record(sentMessage{Channel: "sms", To: to, Body: body})
}

func (r *recordingSender) record(m sentMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func (r *recordingSender) messages() []sentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMessage(nil), r.sent...)
}

var errDeliveryFailed = errors.New("delivery failed")
