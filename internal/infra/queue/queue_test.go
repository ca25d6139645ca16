package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyInquiry(ctx context.Context, payload InquiryCreatedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockAcknowledger struct {
	mock.Mock
}

func (m *MockAcknowledger) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *MockAcknowledger) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

func samplePayload() InquiryCreatedPayload {
	return InquiryCreatedPayload{
		InquiryID: "inq-1",
		FirstName: "Nimal",
		LastName:  "Silva",
		Email:     "nimal@example.com",
		Message:   "Need checks",
		CreatedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishInquiryCreated(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, ExchangeName, RoutingKey, false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got InquiryCreatedPayload
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.MessageId == "inq-1" &&
				msg.DeliveryMode == amqp.Persistent &&
				msg.ContentType == "application/json" &&
				got.Email == "nimal@example.com"
		})).Return(nil)

	require.NoError(t, NewProducer(pub).PublishInquiryCreated(context.Background(), samplePayload()))
	pub.AssertExpectations(t)
}

func TestPublishInquiryCreatedWrapsError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(amqp.ErrClosed)

	err := NewProducer(pub).PublishInquiryCreated(context.Background(), samplePayload())

	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.Contains(t, err.Error(), "publish to rabbitmq")
}

func TestPayloadOmitsEmptyOptionalFields(t *testing.T) {
	body, err := json.Marshal(samplePayload())
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal(body, &data))
	assert.NotContains(t, data, "phone")
	assert.NotContains(t, data, "source_url")
	assert.Equal(t, "inq-1", data["inquiry_id"])
}

func TestWorkerAcksDeliveredNotification(t *testing.T) {
	notifier := new(MockNotifier)
	ack := new(MockAcknowledger)
	notifier.On("NotifyInquiry", mock.Anything, samplePayload()).Return(nil)
	ack.On("Ack", false).Return(nil)

	body, _ := json.Marshal(samplePayload())
	NewWorker(nil, notifier, nil).Handle(context.Background(), body, ack)

	notifier.AssertExpectations(t)
	ack.AssertExpectations(t)
}

func TestWorkerDeadLettersFailedNotification(t *testing.T) {
	notifier := new(MockNotifier)
	ack := new(MockAcknowledger)
	notifier.On("NotifyInquiry", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	ack.On("Nack", false, false).Return(nil)

	body, _ := json.Marshal(samplePayload())
	NewWorker(nil, notifier, nil).Handle(context.Background(), body, ack)

	ack.AssertExpectations(t)
	ack.AssertNotCalled(t, "Ack", mock.Anything)
}

func TestWorkerDeadLettersMalformedMessage(t *testing.T) {
	notifier := new(MockNotifier)
	ack := new(MockAcknowledger)
	ack.On("Nack", false, false).Return(nil)

	NewWorker(nil, notifier, nil).Handle(context.Background(), []byte("{not json"), ack)

	notifier.AssertNotCalled(t, "NotifyInquiry", mock.Anything, mock.Anything)
	ack.AssertExpectations(t)
}
