package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/admission-service/internal/events"
)

// EventForwarder republishes events outside the process.
type EventForwarder interface {
	Attach(d events.Dispatcher)
}

// NotificationService records credential activity and forwards events to
// downstream consumers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	forwarder  EventForwarder
}

// NewNotificationService creates the service. forwarder may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, forwarder EventForwarder) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		forwarder:  forwarder,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCredentialIssued, n.handleCredentialIssued)
	n.dispatcher.Subscribe(events.EventCredentialStatusChanged, n.handleCredentialStatusChanged)
	n.dispatcher.Subscribe(events.EventCredentialVerified, n.handleCredentialVerified)
	if n.forwarder != nil {
		n.forwarder.Attach(n.dispatcher)
	}
}

func (n *NotificationService) handleCredentialIssued(_ context.Context, event events.Event) error {
	n.logger.Info("CredentialIssued",
		zap.String("credential_id", event.CredentialID),
		zap.String("owner_id", event.Actor.SubjectID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCredentialStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("CredentialStatusChanged",
		zap.String("credential_id", event.CredentialID),
		zap.String("actor_type", string(event.Actor.Type)),
		zap.String("actor_id", event.Actor.SubjectID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCredentialVerified(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CredentialVerifiedPayload)
	if !ok {
		return nil
	}
	n.logger.Debug("CredentialVerified",
		zap.String("credential_id", event.CredentialID),
		zap.Bool("valid", payload.Valid),
		zap.String("reason", payload.Reason))
	return nil
}
