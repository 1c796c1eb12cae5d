package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/loyalty-service/internal/config"
	"github.com/spec-kit/loyalty-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVisitConfirmed, n.handleVisitConfirmed)
	n.dispatcher.Subscribe(events.EventPromoRedeemed, n.handlePromoRedeemed)
	n.dispatcher.Subscribe(events.EventReferralValidated, n.handleReferralValidated)
	n.dispatcher.Subscribe(events.EventStaffCheckPassed, n.handleStaffCheckPassed)
}

func (n *NotificationService) handleVisitConfirmed(ctx context.Context, event events.Event) error {
	n.logger.Info("VisitConfirmed", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePromoRedeemed(ctx context.Context, event events.Event) error {
	n.logger.Info("PromoRedeemed", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReferralValidated(ctx context.Context, event events.Event) error {
	n.logger.Info("ReferralValidated", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStaffCheckPassed(ctx context.Context, event events.Event) error {
	n.logger.Info("StaffCheckPassed", zap.String("member_id", event.MemberID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("member_id", event.MemberID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("member_id", event.MemberID),
		zap.String("event_type", string(event.Type)))
}
