package services

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers out-of-band messages. Callers treat failures as non-fatal.
type Notifier interface {
	SendOTP(ctx context.Context, phone, code string) error
	NotifyNewOrder(ctx context.Context, order OrderNotification) error
}

// NotificationService routes OTP codes to SMS and order alerts to Telegram,
// falling back to the log for whichever channel is not configured.
type NotificationService struct {
	sms      *SMSService
	telegram *TelegramService
	log      *zap.Logger
}

func NewNotificationService(sms *SMSService, telegram *TelegramService, log *zap.Logger) *NotificationService {
	return &NotificationService{sms: sms, telegram: telegram, log: log.Named("notifier")}
}

func (n *NotificationService) SendOTP(ctx context.Context, phone, code string) error {
	text := "Your OTP is " + code
	if n.sms == nil || !n.sms.Configured() {
		n.log.Info("otp sent", zap.String("phone", phone), zap.String("code", code))
		return nil
	}
	return n.sms.Send(ctx, phone, text)
}

func (n *NotificationService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	if n.telegram == nil || !n.telegram.Configured() {
		n.log.Info("new order",
			zap.String("number", order.OrderNumber),
			zap.String("phone", order.UserPhone),
			zap.String("total", order.Total.StringFixed(2)),
		)
		return nil
	}
	return n.telegram.NotifyNewOrder(ctx, order)
}
