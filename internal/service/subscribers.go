package service

import (
	"context"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/events"

	"github.com/rs/zerolog"
)

const notificationTimeout = 30 * time.Second

// SubscribeOrderNotifications sends the customer confirmation and the staff
// message whenever an order is created.
func SubscribeOrderNotifications(bus *events.EventBus, mailer domain.Mailer, notifier domain.StaffNotifier, logger *zerolog.Logger) {
	bus.Subscribe(events.EventOrderCreated, func(event *events.Event) error {
		p, err := events.DecodeOrder(event)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		if err := mailer.SendOrderConfirmation(ctx, &p.Order); err != nil {
			logger.Error().Err(err).Str("order_number", p.Order.OrderNumber).Msg("confirmation email failed")
			return err
		}
		return nil
	})

	bus.Subscribe(events.EventOrderCreated, func(event *events.Event) error {
		p, err := events.DecodeOrder(event)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		return notifier.NotifyOrder(ctx, &p.Order)
	})
}
