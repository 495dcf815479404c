package service

import (
	"context"
	"errors"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/metrics"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
)

// ReminderResult summarizes one sweep.
type ReminderResult struct {
	Date   string `json:"date"`
	Due    int    `json:"due"`
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
	// Skipped counts orders left pending because mail delivery is disabled.
	Skipped int `json:"skipped"`
}

type ReminderService struct {
	orders   domain.OrderRepository
	mailer   domain.Mailer
	rules    BookingRules
	leadDays int
	logger   *zerolog.Logger
}

func NewReminderService(orders domain.OrderRepository, mailer domain.Mailer, rules BookingRules, leadDays int, logger *zerolog.Logger) *ReminderService {
	if leadDays <= 0 {
		leadDays = models.DefaultReminderLeadDays
	}
	return &ReminderService{orders: orders, mailer: mailer, rules: rules, leadDays: leadDays, logger: logger}
}

// SendDueReminders emails every confirmed order whose reservation is leadDays
// after today and was not reminded yet. Orders are processed one by one; a
// failed send is logged and counted and the sweep moves on.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (*ReminderResult, error) {
	target := s.rules.Today(now).AddDate(0, 0, s.leadDays).Format(models.DateLayout)

	orders, err := s.orders.ListOrdersDueForReminder(ctx, target)
	if err != nil {
		return nil, err
	}

	res := &ReminderResult{Date: target, Due: len(orders)}
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Err(err).Int("remaining", res.Due-res.Sent-res.Failed-res.Skipped).Msg("reminder sweep interrupted")
			return res, err
		}

		if err := s.mailer.SendReminder(ctx, o); err != nil {
			if errors.Is(err, domain.ErrMailDisabled) {
				res.Skipped++
				metrics.IncReminder("skipped")
				continue
			}
			res.Failed++
			metrics.IncReminder("failed")
			s.logger.Error().Err(err).Str("order_number", o.OrderNumber).Msg("reminder: send error")
			continue
		}
		res.Sent++
		metrics.IncReminder("sent")

		if err := s.orders.MarkReminderSent(ctx, o.ID, now); err != nil {
			s.logger.Error().Err(err).Str("order_number", o.OrderNumber).Msg("reminder: mark sent error")
		}
	}

	s.logger.Info().
		Str("date", target).
		Int("due", res.Due).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("reminder sweep finished")
	return res, nil
}
