package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier posts new orders to the staff chats.
type TelegramNotifier struct {
	bot     domain.TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

// NewTelegramBot connects to the Bot API with the configured token.
func NewTelegramBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

func NewTelegramNotifier(bot domain.TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}
}

// NotifyOrder sends the summary to every staff chat. It keeps going when a
// chat fails and returns the joined errors.
func (n *TelegramNotifier) NotifyOrder(ctx context.Context, o *models.OrderWithCustomer) error {
	text := FormatOrderMessage(o)

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("order_number", o.OrderNumber).Msg("staff notification failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatOrderMessage renders the plain-text staff summary of an order.
func FormatOrderMessage(o *models.OrderWithCustomer) string {
	var sb strings.Builder
	if o.Status == models.StatusConflict {
		sb.WriteString("⚠️ CONFLICTO: fecha ya reservada, contactar al cliente\n")
	} else {
		sb.WriteString("🆕 Nueva reservación\n")
	}
	fmt.Fprintf(&sb, "Orden: %s\n", o.OrderNumber)
	fmt.Fprintf(&sb, "Lugar: %s\n", o.LocationName)
	fmt.Fprintf(&sb, "Fecha: %s\n", o.ReservationDate)
	fmt.Fprintf(&sb, "Cliente: %s <%s>", o.CustomerName, o.CustomerEmail)
	if o.CustomerPhone != "" {
		fmt.Fprintf(&sb, " %s", o.CustomerPhone)
	}
	sb.WriteString("\n")
	for _, it := range o.Items {
		fmt.Fprintf(&sb, "• %s x%d\n", it.Name, it.Quantity)
	}
	fmt.Fprintf(&sb, "Total: %s\n", pricing.FormatCurrency(o.Total, o.Currency))
	fmt.Fprintf(&sb, "Pagado: %s", pricing.FormatCurrency(o.AmountPaid, o.Currency))
	if o.AmountPending > 0 {
		fmt.Fprintf(&sb, "\nPendiente: %s", pricing.FormatCurrency(o.AmountPending, o.Currency))
	}
	return sb.String()
}

// NopNotifier is used when no bot token is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyOrder(context.Context, *models.OrderWithCustomer) error { return nil }
