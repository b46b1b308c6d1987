package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"turfbook/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Notifier pushes booking activity to the owner's Telegram chats so new
// requests get approved quickly.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

func NewNotifier(token string, chatIDs []int64, logger *zerolog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")

	return &Notifier{
		bot:     bot,
		chatIDs: chatIDs,
		// Telegram allows ~30 messages/second overall; stay well under.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  logger,
	}, nil
}

// SubscribeTo wires the notifier to booking lifecycle events.
func (n *Notifier) SubscribeTo(bus *events.Bus) {
	for _, t := range []string{
		events.TypeBookingCreated,
		events.TypeBookingConfirmed,
		events.TypeBookingRejected,
	} {
		bus.Subscribe(t, n.handleEvent)
	}
}

func (n *Notifier) handleEvent(event events.Event) error {
	var payload events.BookingPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		n.logger.Warn().Err(err).Str("event", event.Type).Msg("undecodable booking event")
		return err
	}
	n.broadcast(formatBookingMessage(event.Type, payload))
	return nil
}

func (n *Notifier) broadcast(text string) {
	for _, chatID := range n.chatIDs {
		if err := n.limiter.Wait(context.Background()); err != nil {
			return
		}
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		}
	}
}

func formatBookingMessage(eventType string, p events.BookingPayload) string {
	switch eventType {
	case events.TypeBookingCreated:
		return fmt.Sprintf(
			"🏏 New booking request\n%s %s\n%s (%s)\n₹%.0f\nAwaiting approval.",
			p.Date, p.SlotID, p.Name, p.Phone, p.Amount,
		)
	case events.TypeBookingConfirmed:
		return fmt.Sprintf(
			"✅ Booking confirmed\n%s %s\n%s (%s)",
			p.Date, p.SlotID, p.Name, p.Phone,
		)
	case events.TypeBookingRejected:
		return fmt.Sprintf(
			"❌ Booking rejected\n%s %s\n%s (%s)",
			p.Date, p.SlotID, p.Name, p.Phone,
		)
	default:
		return fmt.Sprintf("Booking %s is now %s", p.BookingID, p.Status)
	}
}
