package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/services"
	"github.com/SanyCska/serials-bot/internal/textutil"
)

// Event is a single new-season announcement addressed to one chat. EventID
// identifies the delivery attempt in logs so retries and duplicates can be
// traced.
type Event struct {
	EventID      uuid.UUID
	ChatID       int64
	SeriesName   string
	SeasonNumber int
	AirDate      string
}

// EpisodeEvent is a single new-episode announcement addressed to one chat.
type EpisodeEvent struct {
	EventID       uuid.UUID
	ChatID        int64
	SeriesName    string
	SeasonNumber  int
	EpisodeNumber int
	EpisodeName   string
	AirDate       string
}

// Notifier delivers season and episode announcements to chat users.
type Notifier interface {
	NotifyNewSeason(ctx context.Context, event Event) error
	NotifyNewEpisode(ctx context.Context, event EpisodeEvent) error
	TestNotification(ctx context.Context, chatID int64) error
}

// Sender is the outbound message surface of the Telegram API client.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewService builds a Telegram-backed notifier. When no sender is available
// (for example the bot token is not configured) a noop implementation is
// returned so the reconciler keeps working without deliveries.
func NewService(sender Sender, logger *slog.Logger) Notifier {
	if sender == nil {
		return noopNotifier{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &telegramNotifier{
		sender: sender,
		logger: logger.With(logging.String(logging.FieldComponent, "notify")),
	}
}

type telegramNotifier struct {
	sender Sender
	logger *slog.Logger
}

func (t *telegramNotifier) NotifyNewSeason(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "new_season", "context cancelled", err)
	}
	name := strings.TrimSpace(event.SeriesName)
	if name == "" || event.SeasonNumber < 1 || event.ChatID == 0 {
		return services.Wrap(services.ErrValidation, "notify", "new_season", "event missing series name, season, or chat", nil)
	}

	text := fmt.Sprintf("🎬 New season alert! 🎬\n\n*%s* Season %d is now available!", textutil.EscapeMarkdown(name), event.SeasonNumber)
	if event.AirDate != "" {
		text += fmt.Sprintf("\nPremiered %s.", event.AirDate)
	}

	msg := tgbotapi.NewMessage(event.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.sender.Send(msg); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "new_season", "send season alert", err)
	}
	t.logger.Info("season alert delivered",
		logging.String("event_id", event.EventID.String()),
		logging.String(logging.FieldEventType, "season"),
		logging.Int64(logging.FieldChatID, event.ChatID),
		logging.String("series", name),
		logging.Int("season", event.SeasonNumber))
	return nil
}

func (t *telegramNotifier) NotifyNewEpisode(ctx context.Context, event EpisodeEvent) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "new_episode", "context cancelled", err)
	}
	name := strings.TrimSpace(event.SeriesName)
	if name == "" || event.SeasonNumber < 1 || event.EpisodeNumber < 1 || event.ChatID == 0 {
		return services.Wrap(services.ErrValidation, "notify", "new_episode", "event missing series name, episode, or chat", nil)
	}

	text := fmt.Sprintf("📺 New episode alert! 📺\n\n*%s* S%dE%d", textutil.EscapeMarkdown(name), event.SeasonNumber, event.EpisodeNumber)
	if title := strings.TrimSpace(event.EpisodeName); title != "" {
		text += fmt.Sprintf(" \"%s\"", textutil.EscapeMarkdown(title))
	}
	text += " is now available!"
	if event.AirDate != "" {
		text += fmt.Sprintf("\nPremiered %s.", event.AirDate)
	}

	msg := tgbotapi.NewMessage(event.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.sender.Send(msg); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "new_episode", "send episode alert", err)
	}
	t.logger.Info("episode alert delivered",
		logging.String("event_id", event.EventID.String()),
		logging.String(logging.FieldEventType, "episode"),
		logging.Int64(logging.FieldChatID, event.ChatID),
		logging.String("series", name),
		logging.Int("season", event.SeasonNumber),
		logging.Int("episode", event.EpisodeNumber))
	return nil
}

func (t *telegramNotifier) TestNotification(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "test", "context cancelled", err)
	}
	if chatID == 0 {
		return services.Wrap(services.ErrValidation, "notify", "test", "chat id required", nil)
	}
	msg := tgbotapi.NewMessage(chatID, "Test notification: the season alert pipeline is working.")
	if _, err := t.sender.Send(msg); err != nil {
		return services.Wrap(services.ErrDelivery, "notify", "test", "send test message", err)
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) NotifyNewSeason(ctx context.Context, event Event) error { return nil }

func (noopNotifier) NotifyNewEpisode(ctx context.Context, event EpisodeEvent) error { return nil }

func (noopNotifier) TestNotification(ctx context.Context, chatID int64) error { return nil }

// ParseChatID converts a stored chat identifier into the numeric form the
// Telegram API expects.
func ParseChatID(telegramID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(telegramID), 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "notify", "parse_chat_id", fmt.Sprintf("invalid chat id %q", telegramID), err)
	}
	return id, nil
}
