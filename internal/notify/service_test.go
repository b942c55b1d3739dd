package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/SanyCska/serials-bot/internal/notify"
	"github.com/SanyCska/serials-bot/internal/services"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (r *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		r.sent = append(r.sent, msg)
	}
	return tgbotapi.Message{}, r.err
}

func TestNotifyNewSeasonMessageShape(t *testing.T) {
	sender := &recordingSender{}
	notifier := notify.NewService(sender, nil)

	event := notify.Event{
		EventID:      uuid.New(),
		ChatID:       777,
		SeriesName:   "Severance",
		SeasonNumber: 2,
	}
	if err := notifier.NotifyNewSeason(context.Background(), event); err != nil {
		t.Fatalf("NotifyNewSeason() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 777 {
		t.Errorf("ChatID = %d, want 777", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("ParseMode = %q, want markdown", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "New season alert") {
		t.Errorf("message missing alert header: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "*Severance* Season 2") {
		t.Errorf("message missing series line: %q", msg.Text)
	}
}

func TestNotifyNewSeasonEscapesMarkdown(t *testing.T) {
	sender := &recordingSender{}
	notifier := notify.NewService(sender, nil)

	event := notify.Event{
		EventID:      uuid.New(),
		ChatID:       1,
		SeriesName:   "M*A*S*H",
		SeasonNumber: 11,
	}
	if err := notifier.NotifyNewSeason(context.Background(), event); err != nil {
		t.Fatalf("NotifyNewSeason() error = %v", err)
	}
	if !strings.Contains(sender.sent[0].Text, `M\*A\*S\*H`) {
		t.Errorf("asterisks not escaped: %q", sender.sent[0].Text)
	}
}

func TestNotifyNewEpisodeMessageShape(t *testing.T) {
	sender := &recordingSender{}
	notifier := notify.NewService(sender, nil)

	event := notify.EpisodeEvent{
		EventID:       uuid.New(),
		ChatID:        777,
		SeriesName:    "Severance",
		SeasonNumber:  2,
		EpisodeNumber: 5,
		EpisodeName:   "Trojan's Horse",
		AirDate:       "2025-02-14",
	}
	if err := notifier.NotifyNewEpisode(context.Background(), event); err != nil {
		t.Fatalf("NotifyNewEpisode() error = %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 777 {
		t.Errorf("ChatID = %d, want 777", msg.ChatID)
	}
	if msg.ParseMode != tgbotapi.ModeMarkdown {
		t.Errorf("ParseMode = %q, want markdown", msg.ParseMode)
	}
	if !strings.Contains(msg.Text, "New episode alert") {
		t.Errorf("message missing alert header: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, `*Severance* S2E5 "Trojan's Horse"`) {
		t.Errorf("message missing episode line: %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "2025-02-14") {
		t.Errorf("message missing air date: %q", msg.Text)
	}
}

func TestNotifyNewEpisodeValidation(t *testing.T) {
	notifier := notify.NewService(&recordingSender{}, nil)

	err := notifier.NotifyNewEpisode(context.Background(), notify.EpisodeEvent{ChatID: 5, SeriesName: "Dark", SeasonNumber: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing episode number error = %v, want ErrValidation", err)
	}
}

func TestNotifyNewSeasonValidation(t *testing.T) {
	notifier := notify.NewService(&recordingSender{}, nil)

	err := notifier.NotifyNewSeason(context.Background(), notify.Event{ChatID: 5, SeasonNumber: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing name error = %v, want ErrValidation", err)
	}
}

func TestNotifyNewSeasonDeliveryFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram: bot was blocked by the user")}
	notifier := notify.NewService(sender, nil)

	event := notify.Event{EventID: uuid.New(), ChatID: 9, SeriesName: "Dark", SeasonNumber: 3}
	err := notifier.NotifyNewSeason(context.Background(), event)
	if !errors.Is(err, services.ErrDelivery) {
		t.Errorf("send failure error = %v, want ErrDelivery", err)
	}
}

func TestNoopNotifierWithoutSender(t *testing.T) {
	notifier := notify.NewService(nil, nil)
	if err := notifier.NotifyNewSeason(context.Background(), notify.Event{}); err != nil {
		t.Errorf("noop NotifyNewSeason() error = %v", err)
	}
	if err := notifier.NotifyNewEpisode(context.Background(), notify.EpisodeEvent{}); err != nil {
		t.Errorf("noop NotifyNewEpisode() error = %v", err)
	}
	if err := notifier.TestNotification(context.Background(), 0); err != nil {
		t.Errorf("noop TestNotification() error = %v", err)
	}
}

func TestParseChatID(t *testing.T) {
	id, err := notify.ParseChatID(" 12345 ")
	if err != nil || id != 12345 {
		t.Fatalf("ParseChatID() = %d, %v; want 12345, nil", id, err)
	}
	if _, err := notify.ParseChatID("not-a-number"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("ParseChatID(garbage) error = %v, want ErrValidation", err)
	}
}
