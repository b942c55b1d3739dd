package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/services"
	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/textutil"
)

const helpText = "Here's what I can do:\n\n" +
	"*Tracking series you're watching*\n" +
	"/add - Track a new series and record your progress\n" +
	"/list - Show everything you're watching\n" +
	"/update - Update your season and episode\n" +
	"/remove - Stop tracking a series\n\n" +
	"*Watchlist*\n" +
	"/addwatch - Save a series to watch later\n" +
	"/watchlist - Show your watchlist\n\n" +
	"*Watched*\n" +
	"/addwatched - Record a series you already finished\n" +
	"/watched - Show everything you've finished\n\n" +
	"/cancel stops whatever we're in the middle of."

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	user, err := b.store.UpsertUser(ctx, strconv.FormatInt(msg.From.ID, 10), msg.From.UserName, msg.From.FirstName, msg.From.LastName)
	if err != nil {
		b.logger.Error("user upsert failed", logging.Int64(logging.FieldChatID, chatID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, user, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}
	b.handleText(ctx, chatID, user, strings.TrimSpace(msg.Text))
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, user *store.User, command, args string) {
	b.logger.Info("command received",
		logging.Int64(logging.FieldChatID, chatID),
		logging.String(logging.FieldCommand, command))

	switch command {
	case "start":
		b.sessions.clear(chatID)
		greeting := fmt.Sprintf("Hi %s! 👋\n\nI'm your personal series tracker. I keep tabs on what you're watching and ping you when a new season drops.\n\n", user.FirstName)
		b.reply(chatID, greeting+helpText)
	case "help":
		b.reply(chatID, helpText)
	case "add":
		b.startAddDialog(ctx, chatID, store.StatusWatching, args)
	case "addwatch":
		b.startAddDialog(ctx, chatID, store.StatusWatchlisted, args)
	case "addwatched":
		b.startAddDialog(ctx, chatID, store.StatusWatched, args)
	case "list":
		b.sendList(ctx, chatID, user, store.StatusWatching)
	case "watchlist":
		b.sendList(ctx, chatID, user, store.StatusWatchlisted)
	case "watched":
		b.sendList(ctx, chatID, user, store.StatusWatched)
	case "update":
		b.startPickDialog(ctx, chatID, user, "progress", "Which series did you make progress on?")
	case "remove":
		b.startPickDialog(ctx, chatID, user, "remove", "Which series should I stop tracking?")
	case "cancel":
		b.sessions.clear(chatID)
		b.reply(chatID, "Cancelled.")
	default:
		b.reply(chatID, "I don't know that command. Try /help.")
	}
}

func (b *Bot) handleText(ctx context.Context, chatID int64, user *store.User, text string) {
	sess, ok := b.sessions.get(chatID)
	if !ok || text == "" {
		b.reply(chatID, "Use /add to track a series, or /help for the full list of commands.")
		return
	}

	switch sess.state {
	case stateAwaitingQuery:
		b.runSearch(ctx, chatID, sess, text)
	case stateAwaitingProgress:
		b.applyProgress(ctx, chatID, user, sess, text)
	default:
		b.reply(chatID, "Pick one of the buttons above, or /cancel to start over.")
	}
}

// startAddDialog begins the search-and-attach flow for the given target
// status. When the command carried a title argument the search runs
// immediately.
func (b *Bot) startAddDialog(ctx context.Context, chatID int64, intent store.WatchStatus, args string) {
	sess := &session{state: stateAwaitingQuery, intent: intent}
	b.sessions.put(chatID, sess)

	if args != "" {
		b.runSearch(ctx, chatID, sess, args)
		return
	}
	switch intent {
	case store.StatusWatchlisted:
		b.reply(chatID, "Which series do you want to add to your watchlist? Send me the title.")
	case store.StatusWatched:
		b.reply(chatID, "Which series have you finished? Send me the title.")
	default:
		b.reply(chatID, "Which series are you watching? Send me the title.")
	}
}

func (b *Bot) runSearch(ctx context.Context, chatID int64, sess *session, query string) {
	response, err := b.search.SearchTV(ctx, query, 0)
	if err != nil {
		b.logger.Warn("series search failed", logging.Int64(logging.FieldChatID, chatID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	results := rankResults(query, response.Results, b.cfg.TMDB.SearchLimit)
	if len(results) == 0 {
		b.reply(chatID, fmt.Sprintf("I couldn't find anything called \"%s\". Try another spelling.", query))
		return
	}

	sess.state = stateAwaitingSelection
	sess.query = query
	sess.results = results
	b.sessions.put(chatID, sess)

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(results)+1)
	for _, result := range results {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(resultLabel(result), fmt.Sprintf("pick_%d", result.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel"),
	))

	msg := tgbotapi.NewMessage(chatID, "Here's what I found. Pick one:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

// startPickDialog offers the user's watching series as buttons with the given
// callback action prefix.
func (b *Bot) startPickDialog(ctx context.Context, chatID int64, user *store.User, action, prompt string) {
	entries, err := b.store.ListUserSeries(ctx, user.ID, store.StatusWatching)
	if err != nil {
		b.logger.Error("series listing failed", logging.Int64(logging.FieldChatID, chatID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}
	if len(entries) == 0 {
		b.reply(chatID, "You're not watching anything yet. Use /add first.")
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries)+1)
	for _, entry := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(entry.Series.Name, fmt.Sprintf("%s_%d", action, entry.Series.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Cancel", "cancel"),
	))

	msg := tgbotapi.NewMessage(chatID, prompt)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(msg)
}

func (b *Bot) sendList(ctx context.Context, chatID int64, user *store.User, status store.WatchStatus) {
	entries, err := b.store.ListUserSeries(ctx, user.ID, status)
	if err != nil {
		b.logger.Error("series listing failed", logging.Int64(logging.FieldChatID, chatID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, renderEntries(status, entries))
	msg.ParseMode = tgbotapi.ModeMarkdown

	switch status {
	case store.StatusWatching:
		if keyboard, ok := entryActions(entries, "markdone", "Finished: "); ok {
			msg.ReplyMarkup = keyboard
		}
	case store.StatusWatchlisted:
		if keyboard, ok := entryActions(entries, "movewatch", "Start watching: "); ok {
			msg.ReplyMarkup = keyboard
		}
	}
	b.send(msg)
}

// entryActions builds one action button per entry, labelled with the given
// prefix.
func entryActions(entries []store.Entry, action, labelPrefix string) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(entries) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(labelPrefix+entry.Series.Name, fmt.Sprintf("%s_%d", action, entry.Series.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func (b *Bot) applyProgress(ctx context.Context, chatID int64, user *store.User, sess *session, text string) {
	season, episode, err := parseProgress(text)
	if err != nil {
		b.reply(chatID, services.UserMessage(err))
		return
	}

	if err := b.store.UpdateProgress(ctx, user.ID, sess.seriesID, season, episode); err != nil {
		b.logger.Warn("progress update failed",
			logging.Int64(logging.FieldChatID, chatID),
			logging.Int64(logging.FieldSeriesID, sess.seriesID),
			logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	b.sessions.clear(chatID)
	b.reply(chatID, fmt.Sprintf("Got it. You're on season %d, episode %d.", season, episode))
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("callback ack failed", logging.Error(err))
	}

	user, err := b.store.UpsertUser(ctx, strconv.FormatInt(query.From.ID, 10), query.From.UserName, query.From.FirstName, query.From.LastName)
	if err != nil {
		b.logger.Error("user upsert failed", logging.Int64(logging.FieldChatID, chatID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	action, id := splitCallback(query.Data)
	switch action {
	case "cancel":
		b.sessions.clear(chatID)
		b.reply(chatID, "Cancelled.")
	case "pick":
		b.attachPicked(ctx, chatID, user, id)
	case "progress":
		b.sessions.put(chatID, &session{state: stateAwaitingProgress, seriesID: id})
		b.reply(chatID, "What season and episode are you on? Reply like \"2 5\".")
	case "remove":
		b.detachSeries(ctx, chatID, user, id)
	case "movewatch":
		b.changeStatus(ctx, chatID, user, id, store.StatusWatching, "Moved to your watching list. Enjoy!")
	case "markdone":
		b.changeStatus(ctx, chatID, user, id, store.StatusWatched, "Marked as watched. 🎉")
	default:
		b.logger.Warn("unknown callback", logging.String("data", query.Data))
	}
}

// attachPicked resolves a search selection into a stored series and links it
// to the user with the dialog's target status.
func (b *Bot) attachPicked(ctx context.Context, chatID int64, user *store.User, tmdbID int64) {
	sess, ok := b.sessions.get(chatID)
	if !ok || sess.state != stateAwaitingSelection {
		b.reply(chatID, "That selection has expired. Start again with /add.")
		return
	}

	details, err := b.search.GetTVDetails(ctx, tmdbID)
	if err != nil {
		b.logger.Warn("series details fetch failed", logging.Int64(logging.FieldTMDBID, tmdbID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	series, err := b.store.UpsertSeries(ctx, details.ID, details.Name, details.FirstAirYear(), details.RegularSeasonCount())
	if err == nil {
		_, err = b.store.AttachSeries(ctx, user.ID, series.ID, sess.intent)
	}
	if err != nil {
		b.logger.Error("series attach failed", logging.Int64(logging.FieldTMDBID, tmdbID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}

	name := textutil.EscapeMarkdown(series.Name)
	switch sess.intent {
	case store.StatusWatching:
		b.sessions.put(chatID, &session{state: stateAwaitingProgress, intent: sess.intent, seriesID: series.ID})
		b.reply(chatID, fmt.Sprintf("Now tracking *%s*. What season and episode are you on? Reply like \"2 5\", or /cancel to start from the beginning.", name))
	case store.StatusWatchlisted:
		b.sessions.clear(chatID)
		b.reply(chatID, fmt.Sprintf("*%s* is on your watchlist.", name))
	case store.StatusWatched:
		b.sessions.clear(chatID)
		b.reply(chatID, fmt.Sprintf("*%s* recorded as watched.", name))
	}
}

func (b *Bot) detachSeries(ctx context.Context, chatID int64, user *store.User, seriesID int64) {
	series, err := b.store.GetSeriesByID(ctx, seriesID)
	if err == nil {
		err = b.store.DetachSeries(ctx, user.ID, seriesID)
	}
	if err != nil {
		b.logger.Warn("series detach failed", logging.Int64(logging.FieldSeriesID, seriesID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}
	if series != nil {
		b.reply(chatID, fmt.Sprintf("Done, I stopped tracking *%s*.", textutil.EscapeMarkdown(series.Name)))
		return
	}
	b.reply(chatID, "Done, I stopped tracking it.")
}

func (b *Bot) changeStatus(ctx context.Context, chatID int64, user *store.User, seriesID int64, status store.WatchStatus, confirmation string) {
	link, err := b.store.GetLink(ctx, user.ID, seriesID)
	if err == nil && link == nil {
		err = services.Wrap(services.ErrNotFound, "bot", "change_status", "series is not tracked", nil)
	}
	if err == nil {
		err = b.store.SetWatchStatus(ctx, link.ID, status)
	}
	if err != nil {
		b.logger.Warn("status change failed", logging.Int64(logging.FieldSeriesID, seriesID), logging.Error(err))
		b.reply(chatID, services.UserMessage(err))
		return
	}
	b.reply(chatID, confirmation)
}

func splitCallback(data string) (action string, id int64) {
	idx := strings.LastIndex(data, "_")
	if idx < 0 {
		return data, 0
	}
	id, err := strconv.ParseInt(data[idx+1:], 10, 64)
	if err != nil {
		return data, 0
	}
	return data[:idx], id
}
