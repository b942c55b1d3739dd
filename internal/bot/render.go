package bot

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/SanyCska/serials-bot/internal/services"
	"github.com/SanyCska/serials-bot/internal/store"
	"github.com/SanyCska/serials-bot/internal/textutil"
	"github.com/SanyCska/serials-bot/internal/tmdb"
)

var titleCaser = cases.Title(language.English)

// parseProgress interprets a "season episode" reply. The episode may be
// omitted, in which case it resets to 0.
func parseProgress(text string) (season, episode int, err error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || len(fields) > 2 {
		return 0, 0, services.Wrap(services.ErrValidation, "bot", "parse_progress", "expected season and episode numbers", nil)
	}

	season, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, "bot", "parse_progress", "season is not a whole number", err)
	}
	if season < 1 {
		return 0, 0, services.Wrap(services.ErrValidation, "bot", "parse_progress", "season must be positive", nil)
	}

	if len(fields) == 2 {
		episode, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, services.Wrap(services.ErrValidation, "bot", "parse_progress", "episode is not a whole number", err)
		}
		if episode < 0 {
			return 0, 0, services.Wrap(services.ErrValidation, "bot", "parse_progress", "episode must not be negative", nil)
		}
	}
	return season, episode, nil
}

// renderEntries formats a tracked-series list for one status as Markdown.
func renderEntries(status store.WatchStatus, entries []store.Entry) string {
	if len(entries) == 0 {
		switch status {
		case store.StatusWatchlisted:
			return "Your watchlist is empty. Use /addwatch to queue a series."
		case store.StatusWatched:
			return "You haven't marked anything watched yet. Use /addwatched."
		default:
			return "You're not watching anything yet. Use /add to start tracking a series."
		}
	}

	var b strings.Builder
	switch status {
	case store.StatusWatchlisted:
		b.WriteString("*Your watchlist:*\n")
	case store.StatusWatched:
		b.WriteString("*Series you've watched:*\n")
	default:
		b.WriteString("*Series you're watching:*\n")
	}

	for i, entry := range entries {
		b.WriteString(fmt.Sprintf("%d. *%s*", i+1, textutil.EscapeMarkdown(entry.Series.Name)))
		if entry.Series.Year > 0 {
			b.WriteString(fmt.Sprintf(" (%d)", entry.Series.Year))
		}
		switch status {
		case store.StatusWatching:
			b.WriteString(fmt.Sprintf(" — S%d/%d E%d", entry.Link.CurrentSeason, entry.Series.TotalSeasons, entry.Link.CurrentEpisode))
		case store.StatusWatched:
			if entry.Link.WatchedDate != nil {
				b.WriteString(fmt.Sprintf(" — finished %s", entry.Link.WatchedDate.Format("2006-01-02")))
			}
		default:
			if entry.Series.TotalSeasons > 0 {
				b.WriteString(fmt.Sprintf(" — %d seasons", entry.Series.TotalSeasons))
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// resultLabel formats a search result for an inline keyboard button.
func resultLabel(result tmdb.Result) string {
	name := titleCaser.String(strings.TrimSpace(result.Name))
	if year := result.FirstAirYear(); year > 0 {
		return fmt.Sprintf("%s (%d)", name, year)
	}
	return name
}
