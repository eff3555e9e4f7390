package ntfy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"prayer_notifier/internal/domain"
	"prayer_notifier/internal/timeutil"
)

// Clock supplies the local wall-clock time used for countdown lines.
type Clock interface {
	Now() time.Time
}

var prayerEmojis = map[domain.Prayer]string{
	domain.Fajr:    "🕋",
	domain.Zuhr:    "☀️",
	domain.Asr:     "⛅",
	domain.Maghrib: "🌅",
	domain.Isha:    "🌙",
}

// Config holds push delivery configuration.
type Config struct {
	URL      string
	Priority string
	Timeout  time.Duration
}

// Client delivers push notifications to an ntfy topic.
type Client struct {
	httpClient *http.Client
	url        string
	priority   string
	clock      Clock
	logger     *slog.Logger
}

func NewClient(cfg Config, clock Clock, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		url:      cfg.URL,
		priority: cfg.Priority,
		clock:    clock,
		logger:   logger.With("component", "ntfy"),
	}
}

// SendPrayer announces that a prayer has started.
func (c *Client) SendPrayer(ctx context.Context, n domain.Notification) error {
	title := fmt.Sprintf("%s %s has started • %s",
		prayerEmojis[n.Prayer], n.Prayer.DisplayName(), timeutil.Format12h(n.Start))

	first := fmt.Sprintf("(Jamaat %s)", timeutil.Format12h(n.Jamaat))
	if n.Prayer == domain.Fajr && n.Sunrise != "" {
		first += fmt.Sprintf(" - [Sunrise %s]", timeutil.Format12h(n.Sunrise))
	}

	second := "⏰ Next prayer time not yet available"
	if n.NextPrayer != "" && n.NextStart != "" {
		if until, err := timeutil.Until(c.clock.Now(), n.NextStart); err == nil {
			second = fmt.Sprintf("⏰ %s until %s • %s",
				timeutil.FormatDuration(until), n.NextPrayer.DisplayName(), timeutil.Format12h(n.NextStart))
		}
	}

	if err := c.post(ctx, title, first+"\n"+second); err != nil {
		return err
	}

	c.logger.Info("sent prayer notification", "prayer", n.Prayer, "start", n.Start)
	return nil
}

// SendUnavailable tells subscribers the system is alive but has no timetable
// for today.
func (c *Client) SendUnavailable(ctx context.Context) error {
	err := c.post(ctx,
		"⚠️ Prayer Schedule Unavailable",
		"No schedule found. Will retry next check.",
	)
	if err != nil {
		return err
	}

	c.logger.Info("sent schedule-unavailable notification")
	return nil
}

// SendSummary lists each loaded day's key times. Fired once when a refresh
// populates a previously empty store.
func (c *Client) SendSummary(ctx context.Context, label string, days []domain.PrayerDay) error {
	lines := make([]string, 0, len(days))
	for i := range days {
		d := &days[i]

		date := d.Date
		if len(date) >= 5 {
			date = date[len(date)-5:] // MM-DD
		}
		day := d.DayName
		if len(day) > 3 {
			day = day[:3]
		}

		lines = append(lines, fmt.Sprintf("%s %s  Fajr %s  Mghrb %s  Isha %s",
			date, day, orDash(d.FajrStart), orDash(d.MaghribStart), orDash(d.IshaStart)))
	}

	title := fmt.Sprintf("📅 Schedule loaded — %d days", len(days))
	if label != "" {
		title += " • " + label
	}

	if err := c.post(ctx, title, strings.Join(lines, "\n")); err != nil {
		return err
	}

	c.logger.Info("sent schedule summary", "days", len(days), "label", label)
	return nil
}

func (c *Client) post(ctx context.Context, title, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ntfy request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", c.priority)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute ntfy request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ntfy error: status %s, body %s", resp.Status, string(respBody))
	}

	return nil
}

func orDash(hhmm string) string {
	if hhmm == "" {
		return "—"
	}
	return timeutil.Format12h(hhmm)
}
