package ntfy

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prayer_notifier/internal/domain"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type capturedRequest struct {
	title    string
	priority string
	content  string
	body     string
}

func newCapturingServer(t *testing.T, got *[]capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*got = append(*got, capturedRequest{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			content:  r.Header.Get("Content-Type"),
			body:     string(body),
		})
	}))
}

func newTestClient(url string, now time.Time) *Client {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewClient(Config{
		URL:      url,
		Priority: "default",
		Timeout:  5 * time.Second,
	}, fixedClock{now: now}, logger)
}

func TestSendPrayer_FajrWithSunriseAndCountdown(t *testing.T) {
	var got []capturedRequest
	srv := newCapturingServer(t, &got)
	defer srv.Close()

	now := time.Date(2026, 2, 17, 5, 54, 0, 0, time.UTC)
	client := newTestClient(srv.URL, now)

	err := client.SendPrayer(context.Background(), domain.Notification{
		Date:       "2026-02-17",
		Prayer:     domain.Fajr,
		Start:      "05:54",
		Jamaat:     "06:45",
		Sunrise:    "07:34",
		NextPrayer: domain.Zuhr,
		NextStart:  "12:24",
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "🕋 Fajr has started • 5:54 AM", got[0].title)
	assert.Equal(t, "default", got[0].priority)
	assert.Equal(t, "text/plain; charset=utf-8", got[0].content)

	lines := strings.Split(got[0].body, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "(Jamaat 6:45 AM) - [Sunrise 7:34 AM]", lines[0])
	assert.Equal(t, "⏰ 6h 30m until Zuhr • 12:24 PM", lines[1])
}

func TestSendPrayer_NoNextPrayerKnown(t *testing.T) {
	var got []capturedRequest
	srv := newCapturingServer(t, &got)
	defer srv.Close()

	now := time.Date(2026, 2, 17, 18, 37, 0, 0, time.UTC)
	client := newTestClient(srv.URL, now)

	err := client.SendPrayer(context.Background(), domain.Notification{
		Date:   "2026-02-17",
		Prayer: domain.Isha,
		Start:  "18:37",
		Jamaat: "19:30",
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "🌙 Isha has started • 6:37 PM", got[0].title)

	lines := strings.Split(got[0].body, "\n")
	require.Len(t, lines, 2)
	// No sunrise suffix outside fajr.
	assert.Equal(t, "(Jamaat 7:30 PM)", lines[0])
	assert.Equal(t, "⏰ Next prayer time not yet available", lines[1])
}

func TestSendPrayer_ServerErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, time.Now())

	err := client.SendPrayer(context.Background(), domain.Notification{
		Prayer: domain.Zuhr,
		Start:  "12:24",
		Jamaat: "13:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestSendUnavailable(t *testing.T) {
	var got []capturedRequest
	srv := newCapturingServer(t, &got)
	defer srv.Close()

	client := newTestClient(srv.URL, time.Now())

	err := client.SendUnavailable(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "⚠️ Prayer Schedule Unavailable", got[0].title)
	assert.Equal(t, "No schedule found. Will retry next check.", got[0].body)
}

func TestSendSummary(t *testing.T) {
	var got []capturedRequest
	srv := newCapturingServer(t, &got)
	defer srv.Close()

	client := newTestClient(srv.URL, time.Now())

	days := []domain.PrayerDay{
		{
			Date:         "2026-02-17",
			DayName:      "Tuesday",
			FajrStart:    "05:54",
			MaghribStart: "17:07",
			IshaStart:    "18:37",
		},
		{
			Date:      "2026-02-18",
			DayName:   "Wednesday",
			FajrStart: "05:52",
			// maghrib and isha unknown
		},
	}

	err := client.SendSummary(context.Background(), "Sha'ban 1447", days)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "📅 Schedule loaded — 2 days • Sha'ban 1447", got[0].title)

	lines := strings.Split(got[0].body, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "02-17 Tue  Fajr 5:54 AM  Mghrb 5:07 PM  Isha 6:37 PM", lines[0])
	assert.Equal(t, "02-18 Wed  Fajr 5:52 AM  Mghrb —  Isha —", lines[1])
}

func TestSendSummary_NoLabel(t *testing.T) {
	var got []capturedRequest
	srv := newCapturingServer(t, &got)
	defer srv.Close()

	client := newTestClient(srv.URL, time.Now())

	err := client.SendSummary(context.Background(), "", []domain.PrayerDay{{Date: "2026-02-17"}})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "📅 Schedule loaded — 1 days", got[0].title)
}
