package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func chatCompletion(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

const scheduleJSON = `{
  "week_label": "Sha'ban 1447 / Feb 2026",
  "prayers": [
    {
      "date": "2026-02-17",
      "day": "Tuesday",
      "fajr_start": "05:54",
      "fajr_jamaat": "06:45",
      "sunrise": "07:34",
      "zuhr_start": "12:24",
      "zuhr_jamaat": "13:00",
      "asr_start": "14:47",
      "asr_jamaat": "15:30",
      "maghrib_start": "17:07",
      "maghrib_jamaat": "17:12",
      "isha_start": "18:37",
      "isha_jamaat": "19:30"
    },
    {
      "date": "2026-02-18",
      "day": "Wednesday",
      "fajr_start": "05:52",
      "fajr_jamaat": "06:45"
    }
  ]
}`

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:   baseURL,
		Model:     "gpt-4o",
		APIKey:    "sk-test",
		Timeout:   5 * time.Second,
		MaxTokens: 16000,
	}, testLogger())
}

func TestExtract_ParsesSchedule(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, chatCompletion(scheduleJSON))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	schedule, err := client.Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "gpt-4o", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	require.Len(t, gotReq.Messages[0].Content, 2)
	assert.Contains(t, gotReq.Messages[0].Content[1].ImageURL.URL, "base64,")

	assert.Equal(t, "Sha'ban 1447 / Feb 2026", schedule.Label)
	require.Len(t, schedule.Days, 2)
	assert.Equal(t, "2026-02-17", schedule.Days[0].Date)
	assert.Equal(t, "05:54", schedule.Days[0].FajrStart)
	assert.Equal(t, "17:12", schedule.Days[0].MaghribJamaat)
	// Partial second row: absent times stay empty.
	assert.Empty(t, schedule.Days[1].ZuhrStart)
}

func TestExtract_StripsMarkdownFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion("```json\n"+scheduleJSON+"\n```"))
	}))
	defer srv.Close()

	schedule, err := newTestClient(srv.URL).Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.NoError(t, err)
	assert.Len(t, schedule.Days, 2)
}

func TestExtract_NotFoundSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion(`{"error": "not_found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.ErrorIs(t, err, ErrTimetableNotFound)
}

func TestExtract_EmptyPrayerList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion(`{"week_label": "empty", "prayers": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.ErrorIs(t, err, ErrTimetableNotFound)
}

func TestExtract_APIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestExtract_MalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatCompletion("Here is the timetable you asked for:"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Extract(context.Background(), []byte{0xff, 0xd8, 0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse extracted schedule")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", input: "  {\"a\":1}\n", want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.input))
		})
	}
}
