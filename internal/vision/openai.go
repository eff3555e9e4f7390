package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"prayer_notifier/internal/domain"
)

// ErrTimetableNotFound is returned when the model reports it could not find
// a prayer timetable in the image.
var ErrTimetableNotFound = errors.New("no timetable recognized in calendar image")

const extractPrompt = `You are extracting an Islamic prayer timetable from an image. It may cover a full month.
Return ONLY valid JSON with no extra text, no markdown code fences, no prose.

Required structure:
{
  "week_label": "Sha'ban 1447 / Feb–Mar 2026",
  "prayers": [
    {
      "date": "2026-02-17",
      "day": "Monday",
      "fajr_start": "05:54",
      "fajr_jamaat": "06:45",
      "sunrise": "07:34",
      "zuhr_start": "12:26",
      "zuhr_jamaat": "13:00",
      "asr_start": "15:22",
      "asr_jamaat": "15:45",
      "maghrib_start": "17:11",
      "maghrib_jamaat": "17:16",
      "isha_start": "18:45",
      "isha_jamaat": "20:00"
    }
  ]
}

Rules:
- Extract EVERY row in the image — do not stop early. Include all days visible.
- All times in 24-hour HH:MM format.
- Dates in YYYY-MM-DD format. Infer the year and month from the calendar header.
- If a Jamaat cell contains a ditto mark (" or '' or ditto) it means the Jamaat time is unchanged from the previous day — use the last known Jamaat time for that prayer instead.
- Never output a ditto mark in the JSON — always resolve it to an actual time.
- If you cannot find a timetable, return exactly: {"error": "not_found"}`

// Config holds vision extractor configuration.
type Config struct {
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	MaxTokens int
}

// Client extracts structured schedules from calendar images via the OpenAI
// chat completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	maxTokens  int
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "vision"),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// schedulePayload mirrors the JSON structure the prompt demands. A non-empty
// error field is the extractor's "not found" sentinel.
type schedulePayload struct {
	Error     string             `json:"error"`
	WeekLabel string             `json:"week_label"`
	Prayers   []domain.PrayerDay `json:"prayers"`
}

// Extract sends the calendar image to the model and parses the returned
// timetable. Ditto marks are resolved by the model per the prompt contract,
// so every time field comes back as a concrete "HH:MM" or is absent.
func (c *Client) Extract(ctx context.Context, image []byte) (*domain.Schedule, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	mime := http.DetectContentType(image)
	dataURI := fmt.Sprintf("data:%s;base64,%s", mime, encoded)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: extractPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision API error %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("vision API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, errors.New("vision returned no choices")
	}

	raw := stripCodeFences(chatResp.Choices[0].Message.Content)

	var payload schedulePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse extracted schedule: %w (raw: %s)", err, truncate(raw, 200))
	}

	if payload.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrTimetableNotFound, payload.Error)
	}

	if len(payload.Prayers) == 0 {
		return nil, fmt.Errorf("%w: empty prayer list", ErrTimetableNotFound)
	}

	c.logger.Debug("extracted schedule",
		"label", payload.WeekLabel,
		"days", len(payload.Prayers),
	)

	return &domain.Schedule{
		Label: payload.WeekLabel,
		Days:  payload.Prayers,
	}, nil
}

// stripCodeFences removes a markdown code block wrapper when the model
// ignores the plain-JSON instruction.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
