package muai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const SourceID = "muai"

// ErrCalendarLinkNotFound means the homepage rendered but carried no link
// whose text matches the configured calendar link text.
var ErrCalendarLinkNotFound = errors.New("calendar link not found on homepage")

const userAgent = "Mozilla/5.0"

// Config holds calendar source configuration.
type Config struct {
	SiteURL        string
	LinkText       string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source locates and downloads the mosque's current prayer-calendar image.
type Source struct {
	httpClient     *http.Client
	siteURL        string
	linkText       string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new calendar source for the mosque homepage.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		siteURL:        cfg.SiteURL,
		linkText:       cfg.LinkText,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// CalendarImageURL scrapes the homepage and returns the absolute URL of the
// current calendar image. The URL doubles as the change-detection identifier.
func (s *Source) CalendarImageURL(ctx context.Context) (string, error) {
	var href string

	err := s.withRetry(ctx, "scrape homepage", func() error {
		body, err := s.get(ctx, s.siteURL)
		if err != nil {
			return err
		}
		defer body.Close()

		href, err = findCalendarLink(body, s.linkText)
		return err
	})
	if err != nil {
		return "", err
	}

	resolved, err := s.resolve(href)
	if err != nil {
		return "", fmt.Errorf("resolve calendar link %q: %w", href, err)
	}

	return resolved, nil
}

// DownloadImage fetches the raw calendar image bytes.
func (s *Source) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	var data []byte

	err := s.withRetry(ctx, "download image", func() error {
		body, err := s.get(ctx, imageURL)
		if err != nil {
			return err
		}
		defer body.Close()

		data, err = io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("read image body: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("downloaded calendar image", "url", imageURL, "bytes", len(data))
	return data, nil
}

func (s *Source) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (s *Source) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		// A missing link is a page-content problem, not a transient
		// network one. Retrying won't change the page.
		if errors.Is(err, ErrCalendarLinkNotFound) {
			return err
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", op, s.maxAttempts, err)
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) resolve(href string) (string, error) {
	base, err := url.Parse(s.siteURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// findCalendarLink walks the parsed document for the first anchor whose
// visible text contains linkText and returns its href.
func findCalendarLink(r io.Reader, linkText string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse homepage html: %w", err)
	}

	var walk func(n *html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "a" {
			if strings.Contains(anchorText(n), linkText) {
				for _, attr := range n.Attr {
					if attr.Key == "href" && attr.Val != "" {
						return attr.Val
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if href := walk(c); href != "" {
				return href
			}
		}
		return ""
	}

	href := walk(doc)
	if href == "" {
		return "", ErrCalendarLinkNotFound
	}
	return href, nil
}

func anchorText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}
