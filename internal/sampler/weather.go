package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultWeatherTTL     = 300 * time.Second
	DefaultWeatherTimeout = 10 * time.Second

	maxWeatherBody = 1 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// weatherDoc is the subset of an OpenWeatherMap current-weather response we
// read. Pointers distinguish a missing field from a zero value.
type weatherDoc struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Description *string `json:"description"`
	} `json:"weather"`
}

// Weather is a fetch-through cache in front of a remote weather endpoint.
// At most one request is made per TTL, whether it succeeds or not. A failed
// request clears the cache so the line shows Fallback until the next success.
type Weather struct {
	url     string
	icon    string
	ttl     time.Duration
	timeout time.Duration
	client  *http.Client
	now     Clock
	onFetch func(error)

	text      *string
	fetchedAt time.Time
	checkedAt time.Time
	checked   bool
}

func NewWeather(requestURL, icon string, ttl, timeout time.Duration) *Weather {
	if ttl <= 0 {
		ttl = DefaultWeatherTTL
	}
	if timeout <= 0 {
		timeout = DefaultWeatherTimeout
	}
	return &Weather{
		url:     requestURL,
		icon:    icon,
		ttl:     ttl,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

func (w *Weather) Update(ctx context.Context) error {
	now := w.now()
	if w.checked && now.Sub(w.checkedAt) < w.ttl {
		return nil
	}
	w.checked, w.checkedAt = true, now

	text, err := w.fetch(ctx)
	if w.onFetch != nil {
		w.onFetch(err)
	}
	if err != nil {
		w.text = nil
		return fmt.Errorf("weather: %w", err)
	}
	w.text = &text
	w.fetchedAt = now
	return nil
}

// OnFetch registers a hook called after every remote request with its
// outcome. Cache hits do not call it.
func (w *Weather) OnFetch(fn func(error)) {
	w.onFetch = fn
}

func (w *Weather) Render() string {
	if w.text == nil {
		return Fallback
	}
	return *w.text
}

func (w *Weather) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("cached", w.text != nil),
		slog.Duration("ttl", w.ttl),
	}
	if w.checked {
		attrs = append(attrs, slog.Time("checked_at", w.checkedAt))
	}
	if w.text != nil {
		attrs = append(attrs, slog.Time("fetched_at", w.fetchedAt))
	}
	return slog.GroupValue(attrs...)
}

func (w *Weather) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, and with it the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var doc weatherDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxWeatherBody)).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}
	if doc.Main.Temp == nil {
		return "", errors.New("payload has no main.temp")
	}
	if len(doc.Weather) == 0 || doc.Weather[0].Description == nil {
		return "", errors.New("payload has no weather[0].description")
	}

	desc := cases.Title(language.English).String(strings.TrimSpace(*doc.Weather[0].Description))
	temp := fmt.Sprintf("%d°C", int(math.Round(*doc.Main.Temp)))
	if desc == "" {
		return w.icon + temp, nil
	}
	return w.icon + desc + " " + temp, nil
}
