package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// Daily is one day of provider data, metric units.
type Daily struct {
	Dt      int64
	TempMin float64
	TempMax float64
	Rain    float64 // mm
}

// Current holds the current conditions, metric units.
type Current struct {
	Temp    float64
	Rain    float64 // mm over the last hour
	Summary string
	Icon    string
	Dt      int64
}

// Provider fetches raw weather data. Implementations return metric
// values; unit conversion happens in the service.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (Current, error)
	DailyForecast(ctx context.Context, lat, lon float64, days int) ([]Daily, error)
	DailyHistory(ctx context.Context, lat, lon float64, days int) ([]Daily, error)
	Geocode(ctx context.Context, location string) (lat, lon float64, err error)
}

const (
	owmBaseURL       = "https://api.openweathermap.org/data/3.0/onecall"
	nominatimBaseURL = "https://nominatim.openstreetmap.org/search"
)

// OWMClient talks to the OpenWeather One Call API, with Nominatim for
// geocoding. All provider calls go through a circuit breaker so a dead
// upstream fails fast instead of stalling every refresh, and transient
// failures are retried with exponential backoff.
type OWMClient struct {
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewOWMClient(key string) *OWMClient {
	return &OWMClient{
		apiKey: key,
		http:   &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "weather-provider",
			Timeout: 30 * time.Second,
		}),
	}
}

func (c *OWMClient) get(ctx context.Context, rawURL string, out any) error {
	op := func() error {
		_, err := c.breaker.Execute(func() (any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			req.Header.Set("User-Agent", "irrigator/1.0")
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
				err := fmt.Errorf("provider status %d: %s", resp.StatusCode, string(b))
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return nil, backoff.Permanent(err)
				}
				return nil, err
			}
			return nil, json.NewDecoder(resp.Body).Decode(out)
		})
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 20 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

type owmDaily struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Rain float64 `json:"rain"`
}

type owmCurrent struct {
	Dt      int64   `json:"dt"`
	Temp    float64 `json:"temp"`
	Weather []struct {
		Main string `json:"main"`
		Icon string `json:"icon"`
	} `json:"weather"`
	Rain struct {
		OneH float64 `json:"1h"`
	} `json:"rain"`
}

type owmOneCall struct {
	Current owmCurrent `json:"current"`
	Daily   []owmDaily `json:"daily"`
}

func (c *OWMClient) oneCall(ctx context.Context, lat, lon float64, exclude string) (owmOneCall, error) {
	var out owmOneCall
	if c.apiKey == "" {
		return out, fmt.Errorf("missing api key")
	}
	u := fmt.Sprintf("%s?lat=%f&lon=%f&exclude=%s&units=metric&appid=%s",
		owmBaseURL, lat, lon, exclude, c.apiKey)
	err := c.get(ctx, u, &out)
	return out, err
}

func (c *OWMClient) Current(ctx context.Context, lat, lon float64) (Current, error) {
	out, err := c.oneCall(ctx, lat, lon, "minutely,hourly,daily,alerts")
	if err != nil {
		return Current{}, err
	}
	cur := Current{
		Temp: out.Current.Temp,
		Rain: out.Current.Rain.OneH,
		Dt:   out.Current.Dt,
	}
	if len(out.Current.Weather) > 0 {
		cur.Summary = out.Current.Weather[0].Main
		cur.Icon = out.Current.Weather[0].Icon
	}
	return cur, nil
}

func (c *OWMClient) DailyForecast(ctx context.Context, lat, lon float64, days int) ([]Daily, error) {
	out, err := c.oneCall(ctx, lat, lon, "current,minutely,hourly,alerts")
	if err != nil {
		return nil, err
	}
	if len(out.Daily) == 0 {
		return nil, fmt.Errorf("no daily data")
	}
	if days > 0 && days < len(out.Daily) {
		out.Daily = out.Daily[:days]
	}
	result := make([]Daily, 0, len(out.Daily))
	for _, d := range out.Daily {
		result = append(result, Daily{Dt: d.Dt, TempMin: d.Temp.Min, TempMax: d.Temp.Max, Rain: d.Rain})
	}
	return result, nil
}

type owmTimeMachine struct {
	Data []struct {
		Dt   int64   `json:"dt"`
		Temp float64 `json:"temp"`
		Rain struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
	} `json:"data"`
}

// DailyHistory fetches one timemachine sample per past day and treats
// its rain reading as that day's total. Coarse, but the gate only
// compares accumulated totals against a threshold.
func (c *OWMClient) DailyHistory(ctx context.Context, lat, lon float64, days int) ([]Daily, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("missing api key")
	}
	result := make([]Daily, 0, days)
	for i := 1; i <= days; i++ {
		dt := time.Now().AddDate(0, 0, -i).Unix()
		u := fmt.Sprintf("%s/timemachine?lat=%f&lon=%f&dt=%d&units=metric&appid=%s",
			owmBaseURL, lat, lon, dt, c.apiKey)
		var out owmTimeMachine
		if err := c.get(ctx, u, &out); err != nil {
			return nil, err
		}
		for _, d := range out.Data {
			result = append(result, Daily{Dt: d.Dt, TempMin: d.Temp, TempMax: d.Temp, Rain: d.Rain.OneH})
		}
	}
	return result, nil
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *OWMClient) Geocode(ctx context.Context, location string) (float64, float64, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&limit=1", nominatimBaseURL, url.QueryEscape(location))
	var results []nominatimResult
	if err := c.get(ctx, u, &results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("location %q not found", location)
	}
	var lat, lon float64
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q", results[0].Lat)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q", results[0].Lon)
	}
	return lat, lon, nil
}
