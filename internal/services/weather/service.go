// Package weather caches the current weather in the snapshot document
// the control engine's gate reads. It is the only component that talks
// to the forecast provider; the engine itself never makes an HTTP call.
package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/greenside-labs/irrigator/internal/model"
	"github.com/greenside-labs/irrigator/internal/store"
)

// mm to inches, applied when the installation is configured imperial.
const mmToInches = 0.0393701

type Service struct {
	store    *store.Store
	wxStore  *store.WeatherStore
	provider Provider

	mu          sync.Mutex
	lastRefresh time.Time
	lastErr     error
}

func NewService(st *store.Store, wx *store.WeatherStore, provider Provider) *Service {
	return &Service{store: st, wxStore: wx, provider: provider}
}

// Refresh fetches current conditions, precipitation history and
// forecast per the configured wx_data, converts units, and writes the
// snapshot document. The config document gains geocoded coordinates on
// first use so later refreshes skip the lookup.
func (s *Service) Refresh(ctx context.Context) (model.WeatherStatus, error) {
	st, err := s.refresh(ctx)
	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.lastErr = err
	s.mu.Unlock()
	if err != nil {
		refreshFailures.Inc()
	}
	refreshTotal.Inc()
	return st, err
}

func (s *Service) refresh(ctx context.Context) (model.WeatherStatus, error) {
	doc, err := s.store.Load()
	if err != nil {
		return model.WeatherStatus{}, err
	}
	cfg := doc.WxData

	lat, lon := cfg.Latitude, cfg.Longitude
	if lat == 0 && lon == 0 {
		if cfg.Location == "" {
			return model.WeatherStatus{}, fmt.Errorf("no location or coordinates configured")
		}
		lat, lon, err = s.provider.Geocode(ctx, cfg.Location)
		if err != nil {
			return model.WeatherStatus{}, fmt.Errorf("geocode %q: %w", cfg.Location, err)
		}
		log.Printf("weather: geocoded %q to %.4f,%.4f", cfg.Location, lat, lon)
		// Persist the coordinates; read-modify-write like everyone
		// else touching the document.
		if fresh, err := s.store.Load(); err == nil {
			fresh.WxData.Latitude = lat
			fresh.WxData.Longitude = lon
			if err := s.store.Save(fresh); err != nil {
				log.Printf("weather: persist coordinates: %v", err)
			}
		}
	}

	cur, err := s.provider.Current(ctx, lat, lon)
	if err != nil {
		return model.WeatherStatus{}, fmt.Errorf("current conditions: %w", err)
	}

	historyDays := cfg.HistoryDays
	if historyDays <= 0 {
		historyDays = 1
	}
	history, err := s.provider.DailyHistory(ctx, lat, lon, historyDays)
	if err != nil {
		return model.WeatherStatus{}, fmt.Errorf("history: %w", err)
	}

	forecastDays := cfg.ForecastDays
	if forecastDays <= 0 {
		forecastDays = 1
	}
	forecast, err := s.provider.DailyForecast(ctx, lat, lon, forecastDays)
	if err != nil {
		return model.WeatherStatus{}, fmt.Errorf("forecast: %w", err)
	}

	historyTotal := sumRain(history)
	forecastTotal := sumRain(forecast)

	temp := cur.Temp
	rainCurrent := cur.Rain
	if cfg.Units == "F" {
		temp = temp*9/5 + 32
		rainCurrent *= mmToInches
		historyTotal *= mmToInches
		forecastTotal *= mmToInches
	}

	st := model.WeatherStatus{
		TempCurrent:      temp,
		RainCurrent:      rainCurrent,
		RainHistoryTotal: historyTotal,
		RainForecast:     forecastTotal,
		Summary:          cur.Summary,
		Icon:             cur.Icon,
		Updated:          time.Now().Format(time.RFC3339),
		Dt:               cur.Dt,
	}
	if err := s.wxStore.Save(st); err != nil {
		return st, err
	}
	log.Printf("weather: refreshed, temp=%.1f%s history=%.2f forecast=%.2f %s",
		st.TempCurrent, cfg.Units, st.RainHistoryTotal, st.RainForecast, cfg.PrecipUnits())
	return st, nil
}

// LastRefreshAge reports how long ago the last refresh attempt ran.
func (s *Service) LastRefreshAge() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRefresh.IsZero() {
		return 99999 * time.Hour
	}
	return time.Since(s.lastRefresh)
}

// LastError returns the error of the last refresh attempt, nil if it
// succeeded.
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func sumRain(days []Daily) float64 {
	total := 0.0
	for _, d := range days {
		total += d.Rain
	}
	return total
}
