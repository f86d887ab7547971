package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/greenside-labs/irrigator/internal/model"
)

const DefaultWeatherPath = "wx_status.json"

// WeatherStore is a file-backed store for the weather-status snapshot
// written by the weather collaborator and read by the control engine.
type WeatherStore struct {
	path string
}

func NewWeatherStore(path string) *WeatherStore {
	if path == "" {
		path = DefaultWeatherPath
	}
	return &WeatherStore{path: path}
}

func (s *WeatherStore) Path() string { return s.path }

// Load reads the snapshot. On any failure it returns a permissive
// default snapshot along with the error, so the caller can keep going
// with "rain amounts are zero" rather than blocking on missing data.
func (s *WeatherStore) Load(wx model.WxConfig) (model.WeatherStatus, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return DefaultStatus(wx), fmt.Errorf("read weather %s: %w", s.path, err)
	}
	var st model.WeatherStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return DefaultStatus(wx), fmt.Errorf("decode weather %s: %w", s.path, err)
	}
	return st, nil
}

func (s *WeatherStore) Save(st model.WeatherStatus) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode weather: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write weather %s: %w", s.path, err)
	}
	return nil
}

// DefaultStatus builds the snapshot used when no weather data is
// available: zero precipitation and a current temperature centered in
// the configured band, so no enabled check can trip on missing data.
func DefaultStatus(wx model.WxConfig) model.WeatherStatus {
	return model.WeatherStatus{
		TempCurrent: (wx.MinTemp + wx.MaxTemp) / 2,
		Summary:     "Weather data unavailable",
		Icon:        "unknown",
	}
}
