package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenside-labs/irrigator/internal/model"
)

func testDocument() *model.Document {
	return &model.Document{
		ZoneMap: map[string]model.Zone{
			"frontlawn": {GPIOMapping: 17, Enabled: true},
			"backlawn":  {GPIOMapping: 27, Enabled: false},
		},
		Schedules: map[string]model.Schedule{
			"morning": {
				StartTime: model.StartTime{Hour: 6, Minute: 30},
				Zones:     map[string]model.ZoneEntry{"frontlawn": {Duration: 5}},
			},
		},
		Settings: model.Settings{RelayTrigger: 0, TargetSys: "Prototype", ZoneGate: 22},
		WxData:   model.WxConfig{Units: "F", Precip: 1, MinTemp: 32, MaxTemp: 100},
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irrigator.json")
	s := New(path)

	require.NoError(t, s.Save(testDocument()))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 17, doc.ZoneMap["frontlawn"].GPIOMapping)
	assert.True(t, doc.ZoneMap["frontlawn"].Enabled)
	assert.Equal(t, 5, doc.Schedules["morning"].Zones["frontlawn"].Duration)
	assert.Equal(t, 22, doc.Settings.ZoneGate)
}

func TestDocumentJSONKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irrigator.json")
	s := New(path)
	require.NoError(t, s.Save(testDocument()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	for _, key := range []string{"zonemap", "schedules", "settings", "controls", "wx_data"} {
		assert.Contains(t, top, key)
	}

	var settings map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["settings"], &settings))
	assert.Contains(t, settings, "relay_trigger")
	assert.Contains(t, settings, "target_sys")
	assert.Contains(t, settings, "zone_gate")
}

func TestLoadMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope.json"))
	_, err := s.Load()
	assert.Error(t, err)
}

func TestWeatherLoadFailureIsPermissive(t *testing.T) {
	wx := model.WxConfig{MinTemp: 32, MaxTemp: 100, HistoryEnable: true, Precip: 1}
	ws := NewWeatherStore(filepath.Join(t.TempDir(), "wx_status.json"))

	st, err := ws.Load(wx)
	assert.Error(t, err)
	assert.Zero(t, st.RainHistoryTotal)
	assert.Zero(t, st.RainForecast)
	assert.Zero(t, st.RainCurrent)
	// Default temperature sits inside the configured band.
	assert.Equal(t, 66.0, st.TempCurrent)
}

func TestWeatherRoundTrip(t *testing.T) {
	ws := NewWeatherStore(filepath.Join(t.TempDir(), "wx_status.json"))
	in := model.WeatherStatus{
		TempCurrent:      71.5,
		RainHistoryTotal: 0.4,
		RainForecast:     0.2,
		Summary:          "Clear",
		Icon:             "01d",
		Dt:               1700000000,
	}
	require.NoError(t, ws.Save(in))

	out, err := ws.Load(model.WxConfig{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
