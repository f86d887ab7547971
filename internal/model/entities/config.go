package entities

// Zone represents a single addressable sprinkler valve and the relay
// output that drives it.
type Zone struct {
	GPIOMapping int  `json:"GPIO_mapping"` // physical pin driving the relay
	Enabled     bool `json:"enabled"`
	Active      bool `json:"active"` // true only while the relay is engaged
}

// ZoneEntry is one zone/duration assignment inside a schedule.
type ZoneEntry struct {
	Duration int `json:"duration"` // minutes; 0 means skip
}

// StartTime carries the schedule envelope state. The active flag is the
// external-visibility signal a UI or monitor reads while a program runs.
type StartTime struct {
	Hour   int  `json:"hour"`
	Minute int  `json:"minute"`
	Active bool `json:"active"`
}

// Schedule is a named program mapping zones to run durations.
type Schedule struct {
	StartTime StartTime            `json:"start_time"`
	Zones     map[string]ZoneEntry `json:"zones"`
}

// Settings holds per-installation hardware configuration.
type Settings struct {
	RelayTrigger int    `json:"relay_trigger"` // logic level that means "relay engaged"
	TargetSys    string `json:"target_sys"`    // "RasPi", "CHIP", anything else = prototype
	ZoneGate     int    `json:"zone_gate"`     // shared gate pin
}

// Controls are the transient flags shared with the companion process.
// ManualOverride is externally settable and instructs an in-progress
// zone run to stop early.
type Controls struct {
	Active         bool `json:"active"`
	ManualOverride bool `json:"manual_override"`
}

// WxConfig is the configuration half of the weather data: location,
// units, thresholds and per-check enable flags.
type WxConfig struct {
	Location              string  `json:"location"`
	Latitude              float64 `json:"lat"`
	Longitude             float64 `json:"long"`
	APIKey                string  `json:"apikey"`
	Units                 string  `json:"units"` // "F" = imperial (inches), anything else metric (mm)
	Precip                float64 `json:"precip"`
	MinTemp               float64 `json:"min_temp"`
	MaxTemp               float64 `json:"max_temp"`
	HistoryEnable         bool    `json:"history_enable"`
	ForecastEnable        bool    `json:"forecast_enable"`
	TempEnable            bool    `json:"temp_enable"`
	ForecastHistoryEnable bool    `json:"forecast_history_enable"`
	HistoryDays           int     `json:"history_days"`
	ForecastDays          int     `json:"forecast_days"`
}

// Document is the single persisted configuration+state document. It is
// read-modify-written by both the control engine and the companion
// long-running process; last writer wins.
type Document struct {
	ZoneMap   map[string]Zone     `json:"zonemap"`
	Schedules map[string]Schedule `json:"schedules"`
	Settings  Settings            `json:"settings"`
	Controls  Controls            `json:"controls"`
	WxData    WxConfig            `json:"wx_data"`
}

// PrecipUnits returns the display unit for precipitation amounts.
func (w WxConfig) PrecipUnits() string {
	if w.Units == "F" {
		return "inches"
	}
	return "mm"
}
