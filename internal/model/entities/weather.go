package entities

// WeatherStatus is the snapshot produced by the weather collaborator
// and consumed read-only by the control engine. All numeric fields are
// present or defaulted to a safe non-blocking value on fetch failure.
type WeatherStatus struct {
	TempCurrent      float64 `json:"temp_current"`
	RainCurrent      float64 `json:"rain_current"`
	RainHistoryTotal float64 `json:"rain_history_total"`
	RainForecast     float64 `json:"rain_forecast"`
	Summary          string  `json:"summary"`
	Icon             string  `json:"icon"`
	Updated          string  `json:"updated"`
	Dt               int64   `json:"dt"`
}
