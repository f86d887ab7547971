// Package gate decides whether weather conditions block irrigation.
package gate

import (
	"strings"

	"github.com/greenside-labs/irrigator/internal/model"
)

// Reason tags, appended in evaluation order.
const (
	ReasonHistory         = "history"
	ReasonForecast        = "forecast"
	ReasonTemperature     = "temperature"
	ReasonForecastHistory = "forecast+history"
)

// Verdict is the outcome of a gate evaluation. Cancel is true if any
// enabled check tripped; Reasons lists the checks that tripped, in
// evaluation order.
type Verdict struct {
	Cancel  bool
	Reasons []string
}

// Blocked reports whether irrigation is actually blocked given the
// caller's force flag. Force bypasses the gate entirely but does not
// rewrite the verdict, so the tripped reasons can still be logged.
func (v Verdict) Blocked(force bool) bool {
	return v.Cancel && !force
}

func (v Verdict) String() string {
	if !v.Cancel {
		return "clear"
	}
	return strings.Join(v.Reasons, ", ")
}

// Evaluate runs the threshold checks against a weather snapshot. Each
// check is independently enable-gated and compares with strict
// greater-than; amounts exactly at the threshold do not cancel. The
// order of checks is fixed: history, forecast, temperature,
// forecast+history.
func Evaluate(st model.WeatherStatus, wx model.WxConfig) Verdict {
	var v Verdict

	if wx.HistoryEnable && st.RainHistoryTotal > wx.Precip {
		v.Cancel = true
		v.Reasons = append(v.Reasons, ReasonHistory)
	}
	if wx.ForecastEnable && st.RainForecast > wx.Precip {
		v.Cancel = true
		v.Reasons = append(v.Reasons, ReasonForecast)
	}
	if wx.TempEnable && (st.TempCurrent < wx.MinTemp || st.TempCurrent > wx.MaxTemp) {
		v.Cancel = true
		v.Reasons = append(v.Reasons, ReasonTemperature)
	}
	if wx.ForecastHistoryEnable && st.RainForecast+st.RainHistoryTotal > wx.Precip {
		v.Cancel = true
		v.Reasons = append(v.Reasons, ReasonForecastHistory)
	}
	return v
}
