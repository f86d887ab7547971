package weather

import (
	"encoding/json"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// healthHandler reports the daemon's dependency health: broker
// connectivity and the age/outcome of the last weather refresh.
type healthHandler struct {
	mqtt    mqtt.Client // may be nil when the bridge is disabled
	service *Service
	maxAge  time.Duration
}

func NewHealthHandler(m mqtt.Client, s *Service, maxAge time.Duration) http.Handler {
	if maxAge <= 0 {
		maxAge = 2 * time.Hour
	}
	return &healthHandler{mqtt: m, service: s, maxAge: maxAge}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string  `json:"status"`
		MQTTConnected bool    `json:"mqtt_connected"`
		RefreshAgeSec float64 `json:"last_refresh_age_sec"`
		RefreshError  string  `json:"last_refresh_error,omitempty"`
	}
	st := status{
		MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen(),
		RefreshAgeSec: h.service.LastRefreshAge().Seconds(),
	}
	if err := h.service.LastError(); err != nil {
		st.RefreshError = err.Error()
	}

	fresh := h.service.LastRefreshAge() < h.maxAge && h.service.LastError() == nil
	switch {
	case fresh && (h.mqtt == nil || st.MQTTConnected):
		st.Status = "ok"
	case fresh || st.MQTTConnected:
		st.Status = "degraded"
	default:
		st.Status = "down"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}
