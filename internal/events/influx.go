package events

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxConfig configures the optional telemetry recorder.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxRecorder mirrors the event stream into InfluxDB as
// system_event points, one per line. Write failures are logged and
// swallowed; telemetry must never stop the control engine.
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	host     string
}

func NewInfluxRecorder(cfg InfluxConfig) (*InfluxRecorder, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	host, _ := os.Hostname()
	return &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		host:     host,
	}, nil
}

func (r *InfluxRecorder) Event(msg string) {
	tags := map[string]string{"host": r.host}
	fields := map[string]interface{}{"message": msg}
	point := influxdb2.NewPoint("system_event", tags, fields, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		log.Printf("events: influx write error: %v", err)
	}
}

func (r *InfluxRecorder) Close() {
	r.client.Close()
}
