// Package daemon is the companion long-running process: it refreshes
// the weather cache on a schedule, bridges MQTT override requests into
// the shared config document, and serves health and metrics endpoints.
// The config file on disk stays the single source of truth the control
// engine polls; the daemon only writes into it like any other actor,
// last writer wins.
package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenside-labs/irrigator/internal/services/weather"
	"github.com/greenside-labs/irrigator/internal/store"
	"github.com/greenside-labs/irrigator/pkg/dedup"
	"github.com/greenside-labs/irrigator/pkg/mqttbus"
)

type Config struct {
	ListenAddr   string
	RefreshEvery time.Duration
}

type Daemon struct {
	store    *store.Store
	weather  *weather.Service
	consumer mqttbus.IConsumer // optional override bridge
	mqtt     mqtt.Client       // nil when the bridge is disabled
	deduper  *dedup.Deduper
	cfg      Config
}

func New(st *store.Store, ws *weather.Service, cfg Config) *Daemon {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":9040"
	}
	if cfg.RefreshEvery <= 0 {
		cfg.RefreshEvery = 30 * time.Minute
	}
	return &Daemon{
		store:   st,
		weather: ws,
		deduper: dedup.New(10*time.Minute, 20000),
		cfg:     cfg,
	}
}

// AttachOverrideBridge wires the MQTT override subscription. The
// client is only used for connectivity reporting in /healthz.
func (d *Daemon) AttachOverrideBridge(client mqtt.Client, consumer mqttbus.IConsumer) {
	d.mqtt = client
	d.consumer = consumer
}

// Start runs the daemon until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(d.cfg.RefreshEvery),
		gocron.NewTask(func() {
			rctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if _, err := d.weather.Refresh(rctx); err != nil {
				log.Printf("daemon: weather refresh: %v", err)
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("refresh job: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Printf("daemon: scheduler shutdown: %v", err)
		}
	}()

	if d.consumer != nil {
		d.consumer.SetHandler(d.handleOverride)
		go d.consumer.Consume(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", weather.NewHealthHandler(d.mqtt, d.weather, 3*d.cfg.RefreshEvery))
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: d.cfg.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("daemon: listening on %s", d.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// overrideRequest is the bridge message shape on irrigator/override.
type overrideRequest struct {
	ManualOverride bool `json:"manual_override"`
}

// handleOverride writes the requested override flag into the shared
// document. Duplicate QoS 1 redeliveries are dropped by payload hash.
func (d *Daemon) handleOverride(_ string, msg mqtt.Message) error {
	h := sha256.Sum256(msg.Payload())
	if !d.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
		return nil
	}

	var req overrideRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		log.Printf("daemon: bad override payload: %v", err)
		return nil
	}

	doc, err := d.store.Load()
	if err != nil {
		return err
	}
	doc.Controls.ManualOverride = req.ManualOverride
	if err := d.store.Save(doc); err != nil {
		return err
	}
	log.Printf("daemon: manual_override set to %v", req.ManualOverride)
	return nil
}
