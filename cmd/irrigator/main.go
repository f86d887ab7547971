package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/greenside-labs/irrigator/internal/engine"
	"github.com/greenside-labs/irrigator/internal/events"
	"github.com/greenside-labs/irrigator/internal/services/daemon"
	"github.com/greenside-labs/irrigator/internal/services/weather"
	"github.com/greenside-labs/irrigator/internal/store"
	"github.com/greenside-labs/irrigator/pkg/mqttbus"
)

var CLI struct {
	JSON   string `short:"j" help:"Alternative config/state document path" default:"irrigator.json"`
	WxJSON string `name:"wx-json" help:"Weather status document path" default:"wx_status.json"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the sprinkler control engine once"`
	Weather WeatherCmd `cmd:"" help:"Refresh the weather status cache once"`
	Daemon  DaemonCmd  `cmd:"" help:"Run the companion daemon (weather refresh, override bridge, metrics)"`
}

type RunCmd struct {
	Zone     string `short:"z" help:"Manually turn on zone (manual mode)"`
	Duration int    `short:"d" help:"Duration in minutes (works with manual zone control only)"`
	Schedule string `short:"s" help:"Name of schedule/program to run (auto mode)"`
	Force    bool   `short:"f" help:"Force irrigation regardless of weather"`
	Init     bool   `short:"i" help:"Initialize relays (on first boot)"`
}

// Run executes one control invocation; the process exit status is the
// engine's accumulated error code.
func (c *RunCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(CLI.JSON)
	wx := store.NewWeatherStore(CLI.WxJSON)

	sink, statePub, closeSinks, err := buildSinks(ctx)
	if err != nil {
		return err
	}

	orch := engine.New(st, wx, sink)
	if statePub != nil {
		orch.SetStatePublisher(statePub)
	}

	code := orch.Run(ctx, engine.Options{
		Zone:     c.Zone,
		Duration: c.Duration,
		Schedule: c.Schedule,
		Force:    c.Force,
		Init:     c.Init,
	})
	closeSinks()
	os.Exit(code)
	return nil
}

type WeatherCmd struct{}

func (c *WeatherCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(CLI.JSON)
	wx := store.NewWeatherStore(CLI.WxJSON)

	svc := weather.NewService(st, wx, weather.NewOWMClient(apiKey(st)))
	if _, err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("weather refresh: %w", err)
	}
	return nil
}

type DaemonCmd struct {
	Listen  string `help:"Health/metrics listen address" default:":9040"`
	Refresh int    `help:"Weather refresh interval in minutes" default:"30"`
}

func (c *DaemonCmd) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(CLI.JSON)
	wx := store.NewWeatherStore(CLI.WxJSON)
	svc := weather.NewService(st, wx, weather.NewOWMClient(apiKey(st)))

	d := daemon.New(st, svc, daemon.Config{
		ListenAddr:   c.Listen,
		RefreshEvery: time.Duration(c.Refresh) * time.Minute,
	})

	if host := os.Getenv("MQTT_HOST"); host != "" {
		client, err := mqttbus.NewConn(mqttConfig("IrrigatorDaemon"), ctx)
		if err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
		consumer := mqttbus.NewConsumer(client, mqttbus.TopicOverride, nil)
		d.AttachOverrideBridge(client, consumer)
	}

	return d.Start(ctx)
}

// buildSinks assembles the event sinks for a control run: the local
// line log always, MQTT and Influx mirrors when configured through the
// environment.
func buildSinks(ctx context.Context) (events.Sink, events.StatePublisher, func(), error) {
	logger, err := events.NewLogger(env("EVENT_LOG", events.DefaultLogPath))
	if err != nil {
		return nil, nil, nil, err
	}
	sinks := events.Multi{logger}
	var statePub events.StatePublisher

	if host := os.Getenv("MQTT_HOST"); host != "" {
		client, err := mqttbus.NewConn(mqttConfig("IrrigatorControl"), ctx)
		if err != nil {
			log.Printf("main: mqtt unavailable, events stay local: %v", err)
		} else {
			mqttSink := events.NewMQTTSink(mqttbus.NewPublisher(client, mqttbus.TopicEvents))
			sinks = append(sinks, mqttSink)
			statePub = mqttSink
		}
	}

	if url := os.Getenv("INFLUX_URL"); url != "" {
		recorder, err := events.NewInfluxRecorder(events.InfluxConfig{
			URL:    url,
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    env("INFLUX_ORG", "irrigator"),
			Bucket: env("INFLUX_BUCKET", "irrigator"),
		})
		if err != nil {
			log.Printf("main: influx unavailable, events stay local: %v", err)
		} else {
			sinks = append(sinks, recorder)
		}
	}

	return sinks, statePub, sinks.Close, nil
}

func mqttConfig(name string) *mqttbus.Config {
	return &mqttbus.Config{
		Host:     env("MQTT_HOST", "localhost"),
		Port:     envInt("MQTT_PORT", 1883),
		User:     env("MQTT_USER", "guest"),
		Password: env("MQTT_PASSWORD", "guest"),
		ClientID: fmt.Sprintf("%s-%s", name, env("HOSTNAME", "local")),
	}
}

// apiKey prefers the key in the config document, falling back to the
// environment.
func apiKey(st *store.Store) string {
	if doc, err := st.Load(); err == nil && doc.WxData.APIKey != "" {
		return doc.WxData.APIKey
	}
	return os.Getenv("OWM_API_KEY")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&CLI,
		kong.Name("irrigator"),
		kong.Description("Sprinkler zone irrigation controller."),
	)
	if err := ctx.Run(); err != nil {
		log.Printf("main: %v", err)
		os.Exit(1)
	}
}
