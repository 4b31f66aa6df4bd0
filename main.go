package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"aprsnoop/clock"
	"aprsnoop/config"
	"aprsnoop/device/aprsis"
	"aprsnoop/device/kiss"
	"aprsnoop/handler"
	"aprsnoop/location"
	"aprsnoop/logging"
	"aprsnoop/metrics"
	"aprsnoop/packet"
	"aprsnoop/telemetry"
	"aprsnoop/ui/feed"

	tea "github.com/charmbracelet/bubbletea"
)

// PacketClient defines the interface for TNC/network clients
type PacketClient interface {
	Start(chan<- *packet.Packet)
	Close()
}

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	debug := flag.Bool("debug", false, "log debug lines")
	tui := flag.Bool("tui", false, "show the live terminal view (overrides display.mode)")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *tui {
		conf.Display.Mode = config.DisplayTUI
	}

	logFile := ""
	if conf.Display.Mode == config.DisplayTUI {
		logFile = conf.Display.LogFile
	}
	closer, err := logging.Setup(logFile)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closer.Close()
	logging.SetDebug(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf); err != nil {
		log.Fatalf("%v", err)
	}
}

// connect opens the configured packet source.
func connect(conf config.Config) (PacketClient, error) {
	switch conf.Interface.Type {
	case config.InterfaceKISS:
		return kiss.Connect(conf.Interface)
	case config.InterfaceAPRSIS:
		return aprsis.Connect(conf)
	}
	return nil, fmt.Errorf("unknown interface type in config: %s", conf.Interface.Type)
}

// newLocator builds the reverse geocoding chain, or a disabled locator when
// reverse geocoding is off.
func newLocator(conf config.GeoConfig) *location.Locator {
	if !conf.ReverseGeo {
		return location.NewLocator(nil)
	}
	var geocoder location.Geocoder = location.NewNominatim(conf.NominatimURL, conf.UserAgent, conf.Timeout.Duration)
	if rdb := location.OpenRedis(conf.RedisAddr, conf.RedisPass, conf.RedisDB); rdb != nil {
		log.Printf("Sharing geocode results through redis at %s", conf.RedisAddr)
		geocoder = location.NewRedisGeocoder(rdb, geocoder, conf.CacheTTL.Duration)
	}
	return location.NewLocator(location.NewCache(geocoder, conf.CacheTTL.Duration, clock.Real{}))
}

// run wires everything together and blocks until the packet source ends or
// ctx is cancelled.
func run(ctx context.Context, conf config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if conf.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, conf.Metrics.Listen); err != nil {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
	}

	client, err := connect(conf)
	if err != nil {
		return fmt.Errorf("failed to connect to interface: %w", err)
	}
	defer client.Close()
	go func() {
		<-ctx.Done()
		client.Close()
	}()

	var (
		out     io.Writer = os.Stdout
		program *tea.Program
	)
	if conf.Display.Mode == config.DisplayTUI {
		program = tea.NewProgram(initialModel(conf), tea.WithAltScreen(), tea.WithContext(ctx))
		out = feed.NewWriter(program.Send)
	}

	reassembler := telemetry.New(out,
		telemetry.WithCleanInterval(conf.Telemetry.CleanInterval.Duration),
		telemetry.WithMaxAge(conf.Telemetry.MaxAge.Duration),
	)
	reassembler.Start()
	defer reassembler.Stop()

	c := &consumer{
		dispatcher: handler.NewDispatcher(handler.Deps{
			Out:       out,
			Locator:   newLocator(conf.Geo),
			Telemetry: reassembler,
		}),
		clock: clock.Real{},
	}

	packets := make(chan *packet.Packet)
	go client.Start(packets)

	if program == nil {
		n := c.run(packets)
		log.Printf("Packet source ended after %d packets", n)
		return nil
	}

	c.observe = func(pkt *packet.Packet) { program.Send(pkt) }
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.run(packets)
		program.Send(feedClosedMsg{})
	}()

	_, err = program.Run()
	cancel()
	<-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal view failed: %w", err)
	}
	return nil
}
