package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/lampsmart/internal/client"
	"github.com/muurk/lampsmart/internal/config"
	"github.com/muurk/lampsmart/internal/device"
	"github.com/muurk/lampsmart/internal/discovery"
	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/radio"
	"github.com/muurk/lampsmart/internal/server"
	"github.com/muurk/lampsmart/internal/ui"
)

// session is a ready-to-use operator plus whatever must be released with it.
type session struct {
	op     device.Operator
	source string // "hci0", "dry-run" or the bridge URL
	tips   []string

	tx     *radio.Transmitter // Local sessions only
	fleet  *device.Fleet      // Local sessions only
	client *client.Client     // Bridge sessions only
}

// Close releases the radio, if any.
func (s *session) Close() {
	if s.tx != nil {
		if err := s.tx.Close(); err != nil {
			logging.Warn("Failed to close radio", zap.Error(err))
		}
	}
}

// Events streams transmissions until ctx ends. Local sessions subscribe to
// the transmitter; bridge sessions watch the bridge's event stream.
func (s *session) Events(ctx context.Context) <-chan server.Event {
	ch := make(chan server.Event, 16)
	push := func(ev server.Event) {
		select {
		case ch <- ev:
		default:
		}
	}

	if s.tx != nil {
		s.tx.Subscribe(func(tr radio.Transmission) { push(server.NewEvent(tr)) })
		return ch
	}

	go func() {
		if err := s.client.Watch(ctx, push); err != nil {
			logging.Warn("Event stream ended", zap.Error(err))
		}
	}()
	return ch
}

// loadRegistry reads and validates the device registry.
func loadRegistry() (*config.Registry, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		path, _ := config.GetConfigPath()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// openSession connects to the bridge when --bridge is set and otherwise
// opens the local radio for the configured devices.
func openSession(ctx context.Context) (*session, error) {
	if bridgeURL != "" {
		return openBridge(ctx, bridgeURL)
	}

	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	adv, source, err := openAdvertiser(reg)
	if err != nil {
		return nil, withHints(err, ui.RadioTroubleshooting())
	}
	return newLocalSession(reg, adv, source)
}

func newLocalSession(reg *config.Registry, adv radio.Advertiser, source string) (*session, error) {
	opts := []radio.Option{radio.WithParams(radioParams(reg))}
	if source == "dry-run" {
		opts = append(opts, radio.WithSleep(func(time.Duration) {}))
	}
	tx := radio.NewTransmitter(adv, opts...)

	if source == "dry-run" {
		tx.Subscribe(func(tr radio.Transmission) {
			fmt.Fprintf(os.Stdout, "%s  %s\n", ui.HexStyle.Render(strings.ToUpper(fmt.Sprintf("% x", tr.Payload[:]))),
				formatTransmission(tr))
		})
	}

	fleet, err := device.NewFleet(reg, tx)
	if err != nil {
		_ = tx.Close()
		return nil, err
	}
	return &session{
		op:     fleet,
		source: source,
		tips:   ui.RadioTroubleshooting(),
		tx:     tx,
		fleet:  fleet,
	}, nil
}

func formatTransmission(tr radio.Transmission) string {
	ev := server.NewEvent(tr)
	return fmt.Sprintf("%s host=%s group=%d args=%d,%d", ev.Opcode, ev.HostID, ev.GroupID, ev.Arg1, ev.Arg2)
}

// openAdvertiser picks the radio: a Recorder for --dry-run, else the HCI
// controller from --hci or the config.
func openAdvertiser(reg *config.Registry) (radio.Advertiser, string, error) {
	if dryRun {
		return radio.NewRecorder(), "dry-run", nil
	}

	index := hciIndex
	if index < 0 {
		index = 0
		if reg.Radio != nil {
			index = reg.Radio.HCIDevice
		}
	}
	adv, err := radio.OpenHCI(index)
	if err != nil {
		return nil, "", err
	}
	return adv, fmt.Sprintf("hci%d", index), nil
}

func radioParams(reg *config.Registry) radio.Params {
	p := radio.DefaultParams()
	if reg.Radio != nil && reg.Radio.Interval != 0 {
		p.IntervalMin = reg.Radio.Interval
		p.IntervalMax = reg.Radio.Interval
	}
	return p
}

// openBridge connects to url. The special value "auto" finds a bridge over
// mDNS.
func openBridge(ctx context.Context, url string) (*session, error) {
	if url == "auto" {
		scanner := discovery.NewScanner()
		b, err := scanner.WaitForBridge(ctx, "")
		if err != nil {
			return nil, withHints(err, []string{
				"Start a bridge with: lampsmart serve",
				"mDNS needs multicast on UDP port 5353",
				"Pass the bridge URL directly: --bridge http://host:8750",
			})
		}
		url = b.BaseURL()
		logging.Info("Using discovered bridge", zap.String("instance", b.Instance), zap.String("url", url))
	}

	c, err := client.New(url)
	if err != nil {
		return nil, err
	}
	return &session{
		op:     c,
		source: c.BaseURL(),
		tips:   ui.BridgeTroubleshooting(c.BaseURL()),
		client: c,
	}, nil
}
