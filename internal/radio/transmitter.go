package radio

import (
	"errors"
	"sync"
	"time"

	"github.com/muurk/lampsmart/internal/logging"
	"github.com/muurk/lampsmart/internal/metrics"
	"go.uber.org/zap"
)

// Transmission describes one completed advertise cycle.
type Transmission struct {
	Payload Payload
	Hold    time.Duration
	Started time.Time
	Err     error // Joined step failures, nil if every step succeeded
}

// Transmitter serializes access to an Advertiser.
type Transmitter struct {
	mu     sync.Mutex
	adv    Advertiser
	params Params
	sleep  func(time.Duration)

	obsMu     sync.RWMutex
	observers []func(Transmission)
}

// Option configures a Transmitter.
type Option func(*Transmitter)

// WithParams overrides DefaultParams.
func WithParams(p Params) Option {
	return func(t *Transmitter) { t.params = p }
}

// WithSleep replaces time.Sleep for the hold step. Tests use it to avoid
// real delays.
func WithSleep(fn func(time.Duration)) Option {
	return func(t *Transmitter) { t.sleep = fn }
}

// NewTransmitter wraps adv.
func NewTransmitter(adv Advertiser, opts ...Option) *Transmitter {
	t := &Transmitter{
		adv:    adv,
		params: DefaultParams(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Params returns the advertising parameters in use.
func (t *Transmitter) Params() Params { return t.params }

// Subscribe registers fn to be called after every transmission. fn runs on
// the sending goroutine and must not block.
func (t *Transmitter) Subscribe(fn func(Transmission)) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, fn)
}

// Send advertises payload for hold, then stops. It blocks for the full hold
// even if configuring or starting failed. Step failures are joined into the
// returned error.
func (t *Transmitter) Send(payload Payload, hold time.Duration) error {
	started, errs := t.advertise(payload, hold)

	err := errors.Join(errs...)
	metrics.TransmissionDurationSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.TransmissionsTotal.WithLabelValues(metrics.StatusError).Inc()
	} else {
		metrics.TransmissionsTotal.WithLabelValues(metrics.StatusOK).Inc()
	}
	logging.LogTransmission(payload[:], hold, err)

	t.notify(Transmission{Payload: payload, Hold: hold, Started: started, Err: err})
	return err
}

// advertise runs the configure, start, hold and stop steps under the radio
// lock.
func (t *Transmitter) advertise(payload Payload, hold time.Duration) (started time.Time, errs []error) {
	waitStart := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	metrics.RadioWaitSeconds.Observe(time.Since(waitStart).Seconds())

	started = time.Now()
	if err := t.adv.Configure(payload, t.params); err != nil {
		errs = append(errs, t.stepFailed(OpConfigure, err))
	}
	if err := t.adv.Start(); err != nil {
		errs = append(errs, t.stepFailed(OpStart, err))
	}
	t.sleep(hold)
	if err := t.adv.Stop(); err != nil {
		errs = append(errs, t.stepFailed(OpStop, err))
	}
	return started, errs
}

func (t *Transmitter) stepFailed(op string, err error) error {
	metrics.RadioErrorsTotal.WithLabelValues(op).Inc()
	logging.Warn("Radio operation failed", zap.String("op", op), zap.Error(err))
	return &OpError{Op: op, Err: err}
}

func (t *Transmitter) notify(tr Transmission) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, fn := range t.observers {
		fn(tr)
	}
}

// Close waits for any in-flight send and closes the advertiser.
func (t *Transmitter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.adv.Close()
}
