package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/san-kum/statesim/internal/dynamo"
	"github.com/san-kum/statesim/internal/integrators"
	"github.com/san-kum/statesim/internal/series"
)

// Simulator steps one model over a fixed horizon and records every signal
// after every step. It owns the model for the duration of the run.
type Simulator struct {
	model  dynamo.Model
	integ  dynamo.Integrator
	cfg    Config
	steps  int
	names  []string
	store  *series.Store
	next   int
	err    error
	logger *slog.Logger
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// New validates cfg and seeds the series store with t=0 and the model's
// initial signal snapshot.
func New(cfg Config, m dynamo.Model, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Scheme)
	if err != nil {
		return nil, err
	}

	names := m.SignalNames()
	signals := m.Signals()
	if len(names) != len(signals) {
		return nil, fmt.Errorf("%w: %d names for %d signals", dynamo.ErrSignalMismatch, len(names), len(signals))
	}

	store, err := series.New(append([]string{series.TimeKey}, names...)...)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		model:  m,
		integ:  integ,
		cfg:    cfg,
		steps:  cfg.Steps(),
		names:  names,
		store:  store,
		next:   1,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	store.Grow(s.steps)
	if err := store.AppendRow(append([]float64{0}, signals...)); err != nil {
		return nil, err
	}

	return s, nil
}

// Step advances the model by one Dt and records the new sample. It reports
// true once all samples are recorded. After a failure the simulator is dead
// and keeps returning the same error.
func (s *Simulator) Step() (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.next >= s.steps {
		return true, nil
	}

	if err := s.integ.Step(s.model, s.cfg.Dt); err != nil {
		s.err = fmt.Errorf("step %d: %w", s.next, err)
		return false, s.err
	}

	signals := s.model.Signals()
	if len(signals) != len(s.names) {
		s.err = fmt.Errorf("%w: step %d: expected %d signals, got %d",
			dynamo.ErrSignalMismatch, s.next, len(s.names), len(signals))
		return false, s.err
	}

	row := make([]float64, 0, len(signals)+1)
	row = append(row, float64(s.next)*s.cfg.Dt)
	row = append(row, signals...)
	if err := s.store.AppendRow(row); err != nil {
		s.err = err
		return false, err
	}

	s.next++
	return s.next >= s.steps, nil
}

// Run records the remaining samples. The context is checked between steps.
func (s *Simulator) Run(ctx context.Context) error {
	start := time.Now()
	s.logger.Debug("simulation started",
		"steps", s.steps,
		"dt", s.cfg.Dt,
		"scheme", string(s.cfg.Scheme),
		"signals", len(s.names),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		done, err := s.Step()
		if err != nil {
			s.logger.Debug("simulation failed", "step", s.next, "error", err)
			return err
		}
		if done {
			break
		}
	}

	s.logger.Debug("simulation finished",
		"samples", s.store.Len(),
		"elapsed", time.Since(start),
	)
	return nil
}

// WriteCSV writes the header "time,<signal names>" and one row per recorded
// sample.
func (s *Simulator) WriteCSV(w io.Writer) error {
	return s.store.WriteCSV(w)
}

// Export writes the recorded table to path. The parent directory must exist.
func (s *Simulator) Export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &dynamo.IOError{Op: "create", Path: path, Err: err}
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return &dynamo.IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &dynamo.IOError{Op: "close", Path: path, Err: err}
	}
	s.logger.Debug("exported run", "path", path, "rows", s.store.Len())
	return nil
}

func (s *Simulator) Series() *series.Store { return s.store }
func (s *Simulator) Model() dynamo.Model    { return s.model }
func (s *Simulator) Config() Config         { return s.cfg }

// SignalNames returns the model's signal names, without "time".
func (s *Simulator) SignalNames() []string {
	return append([]string(nil), s.names...)
}

// Steps returns the total number of samples a complete run records.
func (s *Simulator) Steps() int { return s.steps }

// Recorded returns the number of samples recorded so far.
func (s *Simulator) Recorded() int { return s.next }

// Time returns the time of the latest recorded sample.
func (s *Simulator) Time() float64 { return float64(s.next-1) * s.cfg.Dt }

func (s *Simulator) Done() bool { return s.err == nil && s.next >= s.steps }
