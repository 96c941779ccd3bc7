package output

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Sink defines a destination for round results and events.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager coordinates writing results to multiple sinks.
type Manager struct {
	sinks []Sink
}

func NewManager() *Manager {
	return &Manager{}
}

// Options selects the sinks Build creates.
type Options struct {
	NoConsole           bool
	ConsoleFormat       string
	ConsoleFilterStatus []string
	Emit                []string
	Out                 string
	OutFormat           string
	Report              string
	// Console and Stream default to os.Stderr and os.Stdout.
	Console io.Writer
	Stream  io.Writer
}

// Build creates a Manager with the sinks described by opts. On error every
// sink opened so far is closed.
func Build(opts Options) (*Manager, error) {
	m := NewManager()
	fail := func(err error) (*Manager, error) {
		_ = m.Close()
		return nil, err
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	stream := opts.Stream
	if stream == nil {
		stream = os.Stdout
	}

	if !opts.NoConsole {
		if err := m.AddSink(NewConsoleSink(console, opts.ConsoleFormat, opts.ConsoleFilterStatus)); err != nil {
			return fail(err)
		}
	}
	for _, format := range opts.Emit {
		es, err := NewEmitSink(stream, format)
		if err != nil {
			return fail(err)
		}
		if err := m.AddSink(es); err != nil {
			return fail(err)
		}
	}
	if opts.Out != "" {
		fs, err := NewFileSink(opts.Out, opts.OutFormat)
		if err != nil {
			return fail(err)
		}
		if err := m.AddSink(fs); err != nil {
			return fail(err)
		}
	}
	if opts.Report != "" {
		rs, err := NewReportSink(opts.Report)
		if err != nil {
			return fail(err)
		}
		if err := m.AddSink(rs); err != nil {
			return fail(err)
		}
	}
	return m, nil
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
