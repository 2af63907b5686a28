// Package serialport reads newline-delimited JSON events from panel
// microcontrollers and queues them per port.
package serialport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"go.bug.st/serial"

	"panelsound/internal/dispatcher"
	"panelsound/internal/logger"
	"panelsound/internal/models"
)

const DefaultBaud = 19200

const (
	readBufBytes = 4096
	maxLineBytes = 64 * 1024
)

var ErrNoPorts = errors.New("no serial ports found")

// DefaultPatterns match USB serial adapters and CDC-ACM boards.
var DefaultPatterns = []string{"ttyUSB", "ttyACM"}

// listPorts is swapped out in tests.
var listPorts = serial.GetPortsList

// Channel is one open serial port feeding its own event queue.
type Channel struct {
	log    *logger.Logger
	path   string
	port   io.ReadCloser
	source *dispatcher.QueueSource

	closeOnce sync.Once
}

// Open opens path at baud, 8N1.
func Open(path string, baud int, log *logger.Logger) (*Channel, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if log != nil {
		log.Infow("serial_port_opened", "port", path, "baud", baud)
	}
	return NewChannel(path, port, log), nil
}

// NewChannel wraps an already open reader.
func NewChannel(path string, port io.ReadCloser, log *logger.Logger) *Channel {
	if log == nil {
		log = logger.NewNop()
	}
	return &Channel{
		log:    log,
		path:   path,
		port:   port,
		source: dispatcher.NewQueueSource(path),
	}
}

// Path is the device the channel reads from.
func (c *Channel) Path() string { return c.path }

// Source is the queue the dispatcher polls for this channel.
func (c *Channel) Source() *dispatcher.QueueSource { return c.source }

// Run reads lines until the port fails or ctx is canceled, at which point
// the port is closed. Undecodable lines are logged and dropped.
func (c *Channel) Run(ctx context.Context) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-stop:
		}
	}()

	if err := c.readLines(); err != nil && ctx.Err() == nil {
		c.log.Errorw("serial_read_failed", "port", c.path, "error", err)
	}
	c.Close()
	c.log.Infow("serial_channel_stopped", "port", c.path)
}

// readLines hands every line to handleLine. Lines longer than maxLineBytes
// are discarded up to the next newline. It returns nil on EOF.
func (c *Channel) readLines() error {
	reader := bufio.NewReaderSize(c.port, readBufBytes)
	var (
		line    []byte
		dropped int
	)
	for {
		chunk, err := reader.ReadSlice('\n')
		switch {
		case dropped > 0:
			dropped += len(chunk)
		case len(line)+len(chunk) > maxLineBytes:
			dropped = len(line) + len(chunk)
			line = line[:0]
		default:
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if dropped > 0 {
			c.log.Warnw("serial_line_too_long", "port", c.path, "bytes", dropped, "limit", maxLineBytes)
			dropped = 0
		} else if len(line) > 0 {
			c.handleLine(line)
		}
		line = line[:0]

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}

func (c *Channel) handleLine(line []byte) {
	c.log.Debugw("serial_line", "port", c.path, "line", string(line))
	ev, err := models.DecodeEvent(line)
	switch {
	case errors.Is(err, models.ErrEmptyLine):
		return
	case err != nil:
		c.log.Warnw("serial_invalid_json", "port", c.path, "line", string(line), "error", err)
		return
	}
	if err := c.source.Push(ev); err != nil {
		c.log.Warnw("serial_queue_closed", "port", c.path, "component", ev.Component)
	}
}

// Close closes the port. Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		if err := c.port.Close(); err != nil {
			c.log.Warnw("serial_close_failed", "port", c.path, "error", err)
		}
	})
}

// Discover lists serial ports whose name contains one of patterns.
func Discover(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	all, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	var ports []string
	for _, p := range all {
		for _, pat := range patterns {
			if strings.Contains(p, pat) {
				ports = append(ports, p)
				break
			}
		}
	}
	if len(ports) == 0 {
		return nil, ErrNoPorts
	}
	sort.Strings(ports)
	return ports, nil
}

// Resolve returns the configured ports, or discovered ones when none are
// configured and discovery is enabled.
func Resolve(configured []string, discover bool, patterns []string) ([]string, error) {
	if len(configured) > 0 {
		return configured, nil
	}
	if !discover {
		return nil, ErrNoPorts
	}
	return Discover(patterns)
}
