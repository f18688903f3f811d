package transport

import (
	"fmt"
	"log/slog"
	"sync"

	"go.bug.st/serial"

	"midea-bridge/internal/protocol"
)

const defaultBaudRate = 9600

// serialLink carries frames over a UART dongle wired to the appliance bus.
type serialLink struct {
	port     serial.Port
	portName string
	logger   *slog.Logger
	frames   chan []byte

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func openSerial(cfg Config, logger *slog.Logger) (*serialLink, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.SerialPort, err)
	}

	// USB CDC ACM adapters need DTR/RTS asserted before they transmit.
	_ = port.SetDTR(true)
	_ = port.SetRTS(true)

	l := &serialLink{
		port:     port,
		portName: cfg.SerialPort,
		logger:   logger,
		frames:   make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	l.wg.Add(1)
	go l.readLoop()
	return l, nil
}

func (l *serialLink) Send(frame []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := l.port.Write(frame); err != nil {
		return fmt.Errorf("write %s: %w", l.portName, err)
	}
	return nil
}

func (l *serialLink) Frames() <-chan []byte { return l.frames }

func (l *serialLink) readLoop() {
	defer l.wg.Done()
	defer close(l.frames)

	var splitter protocol.Splitter
	buf := make([]byte, 256)
	for {
		n, err := l.port.Read(buf)
		if n > 0 {
			for _, frame := range splitter.Feed(buf[:n]) {
				select {
				case l.frames <- frame:
				case <-l.done:
					return
				}
			}
		}
		if err != nil {
			if !isClosed(l.done) {
				l.logger.Warn("serial read", "port", l.portName, "err", err)
			}
			return
		}
	}
}

func (l *serialLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.port.Close()
		l.wg.Wait()
	})
	return err
}
