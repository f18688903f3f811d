// Package transport provides the byte links that carry appliance frames: a
// TCP link for LAN modules and a serial link for UART dongles. A Link owns
// one connection, reassembles the inbound byte stream into complete frames
// and hands them to the consumer on a channel.
package transport

import (
	"context"
	"fmt"
	"log/slog"
)

// Link is one open connection to an appliance.
type Link interface {
	// Send writes one complete frame to the device.
	Send(frame []byte) error

	// Frames returns the channel of reassembled inbound frames. The channel
	// is closed when the link goes down.
	Frames() <-chan []byte

	Close() error
}

// Config selects and parameterizes a link.
type Config struct {
	Transport  string // "tcp" or "serial"
	Address    string
	Port       int
	SerialPort string
	BaudRate   int
}

// Open establishes the configured link.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Link, error) {
	switch cfg.Transport {
	case "tcp":
		return openTCP(ctx, cfg, logger)
	case "serial":
		return openSerial(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}
