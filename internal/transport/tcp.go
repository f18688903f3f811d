package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"midea-bridge/internal/protocol"
)

// tcpLink carries frames over a LAN module's TCP port.
type tcpLink struct {
	conn   net.Conn
	logger *slog.Logger
	frames chan []byte

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func openTCP(ctx context.Context, cfg Config, logger *slog.Logger) (*tcpLink, error) {
	var d net.Dialer
	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return newTCPLink(conn, logger), nil
}

func newTCPLink(conn net.Conn, logger *slog.Logger) *tcpLink {
	l := &tcpLink{
		conn:   conn,
		logger: logger,
		frames: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.readLoop()
	return l
}

func (l *tcpLink) Send(frame []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if _, err := l.conn.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (l *tcpLink) Frames() <-chan []byte { return l.frames }

func (l *tcpLink) readLoop() {
	defer l.wg.Done()
	defer close(l.frames)

	var splitter protocol.Splitter
	buf := make([]byte, 512)
	for {
		n, err := l.conn.Read(buf)
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
			if !errors.Is(err, io.EOF) && !isClosed(l.done) {
				l.logger.Warn("tcp read", "err", err)
			}
			return
		}
	}
}

func (l *tcpLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.conn.Close()
		l.wg.Wait()
	})
	return err
}

func isClosed(done chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
