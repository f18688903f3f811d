package transport

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"midea-bridge/internal/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testFrame(t *testing.T) []byte {
	t.Helper()
	frame, err := protocol.Marshal(protocol.NewMessage(protocol.TypeB1, protocol.KindQuery, 0))
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestTCPLinkReceivesFrames(t *testing.T) {
	client, server := net.Pipe()
	l := newTCPLink(client, testLogger())
	defer l.Close()

	frame := testFrame(t)

	// Deliver the frame split across two writes with leading noise.
	go func() {
		server.Write(append([]byte{0x00, 0x7F}, frame[:3]...))
		server.Write(frame[3:])
	}()

	select {
	case got := <-l.Frames():
		if !bytes.Equal(got, frame) {
			t.Errorf("frame = % X, want % X", got, frame)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame received")
	}
}

func TestTCPLinkSend(t *testing.T) {
	client, server := net.Pipe()
	l := newTCPLink(client, testLogger())
	defer l.Close()

	frame := testFrame(t)
	errCh := make(chan error, 1)
	go func() { errCh <- l.Send(frame) }()

	buf := make([]byte, len(frame))
	if _, err := server.Read(buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, frame) {
		t.Errorf("sent = % X, want % X", buf, frame)
	}
	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
}

func TestTCPLinkCloseEndsFrames(t *testing.T) {
	client, server := net.Pipe()
	l := newTCPLink(client, testLogger())
	server.Close()

	select {
	case _, ok := <-l.Frames():
		if ok {
			t.Fatal("unexpected frame")
		}
	case <-time.After(time.Second):
		t.Fatal("frames channel not closed")
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenUnknownTransport(t *testing.T) {
	if _, err := Open(context.Background(), Config{Transport: "carrier-pigeon"}, testLogger()); err == nil {
		t.Fatal("expected error")
	}
}
