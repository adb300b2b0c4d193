package sink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hidproxy/hidproxy/pkg"
	"github.com/hidproxy/hidproxy/sink"
)

func TestSendReportWritesThroughToWriter(t *testing.T) {
	var got []byte
	s := sink.Init(func(buf []byte) error {
		got = append([]byte(nil), buf...)
		return nil
	}, nil)

	if err := s.SendReport(context.Background(), sink.InterfaceMouse, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if string(got) != "\x01\x02\x03" {
		t.Errorf("writer received %v, want [1 2 3]", got)
	}
}

func TestSendReportUnconfiguredInterfaceWouldBlock(t *testing.T) {
	s := sink.Init(nil, nil) // neither interface has a writer
	err := s.SendReport(context.Background(), sink.InterfaceKeyboard, []byte{0})
	if !errors.Is(err, pkg.ErrWouldBlock) {
		t.Errorf("err = %v, want ErrWouldBlock", err)
	}
}

func TestCleanupMakesSubsequentSendsWouldBlock(t *testing.T) {
	s := sink.Init(func(buf []byte) error { return nil }, nil)
	s.Cleanup()
	err := s.SendReport(context.Background(), sink.InterfaceMouse, []byte{0})
	if !errors.Is(err, pkg.ErrWouldBlock) {
		t.Errorf("err = %v, want ErrWouldBlock after Cleanup", err)
	}
	if s.IsReady() {
		t.Error("IsReady() = true after Cleanup")
	}
}

func TestSendReportBusyWhenSemaphoreHeld(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	s := sink.Init(func(buf []byte) error {
		close(entered)
		<-release
		return nil
	}, nil)

	done := make(chan error, 1)
	go func() {
		done <- s.SendReport(context.Background(), sink.InterfaceMouse, []byte{0})
	}()
	<-entered // first send is inside the writer, holding the semaphore

	start := time.Now()
	err := s.SendReport(context.Background(), sink.InterfaceMouse, []byte{0})
	elapsed := time.Since(start)

	close(release)
	<-done

	if !errors.Is(err, pkg.ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if elapsed < sink.AcquireTimeout {
		t.Errorf("returned after %v, want at least AcquireTimeout (%v)", elapsed, sink.AcquireTimeout)
	}
}

func TestSendReportWriterErrorMapsToIO(t *testing.T) {
	s := sink.Init(func(buf []byte) error { return errors.New("write failed") }, nil)
	err := s.SendReport(context.Background(), sink.InterfaceMouse, []byte{0})
	if !errors.Is(err, pkg.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

func TestIsReadyReflectsAnyConfiguredEndpoint(t *testing.T) {
	s := sink.Init(func([]byte) error { return nil }, nil)
	if !s.IsReady() {
		t.Error("expected IsReady() true with a configured mouse endpoint")
	}
}

func TestSetReadyGatesSends(t *testing.T) {
	s := sink.Init(func([]byte) error { return nil }, nil)
	s.SetReady(sink.InterfaceMouse, false)
	err := s.SendReport(context.Background(), sink.InterfaceMouse, []byte{0})
	if !errors.Is(err, pkg.ErrWouldBlock) {
		t.Errorf("err = %v, want ErrWouldBlock when endpoint marked not ready", err)
	}
}
