package chipctl_test

import (
	"testing"
	"time"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/link/linktest"
)

func newCtx(t *testing.T) (*chipctl.ChipCtx, *linktest.Transport) {
	t.Helper()
	tr := linktest.New()
	l := link.NewDialectB(tr)
	return chipctl.New(l, chipctl.DialectKindB), tr
}

func TestCheckExistSuccess(t *testing.T) {
	c, tr := newCtx(t)
	tr.QueueByte(^byte(0x42))

	if err := c.CheckExist(0x42); err != nil {
		t.Fatalf("CheckExist: %v", err)
	}
}

func TestCheckExistMismatchIsNotFound(t *testing.T) {
	c, tr := newCtx(t)
	tr.QueueByte(0x00)

	if err := c.CheckExist(0x42); err == nil {
		t.Fatal("expected error on echo mismatch")
	}
}

func TestSetBaudRejectsUnsupported(t *testing.T) {
	c, _ := newCtx(t)
	if err := c.SetBaud(123456); err == nil {
		t.Fatal("expected error for unsupported baud")
	}
}

func TestSetBaudSendsRealDivisorBytes(t *testing.T) {
	c, tr := newCtx(t)
	if err := c.SetBaud(115200); err != nil {
		t.Fatalf("SetBaud: %v", err)
	}
	// Dialect B command framing: 0x57 0xAB <opcode> <data1> <data2>.
	// 115200's divisor bytes are 0x03, 0xCC on both dialects (CH376).
	want := []byte{0x57, 0xAB, byte(chipctl.OpSetBaud), 0x03, 0xCC}
	if len(tr.Written) != len(want) {
		t.Fatalf("written = % X, want % X", tr.Written, want)
	}
	for i := range want {
		if tr.Written[i] != want[i] {
			t.Fatalf("written = % X, want % X", tr.Written, want)
		}
	}
}

func TestWaitIntReturnsImmediatelyOnCompletion(t *testing.T) {
	c, tr := newCtx(t)
	tr.QueueByte(byte(chipctl.IntSuccess))

	s, err := c.WaitInt(time.Second)
	if err != nil {
		t.Fatalf("WaitInt: %v", err)
	}
	if s != chipctl.IntSuccess {
		t.Errorf("status = 0x%02X, want IntSuccess", s)
	}
}

func TestWaitIntTimesOut(t *testing.T) {
	c, _ := newCtx(t)
	// No bytes queued: every get_status read fails with link timeout,
	// which is not a completion status, so WaitInt must itself time out
	// once the wall-clock budget is exceeded.
	if _, err := c.WaitInt(2 * time.Millisecond); err == nil {
		t.Fatal("expected timeout")
	}
}

func TestIsPIDStatus(t *testing.T) {
	pidStatuses := []chipctl.StatusByte{
		chipctl.PIDStatusNAK, chipctl.PIDStatusSTALL, chipctl.PIDStatusACK,
	}
	for _, s := range pidStatuses {
		if !s.IsPIDStatus() {
			t.Errorf("IsPIDStatus(0x%02X) = false, want true", byte(s))
		}
	}
	interrupts := []chipctl.StatusByte{
		chipctl.IntSuccess, chipctl.IntConnect, chipctl.IntDisconnect,
		chipctl.IntBufOver, chipctl.IntUsbReady,
	}
	for _, s := range interrupts {
		if s.IsPIDStatus() {
			t.Errorf("IsPIDStatus(0x%02X) = true, want false", byte(s))
		}
	}
}

func TestWaitIntReturnsOnPIDStatus(t *testing.T) {
	c, tr := newCtx(t)
	tr.QueueByte(byte(chipctl.PIDStatusNAK))

	s, err := c.WaitInt(time.Second)
	if err != nil {
		t.Fatalf("WaitInt: %v", err)
	}
	if s != chipctl.PIDStatusNAK {
		t.Errorf("status = 0x%02X, want PIDStatusNAK", s)
	}
}

func TestRecentStatusRingBuffer(t *testing.T) {
	c, tr := newCtx(t)
	for i := 0; i < 10; i++ {
		tr.QueueByte(byte(chipctl.IntSuccess))
		if _, err := c.GetStatus(); err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
	}
	if got := len(c.RecentStatus()); got != 8 {
		t.Errorf("RecentStatus depth = %d, want 8", got)
	}
}
