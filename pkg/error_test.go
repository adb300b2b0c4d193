package pkg

import (
	"errors"
	"testing"
)

func TestTransferStatusError(t *testing.T) {
	cases := []struct {
		status TransferStatus
		want   error
	}{
		{TransferStatusSuccess, nil},
		{TransferStatusNAK, ErrNAK},
		{TransferStatusStall, ErrStall},
		{TransferStatusTimeout, ErrTimeout},
		{TransferStatusDisconnected, ErrDisconnected},
		{TransferStatusError, ErrIO},
		{TransferStatus(99), ErrIO}, // unclassified values collapse to I/O error
	}
	for _, c := range cases {
		t.Run(c.status.String(), func(t *testing.T) {
			got := c.status.Error()
			if c.want == nil {
				if got != nil {
					t.Fatalf("Error() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, c.want) {
				t.Errorf("Error() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestTransferStatusString(t *testing.T) {
	cases := []struct {
		status TransferStatus
		want   string
	}{
		{TransferStatusSuccess, "success"},
		{TransferStatusNAK, "nak"},
		{TransferStatusStall, "stall"},
		{TransferStatusTimeout, "timeout"},
		{TransferStatusDisconnected, "disconnected"},
		{TransferStatusError, "error"},
		{TransferStatus(99), "error"},
	}
	for _, c := range cases {
		if got := c.status.String(); got != c.want {
			t.Errorf("TransferStatus(%d).String() = %q, want %q", c.status, got, c.want)
		}
	}
}

// TestSentinelsAreDistinct guards against two failure kinds collapsing
// into one value, which would break callers that branch on errors.Is.
func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrStall,
		ErrNAK,
		ErrTimeout,
		ErrNotSupported,
		ErrBusy,
		ErrBufferTooSmall,
		ErrInvalidState,
		ErrInvalidParameter,
		ErrWouldBlock,
		ErrBufferNotReady,
		ErrIO,
		ErrNotFound,
		ErrDisconnected,
		ErrAllocFailed,
	}
	for i, a := range sentinels {
		if a == nil {
			t.Fatalf("sentinel %d is nil", i)
		}
		if a.Error() == "" {
			t.Errorf("sentinel %d has an empty message", i)
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %d matches sentinel %d", i, j)
			}
		}
	}
}
