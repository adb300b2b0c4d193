package link_test

import (
	"testing"

	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/link/linktest"
)

func TestDialectAFlagsCommandBit(t *testing.T) {
	tr := linktest.New()
	d := link.NewDialectA(tr)

	if err := d.WriteCmd(0x06); err != nil {
		t.Fatalf("WriteCmd: %v", err)
	}
	if err := d.WriteData(0xAA); err != nil {
		t.Fatalf("WriteData: %v", err)
	}

	if len(tr.WrittenWords) != 2 {
		t.Fatalf("expected 2 words, got %d", len(tr.WrittenWords))
	}
	if tr.WrittenWords[0] != 0x106 {
		t.Errorf("cmd word = 0x%03X, want 0x106", tr.WrittenWords[0])
	}
	if tr.WrittenWords[1] != 0x0AA {
		t.Errorf("data word = 0x%03X, want 0x0AA", tr.WrittenWords[1])
	}
}

func TestDialectAReadByteStripsHighBit(t *testing.T) {
	tr := linktest.New()
	d := link.NewDialectA(tr)
	tr.QueueWord(0x155)

	b, err := d.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if b != 0x55 {
		t.Errorf("ReadByte = 0x%02X, want 0x55", b)
	}
}

func TestDialectBCommandHasSyncPrefix(t *testing.T) {
	tr := linktest.New()
	d := link.NewDialectB(tr)

	if err := d.WriteCmd(0x16); err != nil {
		t.Fatalf("WriteCmd: %v", err)
	}

	want := []byte{0x57, 0xAB, 0x16}
	if len(tr.Written) != len(want) {
		t.Fatalf("written = % X, want % X", tr.Written, want)
	}
	for i := range want {
		if tr.Written[i] != want[i] {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, tr.Written[i], want[i])
		}
	}
}

func TestDialectBDataIsBare(t *testing.T) {
	tr := linktest.New()
	d := link.NewDialectB(tr)

	if err := d.WriteData(0x42); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	if len(tr.Written) != 1 || tr.Written[0] != 0x42 {
		t.Errorf("written = % X, want [42]", tr.Written)
	}
}

func TestReadByteTimeout(t *testing.T) {
	tr := linktest.New()
	d := link.NewDialectB(tr)

	if _, err := d.ReadByte(); err == nil {
		t.Fatal("expected timeout error on empty queue")
	}
}
