package enum_test

import (
	"context"
	"testing"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/enum"
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/link/linktest"
)

// queueSuccesses queues n IntSuccess statuses, one per SendToken call, so
// every control transfer stage in Open succeeds on the first attempt,
// letting the test focus on descriptor parsing rather than status-polling.
func queueSuccesses(tr *linktest.Transport, n int) {
	for i := 0; i < n; i++ {
		tr.QueueByte(byte(chipctl.IntSuccess))
	}
}

func TestOpenEnumeratesThreeButtonMouse(t *testing.T) {
	tr := linktest.New()
	l := link.NewDialectB(tr)
	chip := chipctl.New(l, chipctl.DialectKindB)
	xfer := hostxfer.New(chip)

	// The two set_usb_mode calls (Reset, then SofAuto) each read back a
	// CMD_RET_OK acknowledgment.
	tr.QueueByte(byte(chipctl.OpCmdRetOK))
	tr.QueueByte(byte(chipctl.OpCmdRetOK))
	// test_connect (waitReconnect): one read reporting a connect event.
	tr.QueueByte(byte(chipctl.IntConnect))

	// SendToken completions and data blocks, in call order (a DATA stage
	// reads its IN status, then the block, before the STATUS stage runs):
	//   8-byte GET_DESCRIPTOR(DEVICE): SETUP, DATA(x1 since EP0 is still 8), STATUS
	//   18-byte GET_DESCRIPTOR(DEVICE): SETUP, DATA, STATUS
	//   SET_ADDRESS: SETUP, STATUS (no data stage)
	//   9-byte GET_DESCRIPTOR(CONFIG): SETUP, DATA, STATUS
	//   full GET_DESCRIPTOR(CONFIG): SETUP, DATA, STATUS
	//   SET_CONFIGURATION: SETUP, STATUS
	queueSuccesses(tr, 2) // probe device descriptor: SETUP, DATA
	deviceDesc := []byte{
		0x12, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40,
		0x34, 0x12, 0x78, 0x56, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	}
	tr.QueueBytes(byte(len(deviceDesc)))
	tr.QueueBytes(deviceDesc...)
	queueSuccesses(tr, 1) // probe device descriptor: STATUS

	queueSuccesses(tr, 2) // full device descriptor: SETUP, DATA
	tr.QueueBytes(byte(len(deviceDesc)))
	tr.QueueBytes(deviceDesc...)
	queueSuccesses(tr, 1) // full device descriptor: STATUS

	queueSuccesses(tr, 2) // SET_ADDRESS

	queueSuccesses(tr, 2) // config header: SETUP, DATA
	cfgHeader := []byte{0x09, 0x02, 0x19, 0x00, 0x01, 0x01, 0x00, 0x80, 0x32}
	tr.QueueBytes(byte(len(cfgHeader)))
	tr.QueueBytes(cfgHeader...)
	queueSuccesses(tr, 1) // config header: STATUS

	queueSuccesses(tr, 2) // full config: SETUP, DATA
	ifaceDesc := []byte{0x09, 0x04, 0x00, 0x00, 0x01, 0x03, 0x00, 0x02, 0x00}
	epDesc := []byte{0x07, 0x05, 0x81, 0x03, 0x04, 0x00, 0x0A}
	full := append(append([]byte{}, cfgHeader...), append(ifaceDesc, epDesc...)...)
	tr.QueueBytes(byte(len(full)))
	tr.QueueBytes(full...)
	queueSuccesses(tr, 1) // full config: STATUS

	queueSuccesses(tr, 2) // SET_CONFIGURATION

	dev, err := enum.Open(context.Background(), chip, xfer, chipctl.SpeedFull)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if dev.Device.EP0MaxPacket != 64 {
		t.Errorf("EP0MaxPacket = %d, want 64", dev.Device.EP0MaxPacket)
	}
	wantVID := uint16(deviceDesc[9])<<8 | uint16(deviceDesc[8])
	if dev.RawDeviceDescriptor.VendorID != wantVID {
		t.Errorf("VendorID = 0x%04X, want 0x%04X", dev.RawDeviceDescriptor.VendorID, wantVID)
	}
	if len(dev.Device.Interfaces) != 1 {
		t.Fatalf("interfaces = %d, want 1", len(dev.Device.Interfaces))
	}
	iface := dev.Device.Interfaces[0]
	if iface.Class != 0x03 || iface.Protocol != 0x02 {
		t.Errorf("iface class/protocol = %02X/%02X, want 03/02", iface.Class, iface.Protocol)
	}
	if len(iface.Endpoints) != 1 {
		t.Fatalf("endpoints = %d, want 1", len(iface.Endpoints))
	}
	ep := iface.Endpoints[0]
	if ep.Address != 0x81 || ep.MaxPacket != 4 {
		t.Errorf("endpoint = %02X/%d, want 81/4", ep.Address, ep.MaxPacket)
	}
	if ep.Toggle {
		t.Error("expected freshly built endpoint to start at DATA0")
	}
	if !dev.Configured {
		t.Error("expected device marked configured")
	}
}
