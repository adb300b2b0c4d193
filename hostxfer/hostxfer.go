package hostxfer

import (
	"time"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/pkg"
)

// Device is the minimal device state the transfer engine needs: its
// fixed address, negotiated EP0 max packet size, and endpoint table.
// enum.Device embeds this and adds descriptors.
type Device struct {
	Address      byte
	EP0MaxPacket uint16
	Interfaces   []*Interface
}

// GetEndpoint looks up an endpoint by address across the device's
// interfaces.
func (d *Device) GetEndpoint(epAddr byte) (*Endpoint, error) {
	return GetEndpoint(d.Interfaces, epAddr)
}

// DefaultBudget bounds a single chip wait_int call. It is generous
// relative to typical full-speed transaction latency so that only a
// genuinely wedged link times out.
const DefaultBudget = 500 * time.Millisecond

// Xfer drives control, bulk, and interrupt transfers against a Device
// over one ChipCtx.
type Xfer struct {
	Chip *chipctl.ChipCtx
}

// New returns an Xfer bound to chip.
func New(chip *chipctl.ChipCtx) *Xfer {
	return &Xfer{Chip: chip}
}

// completionStatus classifies a chip status byte as a transfer outcome.
func completionStatus(status chipctl.StatusByte) pkg.TransferStatus {
	switch status {
	case chipctl.IntSuccess:
		return pkg.TransferStatusSuccess
	case chipctl.PIDStatusNAK:
		return pkg.TransferStatusNAK
	case chipctl.PIDStatusSTALL:
		return pkg.TransferStatusStall
	case chipctl.IntDisconnect:
		return pkg.TransferStatusDisconnected
	default:
		return pkg.TransferStatusError
	}
}

func mapNonSuccess(status chipctl.StatusByte) error {
	return completionStatus(status).Error()
}

// ControlTransfer runs the SETUP/DATA/STATUS state machine. buf is the
// DATA-stage payload: for an IN request it is
// filled in place and the returned count is how many bytes were
// accepted; for an OUT request it is the bytes to send. Returns the
// number of bytes transferred during the DATA stage.
func (x *Xfer) ControlTransfer(dev *Device, setup SetupPacket, buf []byte) (int, error) {
	dataIn := setup.IsDeviceToHost()

	retry := chipctl.RetryInfinite
	if setup.BRequest == ReqGetDescriptor {
		retry = chipctl.RetryShort
	}
	if err := x.Chip.SetRetry(retry); err != nil {
		return 0, err
	}

	var setupBuf [8]byte
	if err := setup.MarshalTo(setupBuf[:]); err != nil {
		return 0, err
	}
	if err := x.Chip.WriteBlock(setupBuf[:]); err != nil {
		return 0, err
	}
	status, err := x.Chip.SendToken(0, false, chipctl.PIDSetup, DefaultBudget)
	if err != nil {
		return 0, err
	}
	if status != chipctl.IntSuccess {
		return 0, mapNonSuccess(status)
	}

	total := 0
	if setup.WLength > 0 {
		if dataIn {
			total, err = x.controlDataIn(dev, buf[:minInt(len(buf), int(setup.WLength))])
		} else {
			total, err = x.controlDataOut(dev, buf)
		}
		if err != nil {
			if total > 0 {
				err = nil
			} else {
				return 0, err
			}
		}
	}

	statusPID := PID(chipctl.PIDIn)
	if dataIn {
		statusPID = chipctl.PIDOut
	}
	sStatus, sErr := x.Chip.SendToken(0, true, statusPID, DefaultBudget)
	if sErr != nil || sStatus != chipctl.IntSuccess {
		// Tolerance is IN-only: downgrading an OUT's
		// STATUS failure to success would let a config-write device
		// think it succeeded when it never acknowledged the data.
		if dataIn && total > 0 {
			return total, nil
		}
		if sErr != nil {
			return total, sErr
		}
		return total, mapNonSuccess(sStatus)
	}
	return total, nil
}

// PID re-exports chipctl.PID for readability at call sites in this file.
type PID = chipctl.PID

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (x *Xfer) controlDataIn(dev *Device, buf []byte) (int, error) {
	toggle := true // DATA1
	total := 0
	ep0max := int(dev.EP0MaxPacket)
	if ep0max == 0 {
		ep0max = 8
	}
	tmp := make([]byte, ep0max)

	for total < len(buf) {
		status, err := x.Chip.SendToken(0, toggle, chipctl.PIDIn, DefaultBudget)
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
		switch st := completionStatus(status); st {
		case pkg.TransferStatusSuccess:
			want := minInt(ep0max, len(buf)-total)
			n, rerr := x.Chip.ReadBlock(tmp[:want])
			if rerr != nil {
				if total > 0 {
					return total, nil
				}
				return 0, pkg.ErrIO
			}
			copy(buf[total:total+n], tmp[:n])
			total += n
			toggle = !toggle
			if n < ep0max {
				return total, nil
			}
		case pkg.TransferStatusNAK:
			if total == 0 {
				time.Sleep(100 * time.Microsecond)
			} else {
				time.Sleep(500 * time.Microsecond)
			}
		case pkg.TransferStatusStall, pkg.TransferStatusDisconnected:
			return total, st.Error()
		default:
			if total > 0 {
				return total, nil
			}
			return total, st.Error()
		}
	}
	return total, nil
}

func (x *Xfer) controlDataOut(dev *Device, buf []byte) (int, error) {
	toggle := true // DATA1
	total := 0
	ep0max := int(dev.EP0MaxPacket)
	if ep0max == 0 {
		ep0max = 8
	}

	for total < len(buf) {
		chunk := minInt(ep0max, len(buf)-total)
		if err := x.Chip.WriteBlock(buf[total : total+chunk]); err != nil {
			return total, err
		}
		status, err := x.Chip.SendToken(0, toggle, chipctl.PIDOut, DefaultBudget)
		if err != nil {
			return total, err
		}
		switch st := completionStatus(status); st {
		case pkg.TransferStatusSuccess:
			total += chunk
			toggle = !toggle
		case pkg.TransferStatusNAK:
			time.Sleep(500 * time.Microsecond)
		default:
			return total, st.Error()
		}
	}
	return total, nil
}

// BulkTransfer performs a bulk IN or OUT transfer on ep, looping until
// buf is exhausted (OUT) or filled (IN) or timeoutMs NAK-budget is
// consumed. Retry level is forced to None so the host, not the chip,
// time-slices across endpoints on NAK.
func (x *Xfer) BulkTransfer(ep *Endpoint, buf []byte, timeoutMs int) (int, error) {
	return x.periodicTransfer(ep, buf, timeoutMs)
}

// InterruptTransfer performs an interrupt IN or OUT transfer; a NAK
// timeout here is a normal "no report available" outcome, not an error
// condition the caller should treat as fatal.
func (x *Xfer) InterruptTransfer(ep *Endpoint, buf []byte, timeoutMs int) (int, error) {
	return x.periodicTransfer(ep, buf, timeoutMs)
}

func (x *Xfer) periodicTransfer(ep *Endpoint, buf []byte, timeoutMs int) (int, error) {
	if err := x.Chip.SetRetry(chipctl.RetryNone); err != nil {
		return 0, err
	}

	offset := 0
	maxPacket := int(ep.MaxPacket)
	if maxPacket == 0 {
		maxPacket = 1
	}

	for offset < len(buf) {
		var status chipctl.StatusByte
		var err error
		if ep.IsIn() {
			status, err = x.Chip.SendToken(ep.Number(), ep.Toggle, chipctl.PIDIn, DefaultBudget)
		} else {
			chunk := minInt(maxPacket, len(buf)-offset)
			if werr := x.Chip.WriteBlock(buf[offset : offset+chunk]); werr != nil {
				return offset, werr
			}
			status, err = x.Chip.SendToken(ep.Number(), ep.Toggle, chipctl.PIDOut, DefaultBudget)
		}
		if err != nil {
			return offset, err
		}

		switch st := completionStatus(status); st {
		case pkg.TransferStatusSuccess:
			if ep.IsIn() {
				want := minInt(maxPacket, len(buf)-offset)
				tmp := make([]byte, want)
				n, rerr := x.Chip.ReadBlock(tmp)
				if rerr != nil {
					return offset, pkg.ErrIO
				}
				copy(buf[offset:offset+n], tmp[:n])
				offset += n
				ep.Toggle = !ep.Toggle
				if n < maxPacket {
					return offset, nil
				}
			} else {
				chunk := minInt(maxPacket, len(buf)-offset)
				offset += chunk
				ep.Toggle = !ep.Toggle
			}
		case pkg.TransferStatusNAK:
			if timeoutMs <= 0 {
				return offset, pkg.TransferStatusTimeout.Error()
			}
			timeoutMs--
			time.Sleep(time.Millisecond)
		default:
			return offset, st.Error()
		}
	}
	return offset, nil
}

// ClearStall issues CLEAR_FEATURE(ENDPOINT_HALT, ep) and resets the
// endpoint's data toggle to DATA0 on success.
func (x *Xfer) ClearStall(dev *Device, ep *Endpoint) error {
	_, err := x.ControlTransfer(dev, ClearFeatureEndpointHaltSetup(ep.Address), nil)
	if err != nil {
		return err
	}
	ep.Toggle = false
	return nil
}
