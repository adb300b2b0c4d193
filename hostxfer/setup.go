package hostxfer

import "github.com/hidproxy/hidproxy/pkg"

// Standard request codes (USB 2.0 ch. 9).
const (
	ReqGetStatus        = 0x00
	ReqClearFeature     = 0x01
	ReqSetFeature       = 0x03
	ReqSetAddress       = 0x05
	ReqGetDescriptor    = 0x06
	ReqSetDescriptor    = 0x07
	ReqGetConfiguration = 0x08
	ReqSetConfiguration = 0x09
	ReqSetInterface     = 0x0B
)

// HID class requests.
const (
	ReqGetReport   = 0x01
	ReqGetIdle     = 0x02
	ReqGetProtocol = 0x03
	ReqSetReport   = 0x09
	ReqSetIdle     = 0x0A
	ReqSetProtocol = 0x0B
)

// bmRequestType direction/type/recipient bits.
const (
	DirOut = 0x00
	DirIn  = 0x80

	TypeStandard = 0x00
	TypeClass    = 0x20
	TypeVendor   = 0x40

	RecipDevice    = 0x00
	RecipInterface = 0x01
	RecipEndpoint  = 0x02
)

// FeatureEndpointHalt is the wValue for CLEAR_FEATURE/SET_FEATURE
// targeting an endpoint's halt (stall) condition.
const FeatureEndpointHalt = 0x00

// Descriptor type codes used in GET_DESCRIPTOR's wValue high byte.
const (
	DescDevice        = 0x01
	DescConfiguration = 0x02
	DescString        = 0x03
	DescInterface     = 0x04
	DescEndpoint      = 0x05
	DescHIDReport     = 0x22
)

// SetupPacket is the 8-byte control-transfer SETUP stage payload.
type SetupPacket struct {
	BmRequestType byte
	BRequest      byte
	WValue        uint16
	WIndex        uint16
	WLength       uint16
}

// MarshalTo writes the wire encoding of p into buf, which must be at
// least 8 bytes.
func (p SetupPacket) MarshalTo(buf []byte) error {
	if len(buf) < 8 {
		return pkg.ErrBufferTooSmall
	}
	buf[0] = p.BmRequestType
	buf[1] = p.BRequest
	buf[2] = byte(p.WValue)
	buf[3] = byte(p.WValue >> 8)
	buf[4] = byte(p.WIndex)
	buf[5] = byte(p.WIndex >> 8)
	buf[6] = byte(p.WLength)
	buf[7] = byte(p.WLength >> 8)
	return nil
}

// IsDeviceToHost reports whether the SETUP packet's DATA stage, if any,
// flows device-to-host.
func (p SetupPacket) IsDeviceToHost() bool { return p.BmRequestType&0x80 != 0 }

// GetDescriptorSetup builds a standard GET_DESCRIPTOR request.
func GetDescriptorSetup(descType byte, index byte, length uint16) SetupPacket {
	return SetupPacket{
		BmRequestType: DirIn | TypeStandard | RecipDevice,
		BRequest:      ReqGetDescriptor,
		WValue:        uint16(descType)<<8 | uint16(index),
		WIndex:        0,
		WLength:       length,
	}
}

// SetAddressSetup builds a standard SET_ADDRESS request.
func SetAddressSetup(addr byte) SetupPacket {
	return SetupPacket{
		BmRequestType: DirOut | TypeStandard | RecipDevice,
		BRequest:      ReqSetAddress,
		WValue:        uint16(addr),
	}
}

// SetConfigurationSetup builds a standard SET_CONFIGURATION request.
func SetConfigurationSetup(value byte) SetupPacket {
	return SetupPacket{
		BmRequestType: DirOut | TypeStandard | RecipDevice,
		BRequest:      ReqSetConfiguration,
		WValue:        uint16(value),
	}
}

// ClearFeatureEndpointHaltSetup builds CLEAR_FEATURE(ENDPOINT_HALT, ep).
func ClearFeatureEndpointHaltSetup(epAddr byte) SetupPacket {
	return SetupPacket{
		BmRequestType: DirOut | TypeStandard | RecipEndpoint,
		BRequest:      ReqClearFeature,
		WValue:        FeatureEndpointHalt,
		WIndex:        uint16(epAddr),
	}
}

// HIDSetIdleSetup builds the HID class SET_IDLE request used during
// keyboard/mouse bring-up.
func HIDSetIdleSetup(ifaceNum byte, idleRate byte) SetupPacket {
	return SetupPacket{
		BmRequestType: DirOut | TypeClass | RecipInterface,
		BRequest:      ReqSetIdle,
		WValue:        uint16(idleRate) << 8,
		WIndex:        uint16(ifaceNum),
	}
}

// HIDSetReportSetup builds the HID class SET_REPORT request, used for
// keyboard LED initialization; failures are tolerated by callers.
func HIDSetReportSetup(ifaceNum byte, reportType byte, reportID byte, length uint16) SetupPacket {
	return SetupPacket{
		BmRequestType: DirOut | TypeClass | RecipInterface,
		BRequest:      ReqSetReport,
		WValue:        uint16(reportType)<<8 | uint16(reportID),
		WIndex:        uint16(ifaceNum),
		WLength:       length,
	}
}

// HIDGetDescriptorSetup builds a HID class GET_DESCRIPTOR(REPORT) request
// against the class recipient, with STANDARD/INTERFACE as the documented
// fallback for devices that misreport the request type.
func HIDGetDescriptorSetup(ifaceNum byte, length uint16, fallbackStandard bool) SetupPacket {
	reqType := byte(DirIn | TypeClass | RecipInterface)
	if fallbackStandard {
		reqType = DirIn | TypeStandard | RecipInterface
	}
	return SetupPacket{
		BmRequestType: reqType,
		BRequest:      ReqGetDescriptor,
		WValue:        uint16(DescHIDReport) << 8,
		WIndex:        uint16(ifaceNum),
		WLength:       length,
	}
}
