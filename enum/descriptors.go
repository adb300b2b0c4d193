package enum

// Descriptor sizes, matching the wire layouts from USB 2.0 ch. 9.
const (
	DeviceDescriptorSize        = 18
	ConfigurationDescriptorSize = 9
	InterfaceDescriptorSize     = 9
	EndpointDescriptorSize      = 7
)

// MaxConfigDescriptorSize bounds the heap allocation driven by a
// device-reported wTotalLength. Mouse/keyboard configurations are a few
// dozen bytes; anything past this is a corrupt or hostile descriptor.
const MaxConfigDescriptorSize = 1024

// Standard descriptor type codes, as seen on the wire in bDescriptorType.
const (
	DescTypeDevice        = 0x01
	DescTypeConfiguration = 0x02
	DescTypeString        = 0x03
	DescTypeInterface     = 0x04
	DescTypeEndpoint      = 0x05
)

// DeviceDescriptor is the parsed 18-byte USB device descriptor.
type DeviceDescriptor struct {
	Length            byte
	DescriptorType    byte
	BcdUSB            uint16
	DeviceClass       byte
	DeviceSubClass    byte
	DeviceProtocol    byte
	MaxPacketSize0    byte
	VendorID          uint16
	ProductID         uint16
	BcdDevice         uint16
	ManufacturerIndex byte
	ProductIndex      byte
	SerialIndex       byte
	NumConfigurations byte
}

// ParseDeviceDescriptor decodes data into out, returning false if data is
// too short or of the wrong type.
func ParseDeviceDescriptor(data []byte, out *DeviceDescriptor) bool {
	if len(data) < DeviceDescriptorSize {
		return false
	}
	if data[1] != DescTypeDevice {
		return false
	}
	out.Length = data[0]
	out.DescriptorType = data[1]
	out.BcdUSB = leU16(data[2:4])
	out.DeviceClass = data[4]
	out.DeviceSubClass = data[5]
	out.DeviceProtocol = data[6]
	out.MaxPacketSize0 = data[7]
	out.VendorID = leU16(data[8:10])
	out.ProductID = leU16(data[10:12])
	out.BcdDevice = leU16(data[12:14])
	out.ManufacturerIndex = data[14]
	out.ProductIndex = data[15]
	out.SerialIndex = data[16]
	out.NumConfigurations = data[17]
	return true
}

// ConfigurationDescriptor is the parsed 9-byte configuration descriptor
// header (excluding the interface/endpoint descriptors that follow it).
type ConfigurationDescriptor struct {
	Length             byte
	DescriptorType     byte
	TotalLength        uint16
	NumInterfaces      byte
	ConfigurationValue byte
	ConfigurationIndex byte
	Attributes         byte
	MaxPower           byte
}

// ParseConfigurationDescriptor decodes data into out.
func ParseConfigurationDescriptor(data []byte, out *ConfigurationDescriptor) bool {
	if len(data) < ConfigurationDescriptorSize {
		return false
	}
	if data[1] != DescTypeConfiguration {
		return false
	}
	out.Length = data[0]
	out.DescriptorType = data[1]
	out.TotalLength = leU16(data[2:4])
	out.NumInterfaces = data[4]
	out.ConfigurationValue = data[5]
	out.ConfigurationIndex = data[6]
	out.Attributes = data[7]
	out.MaxPower = data[8]
	return true
}

// InterfaceDescriptorRaw is the parsed 9-byte interface descriptor.
type InterfaceDescriptorRaw struct {
	Length            byte
	DescriptorType    byte
	InterfaceNumber   byte
	AlternateSetting  byte
	NumEndpoints      byte
	InterfaceClass    byte
	InterfaceSubClass byte
	InterfaceProtocol byte
	InterfaceIndex    byte
}

// ParseInterfaceDescriptor decodes data into out.
func ParseInterfaceDescriptor(data []byte, out *InterfaceDescriptorRaw) bool {
	if len(data) < InterfaceDescriptorSize {
		return false
	}
	if data[1] != DescTypeInterface {
		return false
	}
	out.Length = data[0]
	out.DescriptorType = data[1]
	out.InterfaceNumber = data[2]
	out.AlternateSetting = data[3]
	out.NumEndpoints = data[4]
	out.InterfaceClass = data[5]
	out.InterfaceSubClass = data[6]
	out.InterfaceProtocol = data[7]
	out.InterfaceIndex = data[8]
	return true
}

// EndpointDescriptorRaw is the parsed 7-byte endpoint descriptor.
type EndpointDescriptorRaw struct {
	Length          byte
	DescriptorType  byte
	EndpointAddress byte
	Attributes      byte
	MaxPacketSize   uint16
	Interval        byte
}

// ParseEndpointDescriptor decodes data into out.
func ParseEndpointDescriptor(data []byte, out *EndpointDescriptorRaw) bool {
	if len(data) < EndpointDescriptorSize {
		return false
	}
	if data[1] != DescTypeEndpoint {
		return false
	}
	out.Length = data[0]
	out.DescriptorType = data[1]
	out.EndpointAddress = data[2]
	out.Attributes = data[3]
	out.MaxPacketSize = leU16(data[4:6])
	out.Interval = data[6]
	return true
}

func leU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
