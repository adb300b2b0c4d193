package hidparser

// Field is a located field within a report: DataDescriptor in the data
// model.
type Field struct {
	LogicalMin int32
	LogicalMax int32
	SizeBits   int
	Count      int
	ByteOffset int
}

// MouseFields is the result of locating a mouse's button/orientation/
// wheel fields within its report descriptor.
type MouseFields struct {
	Button              Field
	HasButton           bool
	Orientation         Field
	HasOrientation      bool
	Wheel               Field
	HasWheel            bool
	HasReportIDDeclared bool
}

func signExtend(v uint32, bits int) int32 {
	if bits >= 32 {
		return int32(v)
	}
	mask := uint32(1) << (bits - 1)
	return int32((v ^ mask) - mask)
}

func containsUsage(usages []uint32, u uint32) bool {
	for _, x := range usages {
		if x == u {
			return true
		}
	}
	return false
}

// LocateMouseFields walks a mouse's report descriptor and locates its
// button, X/Y orientation, and optional wheel fields. The
// current bit offset advances by report_size*report_count on every
// INPUT item regardless of classification, so later fields are correctly
// positioned even when earlier INPUT items are unrelated padding.
func LocateMouseFields(data []byte) MouseFields {
	var mf MouseFields

	var usagePage uint32
	var logicalMin, logicalMax int32
	var reportSize, reportCount int
	var localUsages []uint32
	bitOffset := 0

	cursor := 0
	for cursor < len(data) {
		item, next, ok := FetchItem(data, cursor)
		if !ok {
			break
		}
		cursor = next
		if item.Long {
			continue
		}

		switch item.Type {
		case ItemTypeGlobal:
			switch item.Tag {
			case TagUsagePage:
				usagePage = item.Payload
			case TagLogicalMinimum:
				logicalMin = signExtend(item.Payload, item.Size*8)
			case TagLogicalMaximum:
				logicalMax = signExtend(item.Payload, item.Size*8)
			case TagReportSize:
				reportSize = int(item.Payload)
			case TagReportCount:
				reportCount = int(item.Payload)
			case TagReportID:
				mf.HasReportIDDeclared = true
			}
		case ItemTypeLocal:
			if item.Tag == TagUsage {
				localUsages = append(localUsages, item.Payload)
			}
		case ItemTypeMain:
			if item.Tag == TagInput {
				byteOffset := bitOffset / 8
				switch {
				case usagePage == UsagePageButton:
					mf.Button = Field{
						LogicalMin: logicalMin,
						LogicalMax: logicalMax,
						SizeBits:   reportSize,
						Count:      reportCount,
						ByteOffset: byteOffset,
					}
					mf.HasButton = true
				case usagePage == UsagePageGenericDesktop &&
					containsUsage(localUsages, UsageX) && containsUsage(localUsages, UsageY):
					mf.Orientation = Field{
						LogicalMin: logicalMin,
						LogicalMax: logicalMax,
						SizeBits:   reportSize,
						Count:      2,
						ByteOffset: byteOffset,
					}
					mf.HasOrientation = true
					if containsUsage(localUsages, UsageWheel) && reportCount >= 3 {
						mf.Wheel = Field{
							LogicalMin: logicalMin,
							LogicalMax: logicalMax,
							SizeBits:   reportSize,
							Count:      1,
							ByteOffset: byteOffset + (2*reportSize)/8,
						}
						mf.HasWheel = true
					}
				case usagePage == UsagePageGenericDesktop && containsUsage(localUsages, UsageWheel):
					mf.Wheel = Field{
						LogicalMin: logicalMin,
						LogicalMax: logicalMax,
						SizeBits:   reportSize,
						Count:      1,
						ByteOffset: byteOffset,
					}
					mf.HasWheel = true
				}
				bitOffset += reportSize * reportCount
				localUsages = localUsages[:0]
			}
		}
	}

	return mf
}
