package hidparser

// DetectClass walks a report descriptor's item stream, tracking the
// current usage page and the latest local usage, classifying the device
// at the first collection item (of any collection type) reached while
// the usage page is Generic Desktop and the latest usage is Mouse or
// Keyboard. If no
// collection resolves a class, a fallback heuristic applies: a
// descriptor with both INPUT and OUTPUT items is treated as a keyboard
// (LED output report), INPUT-only as a mouse, otherwise unsupported
// (ClassNone).
func DetectClass(data []byte) DeviceClass {
	var usagePage, lastUsage uint32
	hasInput, hasOutput := false, false

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
			if item.Tag == TagUsagePage {
				usagePage = item.Payload
			}
		case ItemTypeLocal:
			if item.Tag == TagUsage {
				lastUsage = item.Payload
			}
		case ItemTypeMain:
			switch item.Tag {
			case TagInput:
				hasInput = true
			case TagOutput:
				hasOutput = true
			case TagCollection:
				if usagePage == UsagePageGenericDesktop {
					switch lastUsage {
					case UsageMouse:
						return ClassMouse
					case UsageKeyboard:
						return ClassKeyboard
					}
				}
			}
		}
	}

	switch {
	case hasInput && hasOutput:
		return ClassKeyboard
	case hasInput:
		return ClassMouse
	default:
		return ClassNone
	}
}
