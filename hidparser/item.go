package hidparser

import "github.com/hidproxy/hidproxy/pkg"

// Item is one parsed short or long HID item.
type Item struct {
	Type ItemType
	Tag  byte
	Size int // payload size in bytes: 0, 1, 2, or 4 for short items
	// Payload is the item's unsigned little-endian value for short
	// items.
	Payload uint32
	// Long is true for a long item (tag == 0xF at the short-item
	// position); LongTag and LongBody are only valid then.
	Long     bool
	LongTag  byte
	LongBody []byte
}

// FetchItem parses one item starting at cursor and returns it along with
// the cursor advanced past it. Overruns (a declared payload extending
// past end) return ok == false.
func FetchItem(data []byte, cursor int) (item Item, newCursor int, ok bool) {
	if cursor >= len(data) {
		return Item{}, cursor, false
	}
	prefix := data[cursor]
	sizeCode := prefix & 0x03
	tag := (prefix >> 4) & 0x0F
	typ := ItemType((prefix >> 2) & 0x03)

	if tag == TagLongItem && typ == ItemTypeReserved {
		// Long item: prefix 0xFE, then length byte, then tag byte,
		// then body.
		if cursor+2 >= len(data) {
			return Item{}, cursor, false
		}
		length := int(data[cursor+1])
		longTag := data[cursor+2]
		bodyStart := cursor + 3
		bodyEnd := bodyStart + length
		if bodyEnd > len(data) {
			return Item{}, cursor, false
		}
		return Item{
			Long:     true,
			LongTag:  longTag,
			LongBody: data[bodyStart:bodyEnd],
		}, bodyEnd, true
	}

	size := int(sizeCode)
	if sizeCode == 3 {
		size = 4
	}
	payloadStart := cursor + 1
	payloadEnd := payloadStart + size
	if payloadEnd > len(data) {
		return Item{}, cursor, false
	}

	var payload uint32
	for i := 0; i < size; i++ {
		payload |= uint32(data[payloadStart+i]) << (8 * i)
	}

	return Item{
		Type:    typ,
		Tag:     tag,
		Size:    size,
		Payload: payload,
	}, payloadEnd, true
}

// WalkLength sums consumed bytes across the full descriptor, validating
// the "total consumed equals input length" invariant used by tests.
func WalkLength(data []byte) (int, error) {
	cursor := 0
	for cursor < len(data) {
		_, next, ok := FetchItem(data, cursor)
		if !ok {
			return cursor, pkg.ErrIO
		}
		cursor = next
	}
	return cursor, nil
}
