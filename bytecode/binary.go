package bytecode

import "encoding/binary"

// Magic identifies a saved pattern. Read with the wrong byte order it
// appears as MagicSwapped.
const (
	Magic        uint32 = 0x50435245 // "PCRE"
	MagicSwapped uint32 = 0x45524350
)

// HeaderSize is the size of the fixed header that precedes the name table.
const HeaderSize = 48

// MaxNameSize is the longest group name accepted.
const MaxNameSize = 32

// MarshalBinary returns the saved form of p in the host byte order.
func (p *Pattern) MarshalBinary() ([]byte, error) {
	return p.marshal(binary.NativeEndian), nil
}

// MarshalOrder is MarshalBinary with an explicit byte order, for writing a
// pattern destined for a host of the other endianness.
func (p *Pattern) MarshalOrder(order binary.ByteOrder) []byte {
	return p.marshal(order)
}

func (p *Pattern) nameEntrySize() int {
	size := 0
	for _, n := range p.Names {
		if l := len(n.Name) + 3; l > size {
			size = l
		}
	}
	return size
}

func (p *Pattern) marshal(order binary.ByteOrder) []byte {
	entry := p.nameEntrySize()
	size := HeaderSize + entry*len(p.Names) + len(p.Code)
	b := make([]byte, size)

	order.PutUint32(b[0:], Magic)
	order.PutUint32(b[4:], uint32(size))
	order.PutUint32(b[8:], uint32(p.Options))
	// b[12:16] flags and padding, unused
	order.PutUint16(b[16:], uint16(p.TopBracket))
	order.PutUint16(b[18:], uint16(p.TopBackref))
	order.PutUint16(b[20:], uint16(p.FirstByte))
	order.PutUint16(b[22:], uint16(p.ReqByte))
	order.PutUint16(b[24:], uint16(HeaderSize))
	order.PutUint16(b[26:], uint16(entry))
	order.PutUint16(b[28:], uint16(len(p.Names)))
	order.PutUint16(b[30:], uint16(p.RefCount))
	// b[32:48] tables pointer and null pad, always zero

	off := HeaderSize
	for _, n := range p.Names {
		binary.BigEndian.PutUint16(b[off:], uint16(n.Number))
		copy(b[off+2:], n.Name)
		off += entry
	}
	copy(b[off:], p.Code)
	return b
}

// Unmarshal rebuilds a Pattern from its saved form. A pattern saved on a
// host with the other byte order is detected by its magic number and
// flipped. The code stream is copied; data is not retained.
func Unmarshal(data []byte) (*Pattern, error) {
	if len(data) < HeaderSize {
		return nil, ErrBadMagic
	}
	order := binary.ByteOrder(binary.NativeEndian)
	switch order.Uint32(data) {
	case Magic:
	case MagicSwapped:
		order = SwappedOrder()
	default:
		return nil, ErrBadMagic
	}

	size := int(order.Uint32(data[4:]))
	nameOffset := int(order.Uint16(data[24:]))
	entry := int(order.Uint16(data[26:]))
	count := int(order.Uint16(data[28:]))
	codeStart := nameOffset + entry*count
	if size != len(data) || nameOffset < HeaderSize || codeStart >= size {
		return nil, ErrBadMagic
	}

	p := &Pattern{
		Options:    Option(order.Uint32(data[8:])),
		TopBracket: int(order.Uint16(data[16:])),
		TopBackref: int(order.Uint16(data[18:])),
		FirstByte:  int(order.Uint16(data[20:])),
		ReqByte:    int(order.Uint16(data[22:])),
		RefCount:   int(order.Uint16(data[30:])),
		Tables:     DefaultTables(),
	}
	for i := 0; i < count; i++ {
		e := data[nameOffset+i*entry : nameOffset+(i+1)*entry]
		if entry < 3 {
			return nil, ErrBadMagic
		}
		name := e[2:]
		for j, c := range name {
			if c == 0 {
				name = name[:j]
				break
			}
		}
		p.Names = append(p.Names, NameEntry{Name: string(name), Number: int(binary.BigEndian.Uint16(e))})
	}
	p.Code = append([]byte(nil), data[codeStart:]...)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate performs a structural check of the code stream: every opcode is
// known, every instruction fits, and the stream ends with OpEnd.
func (p *Pattern) Validate() error {
	code := p.Code
	if len(code) == 0 || Op(code[0]) != OpBra {
		return ErrBadMagic
	}
	utf8 := p.UTF8()
	for pc := 0; pc < len(code); {
		op := Op(code[pc])
		if !op.Valid() {
			return ErrUnknownNode
		}
		if op == OpEnd {
			if pc != len(code)-1 {
				return ErrBadMagic
			}
			return nil
		}
		if pc+op.Length() > len(code) || (op == OpXClass && pc+1+LinkSize > len(code)) {
			return ErrBadMagic
		}
		next := Next(code, pc, utf8)
		if next <= pc || next > len(code) {
			return ErrBadMagic
		}
		pc = next
	}
	return ErrBadMagic
}

// SwappedOrder returns the byte order opposite to the host's.
func SwappedOrder() binary.ByteOrder {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
