package converter

import (
	"encoding/binary"
	"fmt"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/sfnt"
)

const (
	eotVersion = 0x00020001
	eotMagic   = 0x504C
)

// encodeEOT wraps a TTF into an Embedded OpenType envelope: a little-endian
// metadata header copied out of the OS/2, head and name tables, followed by
// the raw font data. No compression, no subsetting, empty root string.
func encodeEOT(ttf []byte) ([]byte, error) {
	dir, err := sfnt.ParseDirectory(ttf)
	if err != nil {
		return nil, fmt.Errorf("eot: %w", err)
	}

	os2, ok := dir.Table("OS/2")
	if !ok || len(os2) < 86 {
		return nil, fmt.Errorf("eot: missing or short OS/2 table")
	}
	head, ok := dir.Table("head")
	if !ok || len(head) < 12 {
		return nil, fmt.Errorf("eot: missing or short head table")
	}

	family, ok := dir.Name(1)
	if !ok {
		return nil, fmt.Errorf("eot: font has no family name")
	}
	style, ok := dir.Name(2)
	if !ok {
		style = "Regular"
	}
	version, ok := dir.Name(5)
	if !ok {
		version = "Version 1.0"
	}
	full, ok := dir.Name(4)
	if !ok {
		full = family
	}

	var italic byte
	if binary.BigEndian.Uint16(os2[62:])&0x01 != 0 {
		italic = 1
	}

	out := make([]byte, 0, 128+len(ttf))
	out = binary.LittleEndian.AppendUint32(out, 0) // EOTSize, patched below
	out = binary.LittleEndian.AppendUint32(out, uint32(len(ttf)))
	out = binary.LittleEndian.AppendUint32(out, eotVersion)
	out = binary.LittleEndian.AppendUint32(out, 0) // flags: plain embedding
	out = append(out, os2[32:42]...)               // PANOSE
	out = append(out, 0x01)                        // charset: DEFAULT_CHARSET
	out = append(out, italic)
	out = binary.LittleEndian.AppendUint32(out, uint32(binary.BigEndian.Uint16(os2[4:]))) // weight
	out = binary.LittleEndian.AppendUint16(out, binary.BigEndian.Uint16(os2[8:]))         // fsType
	out = binary.LittleEndian.AppendUint16(out, eotMagic)
	for off := 42; off < 58; off += 4 { // ulUnicodeRange1..4
		out = binary.LittleEndian.AppendUint32(out, binary.BigEndian.Uint32(os2[off:]))
	}
	for off := 78; off < 86; off += 4 { // ulCodePageRange1..2
		out = binary.LittleEndian.AppendUint32(out, binary.BigEndian.Uint32(os2[off:]))
	}
	out = binary.LittleEndian.AppendUint32(out, binary.BigEndian.Uint32(head[8:])) // checkSumAdjustment
	for i := 0; i < 4; i++ {                                                       // reserved
		out = binary.LittleEndian.AppendUint32(out, 0)
	}

	for _, s := range []string{family, style, version, full} {
		out = binary.LittleEndian.AppendUint16(out, 0) // padding
		encoded := utf16LEBytes(s)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(encoded)))
		out = append(out, encoded...)
	}
	out = binary.LittleEndian.AppendUint16(out, 0) // padding
	out = binary.LittleEndian.AppendUint16(out, 0) // root string size

	out = append(out, ttf...)
	binary.LittleEndian.PutUint32(out, uint32(len(out)))
	return out, nil
}

func utf16LEBytes(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = binary.LittleEndian.AppendUint16(out, uint16(0xD800+(r>>10)))
			out = binary.LittleEndian.AppendUint16(out, uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(r))
	}
	return out
}
