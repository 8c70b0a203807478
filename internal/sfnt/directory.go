package sfnt

import (
	"encoding/binary"
	"fmt"
)

// Table is one entry of a parsed SFNT directory.
type Table struct {
	Tag      string
	Checksum uint32
	Offset   uint32
	Data     []byte
}

// Directory is a parsed SFNT font: its version plus tables in directory
// order. Table data aliases the input buffer.
type Directory struct {
	Version uint32
	Tables  []Table
}

// ParseDirectory reads an SFNT table directory and slices out each table.
// It validates offsets and lengths against the buffer but does not verify
// checksums.
func ParseDirectory(data []byte) (*Directory, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("sfnt: %d bytes is too short for a font header", len(data))
	}
	version := binary.BigEndian.Uint32(data)
	switch version {
	case 0x00010000, 0x74727565: // TrueType outlines; 'true' legacy tag
	case 0x4F54544F: // 'OTTO', CFF outlines: directory layout is identical
	default:
		return nil, fmt.Errorf("sfnt: unrecognized version 0x%08X", version)
	}

	numTables := int(binary.BigEndian.Uint16(data[4:]))
	dirEnd := 12 + 16*numTables
	if len(data) < dirEnd {
		return nil, fmt.Errorf("sfnt: directory of %d tables exceeds %d-byte font", numTables, len(data))
	}

	dir := &Directory{Version: version, Tables: make([]Table, 0, numTables)}
	for i := 0; i < numTables; i++ {
		rec := data[12+16*i:]
		t := Table{
			Tag:      string(rec[0:4]),
			Checksum: binary.BigEndian.Uint32(rec[4:]),
			Offset:   binary.BigEndian.Uint32(rec[8:]),
		}
		length := binary.BigEndian.Uint32(rec[12:])
		end := uint64(t.Offset) + uint64(length)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("sfnt: table %q [%d:%d] exceeds %d-byte font", t.Tag, t.Offset, end, len(data))
		}
		t.Data = data[t.Offset : t.Offset+length]
		dir.Tables = append(dir.Tables, t)
	}
	return dir, nil
}

// Table returns the named table's data.
func (d *Directory) Table(tag string) ([]byte, bool) {
	for _, t := range d.Tables {
		if t.Tag == tag {
			return t.Data, true
		}
	}
	return nil, false
}

// NumGlyphs reads the glyph count from maxp.
func (d *Directory) NumGlyphs() (int, error) {
	maxp, ok := d.Table("maxp")
	if !ok || len(maxp) < 6 {
		return 0, fmt.Errorf("sfnt: missing or short maxp table")
	}
	return int(binary.BigEndian.Uint16(maxp[4:])), nil
}

// UnitsPerEm reads the em size from head.
func (d *Directory) UnitsPerEm() (int, error) {
	head, ok := d.Table("head")
	if !ok || len(head) < 54 {
		return 0, fmt.Errorf("sfnt: missing or short head table")
	}
	return int(binary.BigEndian.Uint16(head[18:])), nil
}

// Name returns the value of one name table entry, preferring the Windows
// Unicode record and falling back to Macintosh Roman.
func (d *Directory) Name(nameID uint16) (string, bool) {
	name, ok := d.Table("name")
	if !ok || len(name) < 6 {
		return "", false
	}
	count := int(binary.BigEndian.Uint16(name[2:]))
	stringOffset := int(binary.BigEndian.Uint16(name[4:]))

	var mac string
	var haveMac bool
	for i := 0; i < count; i++ {
		rec := 6 + 12*i
		if rec+12 > len(name) {
			break
		}
		platform := binary.BigEndian.Uint16(name[rec:])
		id := binary.BigEndian.Uint16(name[rec+6:])
		if id != nameID {
			continue
		}
		length := int(binary.BigEndian.Uint16(name[rec+8:]))
		offset := stringOffset + int(binary.BigEndian.Uint16(name[rec+10:]))
		if offset+length > len(name) {
			continue
		}
		raw := name[offset : offset+length]
		switch platform {
		case 3:
			return decodeUTF16BE(raw), true
		case 1:
			mac, haveMac = string(raw), true
		}
	}
	return mac, haveMac
}

func decodeUTF16BE(b []byte) string {
	out := make([]rune, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := rune(b[i])<<8 | rune(b[i+1])
		if u >= 0xD800 && u <= 0xDBFF && i+3 < len(b) {
			lo := rune(b[i+2])<<8 | rune(b[i+3])
			if lo >= 0xDC00 && lo <= 0xDFFF {
				out = append(out, 0x10000+((u-0xD800)<<10)+(lo-0xDC00))
				i += 2
				continue
			}
		}
		out = append(out, u)
	}
	return string(out)
}
