package converter

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/sfnt"
)

const woffSignature = 0x774F4646 // 'wOFF'

// encodeWOFF wraps a TTF into a WOFF1 container: the table directory is
// carried over unchanged and each table is zlib-compressed individually,
// stored raw when compression would not shrink it.
func encodeWOFF(ttf []byte) ([]byte, error) {
	dir, err := sfnt.ParseDirectory(ttf)
	if err != nil {
		return nil, fmt.Errorf("woff: %w", err)
	}

	type entry struct {
		tag        string
		data       []byte
		origLength uint32
		checksum   uint32
	}

	entries := make([]entry, 0, len(dir.Tables))
	totalSfntSize := uint32(12 + 16*len(dir.Tables))
	for _, tbl := range dir.Tables {
		comp, err := zlibCompress(tbl.Data)
		if err != nil {
			return nil, fmt.Errorf("woff: compressing %q: %w", tbl.Tag, err)
		}
		data := comp
		if len(comp) >= len(tbl.Data) {
			// compLength == origLength marks the table as stored raw.
			data = tbl.Data
		}
		entries = append(entries, entry{tbl.Tag, data, uint32(len(tbl.Data)), tbl.Checksum})
		totalSfntSize += pad4(uint32(len(tbl.Data)))
	}

	total := uint32(44 + 20*len(entries))
	offsets := make([]uint32, len(entries))
	for i, e := range entries {
		offsets[i] = total
		total += pad4(uint32(len(e.data)))
	}

	out := make([]byte, 0, total)
	out = binary.BigEndian.AppendUint32(out, woffSignature)
	out = binary.BigEndian.AppendUint32(out, dir.Version)
	out = binary.BigEndian.AppendUint32(out, total)
	out = binary.BigEndian.AppendUint16(out, uint16(len(entries)))
	out = binary.BigEndian.AppendUint16(out, 0) // reserved
	out = binary.BigEndian.AppendUint32(out, totalSfntSize)
	out = binary.BigEndian.AppendUint16(out, 1) // majorVersion
	out = binary.BigEndian.AppendUint16(out, 0) // minorVersion
	out = binary.BigEndian.AppendUint32(out, 0) // metaOffset
	out = binary.BigEndian.AppendUint32(out, 0) // metaLength
	out = binary.BigEndian.AppendUint32(out, 0) // metaOrigLength
	out = binary.BigEndian.AppendUint32(out, 0) // privOffset
	out = binary.BigEndian.AppendUint32(out, 0) // privLength

	for i, e := range entries {
		out = appendTag(out, e.tag)
		out = binary.BigEndian.AppendUint32(out, offsets[i])
		out = binary.BigEndian.AppendUint32(out, uint32(len(e.data)))
		out = binary.BigEndian.AppendUint32(out, e.origLength)
		out = binary.BigEndian.AppendUint32(out, e.checksum)
	}
	for _, e := range entries {
		out = append(out, e.data...)
		out = appendPad4(out)
	}
	return out, nil
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}

func appendPad4(b []byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	return b
}

func appendTag(b []byte, tag string) []byte {
	for i := 0; i < 4; i++ {
		if i < len(tag) {
			b = append(b, tag[i])
		} else {
			b = append(b, ' ')
		}
	}
	return b
}
