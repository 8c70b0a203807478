package converter

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/andybalholm/brotli"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/sfnt"
)

const woff2Signature = 0x774F3232 // 'wOF2'

// woff2KnownTags is the leading slice of the container's table-tag
// enumeration, covering every table this package emits. Anything else is
// written behind the arbitrary-tag flag 0x3F.
var woff2KnownTags = map[string]byte{
	"cmap": 0, "head": 1, "hhea": 2, "hmtx": 3,
	"maxp": 4, "name": 5, "OS/2": 6, "post": 7,
	"cvt ": 8, "fpgm": 9, "glyf": 10, "loca": 11,
	"prep": 12,
}

// encodeWOFF2 wraps a TTF into a WOFF2 container. All tables use the null
// transform (version 3 for glyf and loca, version 0 otherwise) and the
// concatenated table data is compressed as a single brotli stream.
func encodeWOFF2(ttf []byte) ([]byte, error) {
	dir, err := sfnt.ParseDirectory(ttf)
	if err != nil {
		return nil, fmt.Errorf("woff2: %w", err)
	}
	tables := woff2Order(dir.Tables)

	var dirBuf, stream []byte
	totalSfntSize := uint32(12 + 16*len(tables))
	for _, tbl := range tables {
		index, known := woff2KnownTags[tbl.Tag]
		var transform byte
		if tbl.Tag == "glyf" || tbl.Tag == "loca" {
			transform = 3
		}
		if known {
			dirBuf = append(dirBuf, index|transform<<6)
		} else {
			dirBuf = append(dirBuf, 0x3F|transform<<6)
			dirBuf = appendTag(dirBuf, tbl.Tag)
		}
		dirBuf = appendBase128(dirBuf, uint32(len(tbl.Data)))

		stream = append(stream, tbl.Data...)
		totalSfntSize += pad4(uint32(len(tbl.Data)))
	}

	compressed, err := brotliCompress(stream)
	if err != nil {
		return nil, fmt.Errorf("woff2: %w", err)
	}

	total := uint32(48 + len(dirBuf) + len(compressed))
	out := make([]byte, 0, total)
	out = binary.BigEndian.AppendUint32(out, woff2Signature)
	out = binary.BigEndian.AppendUint32(out, dir.Version)
	out = binary.BigEndian.AppendUint32(out, total)
	out = binary.BigEndian.AppendUint16(out, uint16(len(tables)))
	out = binary.BigEndian.AppendUint16(out, 0) // reserved
	out = binary.BigEndian.AppendUint32(out, totalSfntSize)
	out = binary.BigEndian.AppendUint32(out, uint32(len(compressed)))
	out = binary.BigEndian.AppendUint16(out, 1) // majorVersion
	out = binary.BigEndian.AppendUint16(out, 0) // minorVersion
	out = binary.BigEndian.AppendUint32(out, 0) // metaOffset
	out = binary.BigEndian.AppendUint32(out, 0) // metaLength
	out = binary.BigEndian.AppendUint32(out, 0) // metaOrigLength
	out = binary.BigEndian.AppendUint32(out, 0) // privOffset
	out = binary.BigEndian.AppendUint32(out, 0) // privLength
	out = append(out, dirBuf...)
	out = append(out, compressed...)
	return out, nil
}

// woff2Order keeps the directory order except that loca is moved to sit
// directly behind glyf, which the container requires.
func woff2Order(tables []sfnt.Table) []sfnt.Table {
	var loca sfnt.Table
	hasLoca := false
	out := make([]sfnt.Table, 0, len(tables))
	for _, tbl := range tables {
		if tbl.Tag == "loca" {
			loca, hasLoca = tbl, true
			continue
		}
		out = append(out, tbl)
	}
	if !hasLoca {
		return out
	}
	for i, tbl := range out {
		if tbl.Tag == "glyf" {
			return append(out[:i+1], append([]sfnt.Table{loca}, out[i+1:]...)...)
		}
	}
	return append(out, loca)
}

func brotliCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(data); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// appendBase128 writes v as UIntBase128: big-endian base-128 groups, high
// bit set on every byte but the last.
func appendBase128(b []byte, v uint32) []byte {
	var groups [5]byte
	n := 0
	for {
		groups[n] = byte(v & 0x7F)
		n++
		v >>= 7
		if v == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		b = append(b, groups[i]|0x80)
	}
	return append(b, groups[0])
}
