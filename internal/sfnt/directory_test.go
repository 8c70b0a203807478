package sfnt

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rawFont assembles a minimal sfnt container around the given tables,
// without checksums. Enough structure for ParseDirectory.
func rawFont(version uint32, tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var w bigWriter
	w.u32(version)
	w.u16(uint16(len(tags)))
	w.u16(0)
	w.u16(0)
	w.u16(0)

	offset := uint32(12 + 16*len(tags))
	for _, tag := range tags {
		data := tables[tag]
		w.tag(tag)
		w.u32(Checksum(data))
		w.u32(offset)
		w.u32(uint32(len(data)))
		offset += uint32((len(data) + 3) &^ 3)
	}
	for _, tag := range tags {
		w.raw(tables[tag])
		w.pad4()
	}
	return w.bytes()
}

func TestParseDirectory(t *testing.T) {
	head := make([]byte, 54)
	head[18], head[19] = 0x08, 0x00 // unitsPerEm 2048
	maxp := []byte{0x00, 0x00, 0x50, 0x00, 0x00, 0x07}

	t.Run("round trip", func(t *testing.T) {
		dir, err := ParseDirectory(rawFont(0x00010000, map[string][]byte{"head": head, "maxp": maxp}))
		require.NoError(t, err)
		require.Len(t, dir.Tables, 2)

		got, ok := dir.Table("head")
		require.True(t, ok)
		assert.Equal(t, head, got)

		_, ok = dir.Table("glyf")
		assert.False(t, ok)

		n, err := dir.NumGlyphs()
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		upem, err := dir.UnitsPerEm()
		require.NoError(t, err)
		assert.Equal(t, 2048, upem)
	})

	t.Run("legacy and CFF version tags accepted", func(t *testing.T) {
		for _, version := range []uint32{0x74727565, 0x4F54544F} {
			_, err := ParseDirectory(rawFont(version, map[string][]byte{"head": head}))
			assert.NoError(t, err, "version 0x%08X", version)
		}
	})

	t.Run("unknown version rejected", func(t *testing.T) {
		_, err := ParseDirectory(rawFont(0xDEADBEEF, nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized version")
	})

	t.Run("short input rejected", func(t *testing.T) {
		_, err := ParseDirectory([]byte{0x00, 0x01})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too short")
	})

	t.Run("directory longer than font rejected", func(t *testing.T) {
		data := rawFont(0x00010000, map[string][]byte{"head": head})
		data[5] = 40 // claim 40 tables
		_, err := ParseDirectory(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("table past end of font rejected", func(t *testing.T) {
		data := rawFont(0x00010000, map[string][]byte{"head": head})
		putU32(data[12+12:], 1<<20) // head length
		_, err := ParseDirectory(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"head"`)
	})

	t.Run("offset plus length overflow rejected", func(t *testing.T) {
		data := rawFont(0x00010000, map[string][]byte{"head": head})
		putU32(data[12+8:], 0xFFFFFFF0)
		putU32(data[12+12:], 0xFFFFFFF0)
		_, err := ParseDirectory(data)
		require.Error(t, err)
	})

	t.Run("missing metric tables reported", func(t *testing.T) {
		dir, err := ParseDirectory(rawFont(0x00010000, map[string][]byte{"maxp": maxp}))
		require.NoError(t, err)
		_, err = dir.UnitsPerEm()
		assert.Error(t, err)

		dir, err = ParseDirectory(rawFont(0x00010000, map[string][]byte{"head": head}))
		require.NoError(t, err)
		_, err = dir.NumGlyphs()
		assert.Error(t, err)
	})
}

// nameTable builds a format-0 name table from (platform, nameID, payload)
// records. Payloads are stored as given; callers pre-encode UTF-16BE for
// platform 3.
func nameTable(records []struct {
	platform uint16
	nameID   uint16
	payload  []byte
}) []byte {
	var w bigWriter
	w.u16(0)
	w.u16(uint16(len(records)))
	w.u16(uint16(6 + 12*len(records)))

	offset := 0
	for _, rec := range records {
		w.u16(rec.platform)
		w.u16(0) // encoding
		w.u16(0) // language
		w.u16(rec.nameID)
		w.u16(uint16(len(rec.payload)))
		w.u16(uint16(offset))
		offset += len(rec.payload)
	}
	for _, rec := range records {
		w.raw(rec.payload)
	}
	return w.bytes()
}

func TestDirectoryName(t *testing.T) {
	type rec = struct {
		platform uint16
		nameID   uint16
		payload  []byte
	}

	t.Run("windows record preferred over mac", func(t *testing.T) {
		table := nameTable([]rec{
			{1, nameIDFamily, []byte("macname")},
			{3, nameIDFamily, utf16BE("winname")},
		})
		dir := &Directory{Tables: []Table{{Tag: "name", Data: table}}}

		got, ok := dir.Name(nameIDFamily)
		require.True(t, ok)
		assert.Equal(t, "winname", got)
	})

	t.Run("mac fallback when no windows record", func(t *testing.T) {
		table := nameTable([]rec{{1, nameIDFamily, []byte("maconly")}})
		dir := &Directory{Tables: []Table{{Tag: "name", Data: table}}}

		got, ok := dir.Name(nameIDFamily)
		require.True(t, ok)
		assert.Equal(t, "maconly", got)
	})

	t.Run("absent id misses", func(t *testing.T) {
		table := nameTable([]rec{{3, nameIDVersion, utf16BE("Version 1.0")}})
		dir := &Directory{Tables: []Table{{Tag: "name", Data: table}}}

		_, ok := dir.Name(nameIDFamily)
		assert.False(t, ok)
	})

	t.Run("no name table misses", func(t *testing.T) {
		dir := &Directory{}
		_, ok := dir.Name(nameIDFamily)
		assert.False(t, ok)
	})
}

func TestDecodeUTF16BE(t *testing.T) {
	assert.Equal(t, "Abc", decodeUTF16BE([]byte{0x00, 'A', 0x00, 'b', 0x00, 'c'}))
	// Surrogate pair for U+1F600.
	assert.Equal(t, "\U0001F600", decodeUTF16BE([]byte{0xD8, 0x3D, 0xDE, 0x00}))
	// Unpaired high surrogate is kept as-is rather than dropped.
	assert.Equal(t, 1, len([]rune(decodeUTF16BE([]byte{0xD8, 0x3D}))))
	// Odd trailing byte ignored.
	assert.Equal(t, "A", decodeUTF16BE([]byte{0x00, 'A', 0x00}))
	assert.Equal(t, "", decodeUTF16BE(nil))
}
