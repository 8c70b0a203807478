package converter

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/errors"
	"github.com/MichealWayne/svgs2fonts-sub000/internal/sfnt"
)

const testArtifact = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg">
<defs>
<font id="iconfont" horiz-adv-x="1024">
<font-face font-family="iconfont" units-per-em="1024" ascent="896" descent="-128"/>
<missing-glyph horiz-adv-x="0"/>
<glyph glyph-name="home" unicode="&#xE001;" horiz-adv-x="1024" d="M100 0L900 0 900 800 100 800Z"/>
<glyph glyph-name="menu" unicode="&#xE002;" horiz-adv-x="1024" d="M100 400C100 700 400 800 512 800C700 800 900 700 900 400Z"/>
</font>
</defs>
</svg>
`

// singleGlyphArtifact is a smaller variant used by the cache tests.
const singleGlyphArtifact = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg">
<defs>
<font id="iconfont" horiz-adv-x="1024">
<font-face font-family="iconfont" units-per-em="1024" ascent="896" descent="-128"/>
<missing-glyph horiz-adv-x="0"/>
<glyph glyph-name="solo" unicode="&#xE001;" horiz-adv-x="1024" d="M0 0L100 0 100 100Z"/>
</font>
</defs>
</svg>
`

var convStamp = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestConverter(t *testing.T, artifact string) (*Converter, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "iconfont.svg")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o644))
	c := New(Options{
		FontName:     "iconfont",
		OutputDir:    dir,
		ArtifactPath: path,
		Timestamp:    convStamp,
	})
	t.Cleanup(c.Cleanup)
	return c, dir
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"eot", "svg", "ttf", "woff", "woff2"}, Formats())
}

func TestValidateFormats(t *testing.T) {
	assert.NoError(t, ValidateFormats([]string{"svg", "ttf", "eot", "woff", "woff2"}))
	assert.NoError(t, ValidateFormats(nil))

	err := ValidateFormats([]string{"ttf", "otf"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), `"otf"`)
}

func TestGenerateFormatSVG(t *testing.T) {
	c, dir := newTestConverter(t, testArtifact)

	res := c.GenerateFormat(context.Background(), "svg")
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, filepath.Join(dir, "iconfont.svg"), res.OutputPath)
	assert.Equal(t, int64(len(testArtifact)), res.FileSize)

	written, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, testArtifact, string(written))
}

func TestGenerateFormatTTF(t *testing.T) {
	c, dir := newTestConverter(t, testArtifact)

	res := c.GenerateFormat(context.Background(), "ttf")
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, filepath.Join(dir, "iconfont.ttf"), res.OutputPath)
	assert.Greater(t, res.Duration, time.Duration(0))

	ttf, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, int64(len(ttf)), res.FileSize)

	fontDir, err := sfnt.ParseDirectory(ttf)
	require.NoError(t, err)
	n, err := fontDir.NumGlyphs()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "notdef plus two glyphs")
	family, ok := fontDir.Name(1)
	require.True(t, ok)
	assert.Equal(t, "iconfont", family)
}

func TestGenerateFormatErrors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		c, _ := newTestConverter(t, testArtifact)
		res := c.GenerateFormat(context.Background(), "otf")
		assert.False(t, res.Success)
		assert.True(t, errors.IsConfiguration(res.Err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, _ := newTestConverter(t, testArtifact)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := c.GenerateFormat(ctx, "ttf")
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, context.Canceled)
	})

	t.Run("undecodable artifact fails binary formats only", func(t *testing.T) {
		c, _ := newTestConverter(t, "<svg><defs></defs></svg>")

		svg := c.GenerateFormat(context.Background(), "svg")
		assert.True(t, svg.Success, "raw copy needs no decoding")

		ttf := c.GenerateFormat(context.Background(), "ttf")
		assert.False(t, ttf.Success)
		assert.ErrorContains(t, ttf.Err, "decoding font artifact")
	})
}

func TestResourceCache(t *testing.T) {
	t.Run("decoded buffer survives artifact changes until Cleanup", func(t *testing.T) {
		c, _ := newTestConverter(t, testArtifact)

		first := c.GenerateFormat(context.Background(), "ttf")
		require.True(t, first.Success)

		require.NoError(t, os.WriteFile(c.opts.ArtifactPath, []byte(singleGlyphArtifact), 0o644))

		second := c.GenerateFormat(context.Background(), "ttf")
		require.True(t, second.Success)
		assert.Equal(t, first.FileSize, second.FileSize, "cached buffer must be reused")

		c.Cleanup()
		third := c.GenerateFormat(context.Background(), "ttf")
		require.True(t, third.Success)
		assert.NotEqual(t, first.FileSize, third.FileSize, "post-cleanup build must see the new artifact")
	})

	t.Run("read errors are cached too", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "iconfont.svg")
		c := New(Options{FontName: "iconfont", OutputDir: dir, ArtifactPath: path, Timestamp: convStamp})

		res := c.GenerateFormat(context.Background(), "ttf")
		require.False(t, res.Success)

		require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o644))
		res = c.GenerateFormat(context.Background(), "ttf")
		assert.False(t, res.Success, "failed read is computed once, not retried")

		c.Cleanup()
		res = c.GenerateFormat(context.Background(), "ttf")
		assert.True(t, res.Success)
	})
}

func TestGenerateBatch(t *testing.T) {
	t.Run("all formats succeed", func(t *testing.T) {
		c, dir := newTestConverter(t, testArtifact)

		batch, err := c.GenerateBatch(context.Background(), []string{"svg", "ttf", "eot", "woff", "woff2"})
		require.NoError(t, err)
		assert.Len(t, batch.Successful, 5)
		assert.Empty(t, batch.Failed)
		assert.Greater(t, batch.TotalDuration, time.Duration(0))

		for _, format := range []string{"svg", "ttf", "eot", "woff", "woff2"} {
			_, statErr := os.Stat(filepath.Join(dir, "iconfont."+format))
			assert.NoError(t, statErr, "missing %s output", format)
		}

		var ttfSize, woff2Size int64
		for _, res := range batch.Successful {
			switch res.Format {
			case "ttf":
				ttfSize = res.FileSize
			case "woff2":
				woff2Size = res.FileSize
			}
		}
		require.NotZero(t, ttfSize)
		require.NotZero(t, woff2Size)
		assert.InDelta(t, float64(woff2Size)/float64(ttfSize), batch.CompressionRatio, 1e-9)
	})

	t.Run("ratio needs both baseline and compressed format", func(t *testing.T) {
		c, _ := newTestConverter(t, testArtifact)
		batch, err := c.GenerateBatch(context.Background(), []string{"svg", "woff2"})
		require.NoError(t, err)
		assert.Zero(t, batch.CompressionRatio)

		batch, err = c.GenerateBatch(context.Background(), []string{"ttf", "woff"})
		require.NoError(t, err)
		assert.Zero(t, batch.CompressionRatio)
	})

	t.Run("unknown format fails fast", func(t *testing.T) {
		c, dir := newTestConverter(t, testArtifact)
		_, err := c.GenerateBatch(context.Background(), []string{"ttf", "nope", "woff"})
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))

		_, statErr := os.Stat(filepath.Join(dir, "iconfont.ttf"))
		assert.True(t, os.IsNotExist(statErr), "validation must run before any conversion")
	})

	t.Run("results partition by success", func(t *testing.T) {
		c, _ := newTestConverter(t, "<svg><defs></defs></svg>")
		batch, err := c.GenerateBatch(context.Background(), []string{"svg", "ttf"})
		require.NoError(t, err)
		require.Len(t, batch.Successful, 1)
		require.Len(t, batch.Failed, 1)
		assert.Equal(t, "svg", batch.Successful[0].Format)
		assert.Equal(t, "ttf", batch.Failed[0].Format)
	})

	t.Run("serial bound still completes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "iconfont.svg")
		require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o644))
		c := New(Options{
			FontName: "iconfont", OutputDir: dir, ArtifactPath: path,
			MaxConcurrency: 1, Timestamp: convStamp,
		})
		batch, err := c.GenerateBatch(context.Background(), []string{"ttf", "woff", "woff2", "eot"})
		require.NoError(t, err)
		assert.Len(t, batch.Successful, 4)
	})

	t.Run("cancelled context fails every format", func(t *testing.T) {
		c, _ := newTestConverter(t, testArtifact)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		batch, err := c.GenerateBatch(ctx, []string{"ttf", "woff"})
		require.NoError(t, err)
		assert.Empty(t, batch.Successful)
		assert.Len(t, batch.Failed, 2)
	})
}

func buildCanonicalTTF(t *testing.T) []byte {
	t.Helper()
	c, _ := newTestConverter(t, testArtifact)
	ttf, err := c.canonicalTTF()
	require.NoError(t, err)
	return ttf
}

// unpackWOFF validates the container framing and returns the decompressed
// tables keyed by tag.
func unpackWOFF(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 44)
	require.Equal(t, uint32(woffSignature), binary.BigEndian.Uint32(data))
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[8:]), "declared length")

	numTables := int(binary.BigEndian.Uint16(data[12:]))
	tables := make(map[string][]byte, numTables)
	for i := 0; i < numTables; i++ {
		rec := 44 + 20*i
		tag := string(data[rec : rec+4])
		offset := binary.BigEndian.Uint32(data[rec+4:])
		compLen := binary.BigEndian.Uint32(data[rec+8:])
		origLen := binary.BigEndian.Uint32(data[rec+12:])
		raw := data[offset : offset+compLen]

		if compLen == origLen {
			tables[tag] = raw
			continue
		}
		require.Less(t, compLen, origLen, "table %s grew under compression", tag)
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		require.NoError(t, err, "table %s", tag)
		dec, err := io.ReadAll(zr)
		require.NoError(t, err)
		require.Equal(t, int(origLen), len(dec))
		tables[tag] = dec
	}
	return tables
}

func TestEncodeWOFF(t *testing.T) {
	ttf := buildCanonicalTTF(t)
	woff, err := encodeWOFF(ttf)
	require.NoError(t, err)

	dir, err := sfnt.ParseDirectory(ttf)
	require.NoError(t, err)

	tables := unpackWOFF(t, woff)
	require.Len(t, tables, len(dir.Tables))
	for _, tbl := range dir.Tables {
		assert.Equal(t, tbl.Data, tables[tbl.Tag], "table %s must round-trip", tbl.Tag)
	}

	t.Run("totalSfntSize reconstructs the original", func(t *testing.T) {
		want := uint32(12 + 16*len(dir.Tables))
		for _, tbl := range dir.Tables {
			want += pad4(uint32(len(tbl.Data)))
		}
		assert.Equal(t, want, binary.BigEndian.Uint32(woff[16:]))
		assert.Equal(t, want, uint32(len(ttf)), "sanity: matches the input font size")
	})
}

// unpackWOFF2 validates the container framing and returns tag-ordered table
// contents from the single compressed stream.
func unpackWOFF2(t *testing.T, data []byte) (tags []string, tables [][]byte, transforms []byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(data), 48)
	require.Equal(t, uint32(woff2Signature), binary.BigEndian.Uint32(data))
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[8:]), "declared length")
	numTables := int(binary.BigEndian.Uint16(data[12:]))
	compressedSize := binary.BigEndian.Uint32(data[20:])

	knownByIndex := make(map[byte]string, len(woff2KnownTags))
	for tag, idx := range woff2KnownTags {
		knownByIndex[idx] = tag
	}

	pos := 48
	var lengths []uint32
	for i := 0; i < numTables; i++ {
		flags := data[pos]
		pos++
		tag, ok := knownByIndex[flags&0x3F]
		if flags&0x3F == 0x3F {
			tag = string(data[pos : pos+4])
			pos += 4
		} else {
			require.True(t, ok, "unknown tag index %d", flags&0x3F)
		}
		transforms = append(transforms, flags>>6)

		var length uint32
		for {
			b := data[pos]
			pos++
			length = length<<7 | uint32(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		tags = append(tags, tag)
		lengths = append(lengths, length)
	}

	require.Equal(t, int(compressedSize), len(data)-pos, "stream fills the rest of the file")
	br := brotli.NewReader(bytes.NewReader(data[pos:]))
	stream, err := io.ReadAll(br)
	require.NoError(t, err)

	offset := uint32(0)
	for _, length := range lengths {
		require.LessOrEqual(t, offset+length, uint32(len(stream)))
		tables = append(tables, stream[offset:offset+length])
		offset += length
	}
	require.Equal(t, uint32(len(stream)), offset, "no trailing stream bytes")
	return tags, tables, transforms
}

func TestEncodeWOFF2(t *testing.T) {
	ttf := buildCanonicalTTF(t)
	woff2, err := encodeWOFF2(ttf)
	require.NoError(t, err)

	dir, err := sfnt.ParseDirectory(ttf)
	require.NoError(t, err)
	byTag := make(map[string][]byte, len(dir.Tables))
	for _, tbl := range dir.Tables {
		byTag[tbl.Tag] = tbl.Data
	}

	tags, tables, transforms := unpackWOFF2(t, woff2)
	require.Len(t, tags, len(dir.Tables))
	for i, tag := range tags {
		assert.Equal(t, byTag[tag], tables[i], "table %s must round-trip", tag)
	}

	t.Run("loca directly follows glyf", func(t *testing.T) {
		glyfAt := -1
		for i, tag := range tags {
			if tag == "glyf" {
				glyfAt = i
			}
		}
		require.GreaterOrEqual(t, glyfAt, 0)
		require.Less(t, glyfAt+1, len(tags))
		assert.Equal(t, "loca", tags[glyfAt+1])
	})

	t.Run("null transforms throughout", func(t *testing.T) {
		for i, tag := range tags {
			switch tag {
			case "glyf", "loca":
				assert.Equal(t, byte(3), transforms[i], "table %s", tag)
			default:
				assert.Equal(t, byte(0), transforms[i], "table %s", tag)
			}
		}
	})
}

func TestAppendBase128(t *testing.T) {
	decode := func(b []byte) (uint32, int) {
		var v uint32
		for i, c := range b {
			v = v<<7 | uint32(c&0x7F)
			if c&0x80 == 0 {
				return v, i + 1
			}
		}
		t.Fatalf("unterminated base128 sequence % X", b)
		return 0, 0
	}

	for _, v := range []uint32{0, 1, 127, 128, 255, 16383, 16384, 1 << 20, 1<<32 - 1} {
		enc := appendBase128(nil, v)
		got, n := decode(enc)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), n)
		if v > 0 {
			assert.NotEqual(t, byte(0x80), enc[0], "no leading zero bytes")
		}
	}
}

func TestEncodeEOT(t *testing.T) {
	ttf := buildCanonicalTTF(t)
	eot, err := encodeEOT(ttf)
	require.NoError(t, err)

	assert.Equal(t, uint32(len(eot)), binary.LittleEndian.Uint32(eot), "EOTSize")
	assert.Equal(t, uint32(len(ttf)), binary.LittleEndian.Uint32(eot[4:]), "FontDataSize")
	assert.Equal(t, uint32(eotVersion), binary.LittleEndian.Uint32(eot[8:]))
	assert.Equal(t, uint16(eotMagic), binary.LittleEndian.Uint16(eot[34:]), "magic number")

	assert.True(t, bytes.HasSuffix(eot, ttf), "raw font data trails the header")

	t.Run("family name travels in the header", func(t *testing.T) {
		size := int(binary.LittleEndian.Uint16(eot[82:]))
		raw := eot[84 : 84+size]
		var name []rune
		for i := 0; i+1 < len(raw); i += 2 {
			name = append(name, rune(binary.LittleEndian.Uint16(raw[i:])))
		}
		assert.Equal(t, "iconfont", string(name))
	})

	t.Run("rejects fontless buffers", func(t *testing.T) {
		_, err := encodeEOT([]byte("not a font"))
		assert.Error(t, err)
	})
}
