package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"math"
)

// segment is one unit of encoded pixel data: a tile or a strip.
type segment struct {
	rect    image.Rectangle // covered image region
	paddedW int             // row width in pixels inside the encoded data
	offset  uint64
	size    uint64
}

// segments lists the pixel data segments of an IFD in row-major order.
func (d *ifd) segments() ([]segment, error) {
	if d.tiled() {
		tw := int(d.TileWidth)
		th := int(d.TileHeight)
		across := d.tilesAcross()
		down := d.tilesDown()
		n := across * down
		if len(d.TileOffsets) < n || len(d.TileByteCounts) < n {
			return nil, fmt.Errorf("tile index truncated: %d offsets for %d tiles", len(d.TileOffsets), n)
		}

		segs := make([]segment, 0, n)
		for row := 0; row < down; row++ {
			for col := 0; col < across; col++ {
				i := row*across + col
				rect := image.Rect(col*tw, row*th, (col+1)*tw, (row+1)*th).
					Intersect(image.Rect(0, 0, int(d.Width), int(d.Height)))
				segs = append(segs, segment{
					rect:    rect,
					paddedW: tw,
					offset:  d.TileOffsets[i],
					size:    d.TileByteCounts[i],
				})
			}
		}
		return segs, nil
	}

	// Strip organization. RowsPerStrip 0 means a single strip.
	rps := int(d.RowsPerStrip)
	if rps <= 0 {
		rps = int(d.Height)
	}
	n := (int(d.Height) + rps - 1) / rps
	if len(d.StripOffsets) < n || len(d.StripByteCounts) < n {
		return nil, fmt.Errorf("strip index truncated: %d offsets for %d strips", len(d.StripOffsets), n)
	}

	segs := make([]segment, 0, n)
	for i := 0; i < n; i++ {
		y0 := i * rps
		y1 := y0 + rps
		if y1 > int(d.Height) {
			y1 = int(d.Height)
		}
		segs = append(segs, segment{
			rect:    image.Rect(0, y0, int(d.Width), y1),
			paddedW: int(d.Width),
			offset:  d.StripOffsets[i],
			size:    d.StripByteCounts[i],
		})
	}
	return segs, nil
}

// DecodeRGBA decodes the full-resolution pixel data into an 8-bit RGB image
// (alpha fixed at 255).
//
// Band handling: one band is replicated across R, G and B; three or more
// bands are truncated to the first three, dropping alpha and extras. Sample
// depths above 8 bits are linearly rescaled to 8-bit over the dynamic range
// actually observed in the raster, so low-contrast data does not come out
// near-black. Layouts with no defined RGB mapping (palette, planar-separate,
// two-band) fail with ErrUnsupportedLayout.
func (r *Raster) DecodeRGBA() (*image.RGBA, error) {
	d := &r.ifds[0]
	w, h := int(d.Width), int(d.Height)

	spp := int(d.SamplesPerPixel)
	if spp <= 0 {
		spp = 1
	}

	switch {
	case d.HasColorMap || d.Photometric == 3:
		return nil, fmt.Errorf("%w: palette-indexed image", ErrUnsupportedLayout)
	case d.PlanarConfig != 1:
		return nil, fmt.Errorf("%w: planar configuration %d", ErrUnsupportedLayout, d.PlanarConfig)
	case spp == 2:
		return nil, fmt.Errorf("%w: 2 samples per pixel", ErrUnsupportedLayout)
	}

	if d.Compression == compressionJPEG {
		return r.decodeJPEG(d, w, h)
	}

	bits := 8
	if len(d.BitsPerSample) > 0 {
		bits = int(d.BitsPerSample[0])
	}
	for _, b := range d.BitsPerSample {
		if int(b) != bits {
			return nil, fmt.Errorf("%w: mixed bit depths %v", ErrUnsupportedLayout, d.BitsPerSample)
		}
	}

	format := sampleFormatUint
	if len(d.SampleFormat) > 0 {
		format = int(d.SampleFormat[0])
	}

	switch {
	case bits == 8 && format == sampleFormatUint:
	case bits == 16 && (format == sampleFormatUint || format == sampleFormatInt):
	case bits == 32 && format == sampleFormatFloat:
	default:
		return nil, fmt.Errorf("%w: %d-bit samples with format %d", ErrUnsupportedLayout, bits, format)
	}

	if d.Predictor != 1 && d.Predictor != 2 {
		return nil, fmt.Errorf("%w: predictor %d", ErrUnsupportedLayout, d.Predictor)
	}

	segs, err := d.segments()
	if err != nil {
		return nil, err
	}

	if bits == 8 {
		return r.decode8(d, segs, w, h, spp)
	}
	return r.decodeDeep(d, segs, w, h, spp, bits, format)
}

// decompressSegment returns the decoded bytes of one segment.
func (r *Raster) decompressSegment(d *ifd, seg segment) ([]byte, error) {
	end := seg.offset + seg.size
	if end > uint64(len(r.data)) {
		return nil, fmt.Errorf("segment data [%d:%d] exceeds file size %d", seg.offset, end, len(r.data))
	}
	raw := r.data[seg.offset:end]

	switch d.Compression {
	case compressionNone:
		return raw, nil
	case compressionLZW:
		return lzwDecompress(raw)
	case compressionDeflate, compressionOldZip:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("deflate segment: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unsupported compression: %d", d.Compression)
	}
}

// undoPredictor reverses TIFF horizontal differencing in place. The 16-bit
// variant differences whole values in the file's byte order.
func undoPredictor(data []byte, paddedW, rows, spp, bits int, bo binary.ByteOrder) {
	switch bits {
	case 8:
		stride := paddedW * spp
		for y := 0; y < rows; y++ {
			row := y * stride
			if row+stride > len(data) {
				return
			}
			for x := spp; x < stride; x++ {
				data[row+x] += data[row+x-spp]
			}
		}
	case 16:
		stride := paddedW * spp * 2
		for y := 0; y < rows; y++ {
			row := y * stride
			if row+stride > len(data) {
				return
			}
			for x := spp * 2; x+1 < stride; x += 2 {
				prev := bo.Uint16(data[row+x-spp*2:])
				cur := bo.Uint16(data[row+x:])
				bo.PutUint16(data[row+x:], cur+prev)
			}
		}
	}
}

// decode8 handles 8-bit unsigned samples, written straight into the output.
func (r *Raster) decode8(d *ifd, segs []segment, w, h, spp int) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for _, seg := range segs {
		if seg.size == 0 {
			continue // sparse segment: leave black
		}
		data, err := r.decompressSegment(d, seg)
		if err != nil {
			return nil, err
		}
		rows := seg.rect.Dy()
		if d.Predictor == 2 {
			undoPredictor(data, seg.paddedW, rows, spp, 8, r.bo)
		}

		for y := seg.rect.Min.Y; y < seg.rect.Max.Y; y++ {
			srcRow := (y - seg.rect.Min.Y) * seg.paddedW * spp
			for x := seg.rect.Min.X; x < seg.rect.Max.X; x++ {
				idx := srcRow + (x-seg.rect.Min.X)*spp
				if idx+spp > len(data) {
					return nil, fmt.Errorf("segment at %v truncated: need %d bytes, have %d", seg.rect.Min, idx+spp, len(data))
				}
				o := dst.PixOffset(x, y)
				if spp == 1 {
					g := data[idx]
					dst.Pix[o+0] = g
					dst.Pix[o+1] = g
					dst.Pix[o+2] = g
				} else {
					dst.Pix[o+0] = data[idx]
					dst.Pix[o+1] = data[idx+1]
					dst.Pix[o+2] = data[idx+2]
				}
				dst.Pix[o+3] = 255
			}
		}
	}
	return dst, nil
}

// decodeDeep handles 16-bit integer and 32-bit float samples: collect up to
// three channels as float32, then rescale the observed range to 8 bits.
func (r *Raster) decodeDeep(d *ifd, segs []segment, w, h, spp, bits, format int) (*image.RGBA, error) {
	channels := 3
	if spp == 1 {
		channels = 1
	}
	samples := make([]float32, w*h*channels)
	bytesPer := bits / 8

	for _, seg := range segs {
		if seg.size == 0 {
			continue
		}
		data, err := r.decompressSegment(d, seg)
		if err != nil {
			return nil, err
		}
		rows := seg.rect.Dy()
		if d.Predictor == 2 {
			undoPredictor(data, seg.paddedW, rows, spp, bits, r.bo)
		}

		for y := seg.rect.Min.Y; y < seg.rect.Max.Y; y++ {
			srcRow := (y - seg.rect.Min.Y) * seg.paddedW * spp * bytesPer
			for x := seg.rect.Min.X; x < seg.rect.Max.X; x++ {
				idx := srcRow + (x-seg.rect.Min.X)*spp*bytesPer
				if idx+channels*bytesPer > len(data) {
					return nil, fmt.Errorf("segment at %v truncated: need %d bytes, have %d", seg.rect.Min, idx+channels*bytesPer, len(data))
				}
				base := (y*w + x) * channels
				for c := 0; c < channels; c++ {
					samples[base+c] = r.readSample(data[idx+c*bytesPer:], bits, format)
				}
			}
		}
	}

	return flattenSamples(samples, w, h, channels), nil
}

// readSample decodes a single sample at the start of data using the file
// byte order.
func (r *Raster) readSample(data []byte, bits, format int) float32 {
	switch bits {
	case 16:
		v := r.bo.Uint16(data)
		if format == sampleFormatInt {
			return float32(int16(v))
		}
		return float32(v)
	case 32:
		return math.Float32frombits(r.bo.Uint32(data))
	default:
		return float32(data[0])
	}
}

// flattenSamples rescales collected float samples to 8-bit RGB using the
// observed min/max, replicating a single channel across RGB.
func flattenSamples(samples []float32, w, h, channels int) *image.RGBA {
	lo := float32(math.Inf(1))
	hi := float32(math.Inf(-1))
	for _, s := range samples {
		if math.IsNaN(float64(s)) {
			continue
		}
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	scale := float32(0)
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			base := (y*w + x) * channels
			o := dst.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				s := samples[base+min(c, channels-1)]
				var v byte
				switch {
				case math.IsNaN(float64(s)):
					v = 0
				case scale == 0:
					v = 128 // uniform raster: mid-gray beats all-black
				default:
					v = byte(clamp255((s - lo) * scale))
				}
				dst.Pix[o+c] = v
			}
			dst.Pix[o+3] = 255
		}
	}
	return dst
}

func clamp255(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// decodeJPEG handles JPEG-in-TIFF, merging shared JPEGTables into each
// segment's abbreviated stream before decoding.
func (r *Raster) decodeJPEG(d *ifd, w, h int) (*image.RGBA, error) {
	segs, err := d.segments()
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for _, seg := range segs {
		if seg.size == 0 {
			continue
		}
		end := seg.offset + seg.size
		if end > uint64(len(r.data)) {
			return nil, fmt.Errorf("segment data [%d:%d] exceeds file size %d", seg.offset, end, len(r.data))
		}
		img, err := decodeJPEGSegment(d.JPEGTables, r.data[seg.offset:end])
		if err != nil {
			return nil, err
		}
		draw.Draw(dst, seg.rect, img, img.Bounds().Min, draw.Src)
	}
	return dst, nil
}

// decodeJPEGSegment decodes one JPEG segment, optionally prepending shared
// tables. The tables' trailing EOI and the segment's leading SOI are
// stripped so the concatenation forms a single valid stream.
func decodeJPEGSegment(tables, data []byte) (image.Image, error) {
	jpegData := data
	if len(tables) > 0 {
		t := tables
		if len(t) >= 2 && t[len(t)-2] == 0xFF && t[len(t)-1] == 0xD9 {
			t = t[:len(t)-2]
		}
		seg := data
		if len(seg) >= 2 && seg[0] == 0xFF && seg[1] == 0xD8 {
			seg = seg[2:]
		}
		jpegData = make([]byte, len(t)+len(seg))
		copy(jpegData, t)
		copy(jpegData[len(t):], seg)
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG segment: %w", err)
	}
	return img, nil
}
