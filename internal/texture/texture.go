package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/jpeg" // register decoders for plain uploads
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode means the pixel data could not be decoded at all.
var ErrDecode = errors.New("undecodable pixel data")

// DefaultMaxDimension caps the longer texture axis so the encoded payload
// stays transport-safe.
const DefaultMaxDimension = 2048

// Artifact is a render-ready encoded texture. Width and Height describe the
// encoded (possibly downsampled) image, not the source raster.
type Artifact struct {
	Width  int
	Height int
	Data   []byte
	MIME   string
}

// Processor downsample-and-encodes decoded rasters into Artifacts.
// The zero value is not usable; construct with NewProcessor.
type Processor struct {
	maxDim int
	enc    Encoder
}

// NewProcessor returns a Processor with the given dimension cap and
// encoder. maxDim <= 0 selects DefaultMaxDimension; a nil encoder selects
// JPEG at the default quality.
func NewProcessor(maxDim int, enc Encoder) *Processor {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if enc == nil {
		enc = &JPEGEncoder{}
	}
	return &Processor{maxDim: maxDim, enc: enc}
}

// MaxDimension returns the configured cap.
func (p *Processor) MaxDimension() int { return p.maxDim }

// DecodePlain decodes a plain (non-TIFF) image upload: JPEG, PNG, WebP or
// BMP, by registered magic sniffing.
func (p *Processor) DecodePlain(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// EncodeImage downsamples img to the configured cap (preserving aspect
// ratio) and encodes it. Catmull-Rom resampling averages over source
// pixels; point sampling would alias the high-frequency detail maps are
// full of.
func (p *Processor) EncodeImage(img image.Image) (Artifact, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Artifact{}, fmt.Errorf("%w: empty image %dx%d", ErrDecode, w, h)
	}

	nw, nh := fitWithin(w, h, p.maxDim)
	if nw != w || nh != h {
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}

	data, err := p.enc.Encode(img)
	if err != nil {
		return Artifact{}, fmt.Errorf("encoding texture: %w", err)
	}

	return Artifact{
		Width:  nw,
		Height: nh,
		Data:   data,
		MIME:   p.enc.MIME(),
	}, nil
}

// fitWithin shrinks (w, h) proportionally so neither side exceeds maxDim.
// Dimensions already inside the cap are returned unchanged.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}

	var nw, nh int
	if w >= h {
		nw = maxDim
		nh = int(float64(h)*float64(maxDim)/float64(w) + 0.5)
	} else {
		nh = maxDim
		nw = int(float64(w)*float64(maxDim)/float64(h) + 0.5)
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
