package texture

import (
	"bytes"
	"image"
	"image/png"
)

// PNGEncoder encodes textures as PNG. Lossless, so only used where payload
// size is not a concern (debug tooling); the server default is JPEG.
type PNGEncoder struct{}

func (e *PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	err := enc.Encode(&buf, img)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *PNGEncoder) Format() string        { return "png" }
func (e *PNGEncoder) MIME() string          { return "image/png" }
func (e *PNGEncoder) FileExtension() string { return ".png" }
