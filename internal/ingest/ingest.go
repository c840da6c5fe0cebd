// Package ingest routes uploaded rasters through classification,
// georeferencing and texture encoding. Georeferencing is best effort: a
// raster whose bounds cannot be recovered still yields a usable texture,
// with the bounds slot left empty for the caller to fill by other means.
package ingest

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/geotiff"
	"github.com/contourhq/contour/internal/texture"
)

// Asset is one uploaded raster.
type Asset struct {
	ID   string
	Ext  string
	Data []byte
}

// NewAssetID returns a short random identifier for an upload.
func NewAssetID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Result is the outcome of a successful ingestion. Bounds is nil when the
// raster carried no usable georeferencing; BoundsErr then records why.
type Result struct {
	Format    Format
	Bounds    *coord.Bounds
	BoundsErr error
	Texture   texture.Artifact
}

// Pipeline ingests rasters with bounded CPU parallelism. Decoding and
// re-encoding large rasters is the expensive part, so only that section
// holds a semaphore slot; header parsing runs unthrottled. The pipeline
// does not log; callers report outcomes from Result and the error.
type Pipeline struct {
	proc *texture.Processor
	sem  *semaphore.Weighted
}

// NewPipeline builds a Pipeline around the given texture processor.
// parallelism caps concurrent decode/encode work; values below 1 default
// to GOMAXPROCS.
func NewPipeline(proc *texture.Processor, parallelism int) *Pipeline {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		proc: proc,
		sem:  semaphore.NewWeighted(int64(parallelism)),
	}
}

// Ingest processes one upload. It returns a typed *Error for failures that
// abort ingestion (unrecognized format, corrupt container, undecodable
// pixels). Bounds-only problems do not abort: the Result carries a texture
// with Bounds nil and BoundsErr set.
func (p *Pipeline) Ingest(ctx context.Context, asset Asset) (*Result, error) {
	format, err := DetectFormat(asset.Data, asset.Ext)
	if err != nil {
		return nil, failf(FailUnsupportedFormat, err)
	}

	res := &Result{Format: format}
	var src image.Image

	switch format {
	case FormatGeoTagged:
		raster, err := geotiff.Parse(asset.Data)
		if err != nil {
			return nil, failf(FailMalformedHeader, err)
		}
		res.Bounds, res.BoundsErr = resolveBounds(raster)
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire decode slot: %w", err)
		}
		defer p.sem.Release(1)
		src, err = raster.DecodeRGBA()
		if err != nil {
			return nil, failf(Classify(err), err)
		}
	case FormatPlainImage:
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire decode slot: %w", err)
		}
		defer p.sem.Release(1)
		src, err = p.proc.DecodePlain(asset.Data)
		if err != nil {
			return nil, failf(FailDecode, err)
		}
	default:
		return nil, failf(FailUnsupportedFormat, ErrUnsupportedFormat)
	}

	art, err := p.proc.EncodeImage(src)
	if err != nil {
		return nil, failf(FailDecode, err)
	}
	res.Texture = art
	return res, nil
}

// resolveBounds extracts and reprojects the raster's footprint. All
// failures here are recoverable from the pipeline's point of view.
func resolveBounds(r *geotiff.Raster) (*coord.Bounds, error) {
	ref, err := r.GeoReference()
	if err != nil {
		return nil, err
	}
	b, err := coord.Resolve(ref, r.Width(), r.Height())
	if err != nil {
		return nil, err
	}
	return &b, nil
}
