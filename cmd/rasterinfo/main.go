package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/contourhq/contour/internal/coord"
	"github.com/contourhq/contour/internal/geotiff"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: rasterinfo <file.tif>\n")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	r, err := geotiff.Parse(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File: %s\n", os.Args[1])
	fmt.Printf("Size: %d x %d\n", r.Width(), r.Height())

	ref, err := r.GeoReference()
	if errors.Is(err, geotiff.ErrMissingGeoTags) {
		fmt.Println("Georeferencing: none")
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Printf("EPSG: %d\n", ref.EPSG)
		fmt.Printf("Pixel scale: X=%f, Y=%f\n", ref.ScaleX, ref.ScaleY)
		fmt.Printf("Tiepoint: pixel (%f, %f) -> model (%f, %f)\n",
			ref.TiePixelX, ref.TiePixelY, ref.TieModelX, ref.TieModelY)

		bounds, err := coord.Resolve(ref, r.Width(), r.Height())
		if err != nil {
			fmt.Printf("Bounds: unresolvable: %v\n", err)
		} else {
			fmt.Printf("Bounds (WGS84): %s\n", bounds)
			if bounds.SpansAntimeridian() {
				fmt.Println("  (crosses the antimeridian)")
			}
		}
	}

	img, err := r.DecodeRGBA()
	if err != nil {
		fmt.Printf("Decode: ERROR: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("Decode: OK, %dx%d RGBA\n", b.Dx(), b.Dy())

	// Sample a few pixels on the diagonal to verify content.
	step := b.Dx() / 6
	if step < 1 {
		step = 1
	}
	fmt.Println("Sample pixels (diagonal):")
	for i := 1; i <= 5; i++ {
		x, y := b.Min.X+i*step, b.Min.Y+i*step
		if x >= b.Max.X || y >= b.Max.Y {
			break
		}
		rr, g, bb, a := img.At(x, y).RGBA()
		fmt.Printf("  (%d,%d): R=%d G=%d B=%d A=%d\n", x, y, rr>>8, g>>8, bb>>8, a>>8)
	}
}
