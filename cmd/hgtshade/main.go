// Command hgtshade is a minimal demonstration front end for the hillshading
// engine: it builds a RenderConfig over a DEM folder, issues one Request,
// and writes the resulting byte grid out as a greyscale PNG.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"log"
	"os"
	"strconv"

	"hillshade"
	"hillshade/internal/config"
	"hillshade/internal/dem"
	"hillshade/internal/kernel"
	"hillshade/pkg/geotiff"
)

func main() {
	demDir := flag.String("dem", "", "directory of .hgt/.zip DEM tiles")
	tileArg := flag.String("tile", "N46E008", "tile id, e.g. N46E008 or S12W077")
	zoom := flag.Int("zoom", 12, "zoom level")
	pxLat := flag.Float64("px-lat", 256, "pixels per degree of latitude")
	pxLon := flag.Float64("px-lon", 256, "pixels per degree of longitude")
	out := flag.String("out", "shade.png", "output PNG path")
	format := flag.String("format", "png", "output format: png or tif (georeferenced GeoTIFF)")
	configPath := flag.String("config", "", "optional JSON config file")
	flag.Parse()

	if *demDir == "" {
		log.Fatal("hgtshade: -dem is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("hgtshade: config load warning: %v", err)
	}

	tile, err := parseTileArg(*tileArg)
	if err != nil {
		log.Fatalf("hgtshade: %v", err)
	}

	folder := dem.NewFileSystemFolder(*demDir)
	krn := kernel.NewAdaptive(cfg.HQEnabled)
	rc := hillshade.NewRenderConfig(folder, krn, cfg)

	bmp, err := rc.Request(context.Background(), tile, *zoom, *pxLat, *pxLon)
	if err != nil {
		log.Fatalf("hgtshade: request failed: %v", err)
	}

	var writeErr error
	switch *format {
	case "tif":
		writeErr = writeGeoTIFF(*out, tile, bmp.Width, bmp.Height, bmp.Bytes)
	default:
		writeErr = writePNG(*out, bmp.Width, bmp.Height, bmp.Bytes)
	}
	if writeErr != nil {
		log.Fatalf("hgtshade: writing %s: %v", *out, writeErr)
	}
	log.Printf("hgtshade: wrote %dx%d to %s", bmp.Width, bmp.Height, *out)
}

// parseTileArg parses a tile identifier of the form [NS]<deg>[EW]<deg>,
// matching the on-disk naming convention the DEM index parses.
func parseTileArg(s string) (dem.TileKey, error) {
	if key, ok := dem.ParseTileKey(s + ".hgt"); ok {
		return key, nil
	}
	return dem.TileKey{}, &tileParseError{s}
}

type tileParseError struct{ s string }

func (e *tileParseError) Error() string {
	return "invalid tile id " + strconv.Quote(e.s) + `, expected e.g. "N46E008"`
}

func writePNG(path string, width, height int, bytes []byte) error {
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, bytes)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// writeGeoTIFF writes the shade bitmap as a GeoTIFF anchored to the tile's
// [north-1, east] x [north, east+1] bounding box, so the output can be
// loaded directly into a GIS tool at its real-world location.
func writeGeoTIFF(path string, tile dem.TileKey, width, height int, bytes []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return geotiff.Encode(f, width, height, bytes, geotiff.GeographicTags(tile.North, tile.East, width))
}
