package geotiff

// GeographicTags returns the extraTags map for Encode that anchors a
// side x side raster to the geographic (WGS84, EPSG:4326) bounding box
// [north-1, east] x [north, east+1] -- one DEM tile's footprint. Pixel
// (0,0) is the NW corner, matching the HGT row order (north-to-south,
// west-to-east).
func GeographicTags(north, east, side int) map[uint16]interface{} {
	pixelScale := 1.0 / float64(side)

	return map[uint16]interface{}{
		// ModelPixelScaleTag: (scaleX, scaleY, scaleZ) in degrees/pixel.
		TagType_ModelPixelScaleTag: []float64{pixelScale, pixelScale, 0},
		// ModelTiepointTag: (pixelX, pixelY, pixelZ, modelX, modelY, modelZ)
		// ties raster pixel (0,0) to the tile's NW corner in geographic
		// coordinates.
		TagType_ModelTiepointTag: []float64{0, 0, 0, float64(east), float64(north), 0},
		// GeoKeyDirectoryTag: minimal geographic CRS declaration (WGS84).
		// Header {KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys}
		// followed by one key record per GeoKey: (KeyID, TIFFTagLocation,
		// Count, Value_Offset). GTModelTypeGeoKey=1 (Geographic),
		// GeographicTypeGeoKey=4326 (WGS84).
		TagType_GeoKeyDirectoryTag: []uint16{
			1, 1, 0, 2,
			1024, 0, 1, 2, // GTModelTypeGeoKey = Geographic
			2048, 0, 1, 4326, // GeographicTypeGeoKey = WGS84
		},
	}
}
