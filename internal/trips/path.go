package trips

import (
	"encoding/binary"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// Point is a single lat/lon coordinate as submitted by clients.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EncodePath converts a traveled path to WKB LineString bytes for storage.
// Coordinates are stored lon/lat, matching GeoJSON axis order.
func EncodePath(points []Point) ([]byte, error) {
	coords := make([]geom.Coord, len(points))
	for i, p := range points {
		coords[i] = geom.Coord{p.Longitude, p.Latitude}
	}
	ls, err := geom.NewLineString(geom.XY).SetCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("building line string: %w", err)
	}
	return wkb.Marshal(ls, binary.LittleEndian)
}

// DecodePath is the inverse of EncodePath. A nil or empty byte slice
// decodes to an empty path.
func DecodePath(data []byte) ([]Point, error) {
	if len(data) == 0 {
		return []Point{}, nil
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling path: %w", err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, fmt.Errorf("stored path is %T, expected LineString", g)
	}
	coords := ls.Coords()
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{Latitude: c[1], Longitude: c[0]}
	}
	return points, nil
}
