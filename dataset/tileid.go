package dataset

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"

	"github.com/paulmach/orb"
)

// ID names the 1x1 degree tile whose south-west corner is at an integer
// latitude/longitude, e.g. "n10e010" or "s01w179".
type ID string

var idPattern = regexp.MustCompile(`^([ns])(\d\d)([ew])(\d\d\d)$`)

// NormalizeLon maps an integer longitude into [-180, 180).
func NormalizeLon(lon int) int {
	lon = (lon + 180) % 360
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// CellID returns the id of the cell with south-west corner (lon, lat).
// The longitude is normalised first.
func CellID(lon, lat int) ID {
	lon = NormalizeLon(lon)
	ns, ew := 'n', 'e'
	if lat < 0 {
		ns, lat = 's', -lat
	}
	if lon < 0 {
		ew, lon = 'w', -lon
	}
	return ID(fmt.Sprintf("%c%02d%c%03d", ns, lat, ew, lon))
}

// ParseID returns the south-west corner of the cell named by id.
func ParseID(id ID) (lon, lat int, err error) {
	m := idPattern.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid tile id %q", id)
	}
	lat, _ = strconv.Atoi(m[2])
	lon, _ = strconv.Atoi(m[4])
	if m[1] == "s" {
		lat = -lat
	}
	if m[3] == "w" {
		lon = -lon
	}
	return lon, lat, nil
}

// Cell is one whole degree cell covered by a query.
type Cell struct {
	ID ID

	// Lon and Lat are the unnormalised south-west corner.
	Lon, Lat int

	// LonShift is the multiple of 360 that maps query longitudes in this
	// cell onto the normalised tile.
	LonShift float64
}

// MaxAbsLon bounds the longitudes that are looked up. Points further out
// have no data.
const MaxAbsLon = 1e9

// maxRectLon is the widest longitude range, in cells, that is enumerated
// as a rectangle. Wider queries only get the cells their points touch.
const maxRectLon = 360

// Bounds returns the bounding box of the query points with finite
// coordinates and |lon| <= MaxAbsLon, and false if there are none.
func Bounds(lon, lat []float64) (orb.Bound, bool) {
	mp := make(orb.MultiPoint, 0, len(lon))
	for k := range lon {
		if usable(lon[k], lat[k]) {
			mp = append(mp, orb.Point{lon[k], lat[k]})
		}
	}
	if len(mp) == 0 {
		return orb.Bound{}, false
	}
	return mp.Bound(), true
}

// Cells returns the cells covering the query points, longitude major.
// Narrow queries get every cell of their bounding box. Latitudes are
// clamped to the cells between the poles.
func Cells(lon, lat []float64) []Cell {
	b, ok := Bounds(lon, lat)
	if !ok {
		return nil
	}
	lon0, lon1 := int(math.Floor(b.Min.Lon())), int(math.Floor(b.Max.Lon()))
	lat0, lat1 := cellLat(b.Min.Lat()), cellLat(b.Max.Lat())
	if lon1-lon0 >= maxRectLon {
		return touchedCells(lon, lat)
	}
	cells := make([]Cell, 0, (lon1-lon0+1)*(lat1-lat0+1))
	for j := lon0; j <= lon1; j++ {
		for k := lat0; k <= lat1; k++ {
			cells = append(cells, newCell(j, k))
		}
	}
	return cells
}

// touchedCells returns the distinct cells holding at least one point.
func touchedCells(lon, lat []float64) []Cell {
	seen := make(map[[2]int]bool)
	var cells []Cell
	for k := range lon {
		if !usable(lon[k], lat[k]) {
			continue
		}
		key := [2]int{int(math.Floor(lon[k])), cellLat(lat[k])}
		if seen[key] {
			continue
		}
		seen[key] = true
		cells = append(cells, newCell(key[0], key[1]))
	}
	slices.SortFunc(cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Lon, b.Lon); c != 0 {
			return c
		}
		return cmp.Compare(a.Lat, b.Lat)
	})
	return cells
}

func newCell(lon, lat int) Cell {
	return Cell{
		ID:       CellID(lon, lat),
		Lon:      lon,
		Lat:      lat,
		LonShift: float64(NormalizeLon(lon) - lon),
	}
}

// cellLat returns the southern edge of the cell holding lat, clamped to
// [-90, 89].
func cellLat(lat float64) int {
	return int(math.Max(-90, math.Min(89, math.Floor(lat))))
}

func usable(lon, lat float64) bool {
	return isFinite(lon) && isFinite(lat) && math.Abs(lon) <= MaxAbsLon
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
