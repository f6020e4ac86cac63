// Package geo holds the pure geometry used by the meeting-point engine.
// All functions are synchronous and allocation-light; none of them fail.
// Distances are in kilometres unless a name says otherwise.
package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/meety/meety/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the great-circle distance between a and b in kilometres
// using the haversine formula.
func Distance(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Clamp rounding overshoot so Sqrt(1-h) never sees a negative.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ArithmeticMean averages latitudes and longitudes independently.
// Returns nil for empty input and the input itself for a singleton.
func ArithmeticMean(coords []domain.Coordinate) *domain.Coordinate {
	switch len(coords) {
	case 0:
		return nil
	case 1:
		c := coords[0]
		return &c
	}

	var lat, lng float64
	for _, c := range coords {
		lat += c.Lat
		lng += c.Lng
	}
	n := float64(len(coords))
	return &domain.Coordinate{Lat: lat / n, Lng: lng / n}
}

// SphericalCentroid averages the points as unit vectors on the sphere and
// projects the mean back to lat/lng.
//
// When the vectors cancel out exactly (antipodal input) the result is an
// arbitrary point; callers accept that.
func SphericalCentroid(coords []domain.Coordinate) *domain.Coordinate {
	switch len(coords) {
	case 0:
		return nil
	case 1:
		c := coords[0]
		return &c
	}

	var x, y, z float64
	for _, c := range coords {
		lat, lng := toRad(c.Lat), toRad(c.Lng)
		x += math.Cos(lat) * math.Cos(lng)
		y += math.Cos(lat) * math.Sin(lng)
		z += math.Sin(lat)
	}
	n := float64(len(coords))
	x, y, z = x/n, y/n, z/n

	return &domain.Coordinate{
		Lat: toDeg(math.Atan2(z, math.Hypot(x, y))),
		Lng: toDeg(math.Atan2(y, x)),
	}
}

// CoordinatewiseMedian takes the median of the latitudes and the median of
// the longitudes separately. For an even count the two central values are
// averaged, so two points reduce to their midpoint.
//
// This is not the geometric median; it trades accuracy for robustness
// against a single far-away participant.
func CoordinatewiseMedian(coords []domain.Coordinate) *domain.Coordinate {
	if len(coords) == 0 {
		return nil
	}

	lats := make([]float64, len(coords))
	lngs := make([]float64, len(coords))
	for i, c := range coords {
		lats[i] = c.Lat
		lngs[i] = c.Lng
	}
	return &domain.Coordinate{Lat: median(lats), Lng: median(lngs)}
}

// median sorts vs in place.
func median(vs []float64) float64 {
	sort.Float64s(vs)
	mid := len(vs) / 2
	if len(vs)%2 == 1 {
		return vs[mid]
	}
	return (vs[mid-1] + vs[mid]) / 2
}

// Offset returns the point reached by travelling meters from c along
// bearingDeg (0 = north, clockwise). The address label is not carried over.
func Offset(c domain.Coordinate, bearingDeg, meters float64) domain.Coordinate {
	p := orbgeo.PointAtBearingAndDistance(orb.Point{c.Lng, c.Lat}, bearingDeg, meters)
	return domain.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}
