// Package geo provides the coordinate and great-circle distance primitives
// used for radius filtering and distance ordering.
package geo

import (
	"fmt"
	"math"

	"github.com/commonweal/beacon/internal/apierr"
)

// EarthRadiusMiles is the mean radius of the Earth in miles.
const EarthRadiusMiles = 3958.8

// Coordinate is a point on the Earth's surface in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// NewCoordinate validates lat/lon and returns a Coordinate.
// Latitude must be within [-90, 90] and longitude within [-180, 180].
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate checks the coordinate is within valid bounds.
func (c Coordinate) Validate() error {
	var verr *apierr.ValidationError
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		verr = apierr.NewValidation("location.lat", fmt.Sprintf("latitude %v out of range [-90, 90]", c.Lat))
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		if verr == nil {
			verr = &apierr.ValidationError{}
		}
		verr.Add("location.lon", fmt.Sprintf("longitude %v out of range [-180, 180]", c.Lon))
	}
	if verr != nil {
		return verr
	}
	return nil
}

// DistanceMiles returns the great-circle (haversine) distance to other in miles.
func (c Coordinate) DistanceMiles(other Coordinate) float64 {
	lat1 := radians(c.Lat)
	lat2 := radians(other.Lat)
	dLat := radians(other.Lat - c.Lat)
	dLon := radians(other.Lon - c.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
