package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceSamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(12.9716, 77.5946, 12.9716, 77.5946))
	assert.Equal(t, 0.0, Distance(-33.86, 151.2, -33.86, 151.2))
}

func TestDistanceIsSymmetric(t *testing.T) {
	cases := [][4]float64{
		{12.9716, 77.5946, 12.9352, 77.6245},
		{51.5074, -0.1278, 48.8566, 2.3522},
		{-33.8688, 151.2093, 35.6762, 139.6503},
	}
	for _, c := range cases {
		ab := Distance(c[0], c[1], c[2], c[3])
		ba := Distance(c[2], c[3], c[0], c[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceKnownValues(t *testing.T) {
	// London to Paris is roughly 343.5 km.
	assert.InDelta(t, 343.5, Distance(51.5074, -0.1278, 48.8566, 2.3522), 1.0)

	// One degree of latitude along a meridian.
	assert.InDelta(t, 111.19, Distance(0, 0, 1, 0), 0.01)
}

func TestPointDistanceToAndKey(t *testing.T) {
	store := Point{Lat: 12.9716, Lon: 77.5946}
	ngo := Point{Lat: 12.9352, Lon: 77.6245}

	assert.InDelta(t, Distance(store.Lat, store.Lon, ngo.Lat, ngo.Lon), store.DistanceTo(ngo), 1e-12)
	assert.Equal(t, "12.9716:77.5946", store.Key())
}
