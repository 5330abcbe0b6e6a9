package domain

import "strings"

// SignificantPopulation is the population above which any place counts as significant.
const SignificantPopulation = 500_000

// IsSignificant reports whether a place is recognizable enough to be a spin result:
// a capital, a named populated place, or a large city.
func IsSignificant(p Place) bool {
	class := strings.ToLower(p.FeatureClass)
	return strings.Contains(class, "capital") ||
		strings.Contains(class, "populated place") ||
		p.Population > SignificantPopulation
}

// PickPlace draws a uniform random place, preferring significant ones.
// If no place is significant the whole pool is used.
func PickPlace(places []Place, rng RNG) (Place, error) {
	pool := make([]Place, 0, len(places))
	for _, p := range places {
		if IsSignificant(p) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = places
	}
	if len(pool) == 0 {
		return Place{}, ErrNoPlaces
	}
	return pool[rng.Intn(len(pool))], nil
}

// PickCountry draws a uniform random country name, or UnknownDestination for an empty list.
func PickCountry(countries []string, rng RNG) string {
	if len(countries) == 0 {
		return UnknownDestination
	}
	if c := countries[rng.Intn(len(countries))]; c != "" {
		return c
	}
	return UnknownDestination
}

// PlaceholderLocation is returned when destination selection fails.
func PlaceholderLocation() SelectedLocation {
	return SelectedLocation{Name: UnknownDestination, Country: UnknownDestination}
}

// CountryLocation wraps a bare country name as a location.
func CountryLocation(country string) SelectedLocation {
	country = strings.TrimSpace(country)
	if country == "" {
		return PlaceholderLocation()
	}
	return SelectedLocation{Name: country, Country: country}
}
