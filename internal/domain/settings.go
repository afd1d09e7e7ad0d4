package domain

import (
	"fmt"
	"sort"
	"time"
)

// LocationMethod selects how the console resolves the coordinates used for
// weather lookups.
type LocationMethod string

const (
	// LocationUnit derives coordinates from the unit registry.
	LocationUnit LocationMethod = "unit"
	// LocationManual uses operator-entered coordinates.
	LocationManual LocationMethod = "manual"
	// LocationCurrent defers to coordinates resolved by the client device
	// at fetch time; stored coordinates are not authoritative.
	LocationCurrent LocationMethod = "current"
)

// Valid reports whether m is one of the closed set of methods.
func (m LocationMethod) Valid() bool {
	switch m {
	case LocationUnit, LocationManual, LocationCurrent:
		return true
	}
	return false
}

// Timezone is the display timezone for the console clock and the today
// filter on the forecast feed.
type Timezone string

const (
	TimezoneKST Timezone = "KST"
	TimezoneUTC Timezone = "UTC"
)

var kst = time.FixedZone("KST", 9*60*60)

// Valid reports whether z is one of the closed set of timezones.
func (z Timezone) Valid() bool {
	return z == TimezoneKST || z == TimezoneUTC
}

// Location returns the time.Location for the timezone. KST is a fixed
// UTC+9 zone; Korea has no daylight saving.
func (z Timezone) Location() *time.Location {
	if z == TimezoneKST {
		return kst
	}
	return time.UTC
}

// Coordinates is a WGS-84 latitude/longitude pair. Nil fields mean the
// coordinate is unset, e.g. an unregistered unit or an unedited manual entry.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Complete reports whether both latitude and longitude are set.
func (c Coordinates) Complete() bool {
	return c.Lat != nil && c.Lon != nil
}

// LocationSetting pairs the resolution method with the held coordinates.
type LocationSetting struct {
	Method LocationMethod `json:"method"`
	Coords Coordinates    `json:"coords"`
}

// Settings is the operator-configurable console state.
type Settings struct {
	UnitName         string          `json:"unitName"`
	Location         LocationSetting `json:"location"`
	Timezone         Timezone        `json:"timezone"`
	DefaultThreshold float64         `json:"defaultThreshold"`
}

// unitRegistry maps unit names to their base coordinates. Units outside
// the registry (기타) have no coordinates and require manual entry.
var unitRegistry = map[string]Coordinates{
	"제15특수임무비행단": coords(37.434879, 127.105050),
	"제17전투비행단":   coords(36.722701, 127.499102),
	"제11전투비행단":   coords(35.899526, 128.639791),
}

func coords(lat, lon float64) Coordinates {
	return Coordinates{Lat: &lat, Lon: &lon}
}

// UnitCoordinates looks up a unit's base coordinates in the registry.
func UnitCoordinates(unitName string) (Coordinates, bool) {
	c, ok := unitRegistry[unitName]
	return c, ok
}

// RegisteredUnits returns the unit names present in the registry, sorted
// for stable listing.
func RegisteredUnits() []string {
	names := make([]string, 0, len(unitRegistry))
	for name := range unitRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultUnitName is the unit configured on first run.
const DefaultUnitName = "제15특수임무비행단"

// DefaultSettings returns the state used on first run or when the
// persisted settings slice is absent or corrupt.
func DefaultSettings() Settings {
	c, _ := UnitCoordinates(DefaultUnitName)
	return Settings{
		UnitName:         DefaultUnitName,
		Location:         LocationSetting{Method: LocationUnit, Coords: c},
		Timezone:         TimezoneKST,
		DefaultThreshold: 5.0,
	}
}

// Clone returns a deep copy. Coordinate pointers are duplicated so staged
// edits and readers never alias the authoritative value.
func (s Settings) Clone() Settings {
	out := s
	out.Location.Coords = s.Location.Coords.clone()
	return out
}

func (c Coordinates) clone() Coordinates {
	var out Coordinates
	if c.Lat != nil {
		lat := *c.Lat
		out.Lat = &lat
	}
	if c.Lon != nil {
		lon := *c.Lon
		out.Lon = &lon
	}
	return out
}

// SetLocationMethod transitions the location method. Switching to the unit
// method re-derives coordinates from the registry, discarding any manually
// entered pair; switching to manual or current keeps the held coordinates
// verbatim.
func (s *Settings) SetLocationMethod(m LocationMethod) {
	if m == LocationUnit {
		s.Location.Coords, _ = UnitCoordinates(s.UnitName)
	}
	s.Location.Method = m
}

// SetUnitName changes the unit. While the unit method is active the
// coordinates follow the registry, going unset for unregistered units.
func (s *Settings) SetUnitName(name string) {
	s.UnitName = name
	if s.Location.Method == LocationUnit {
		s.Location.Coords, _ = UnitCoordinates(name)
	}
}

// Validate checks a staged settings copy before commit.
func (s Settings) Validate() error {
	if s.UnitName == "" {
		return fmt.Errorf("unit name is required")
	}
	if !s.Location.Method.Valid() {
		return fmt.Errorf("invalid location method %q", s.Location.Method)
	}
	if !s.Timezone.Valid() {
		return fmt.Errorf("invalid timezone %q", s.Timezone)
	}
	if s.DefaultThreshold < 0 {
		return fmt.Errorf("threshold must not be negative")
	}
	return nil
}

// Normalize enforces the unit-method invariant: while the method is unit,
// the coordinates must match the registry entry for the unit name.
func (s *Settings) Normalize() {
	if s.Location.Method == LocationUnit {
		s.Location.Coords, _ = UnitCoordinates(s.UnitName)
	}
}
