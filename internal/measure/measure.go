// Package measure is the authoritative unit conversion table for recipe and
// stock quantities. Units are grouped into families (mass, volume, count);
// a conversion factor expresses how many base units of the family equal one
// of the unit. Count units are tallies, never rescaled and never convertible
// to mass or volume.
package measure

import (
	"math"

	"github.com/pkg/errors"
)

type Family string

const (
	Mass   Family = "mass"
	Volume Family = "volume"
	Count  Family = "count"
)

var (
	ErrUnknownUnit       = errors.New("measure: unknown unit")
	ErrIncompatibleUnits = errors.New("measure: incompatible unit families")
)

// Precision is the fixed number of fractional digits every conversion result
// is rounded to, so repeated conversions stay stable.
const Precision = 4

type unitDef struct {
	Family Family
	Abbr   string
	// Factor is the amount of the family base unit in one of this unit.
	// Base units: grams (mass), milliliters (volume).
	Factor float64
}

var units = map[string]unitDef{
	// Mass (base: grams)
	"grams":     {Mass, "g", 1},
	"kilograms": {Mass, "kg", 1000},
	"pounds":    {Mass, "lbs", 453.59237},
	"ounces":    {Mass, "oz", 28.349523125},

	// Volume (base: milliliters)
	"milliliters": {Volume, "ml", 1},
	"liters":      {Volume, "l", 1000},
	"cups":        {Volume, "cup", 236.588237},
	"tablespoons": {Volume, "tbsp", 14.7867648},
	"teaspoons":   {Volume, "tsp", 4.92892159},

	// Count
	"pieces": {Count, "pcs", 1},
}

// Known reports whether unit is registered.
func Known(unit string) bool {
	_, ok := units[unit]
	return ok
}

// FamilyOf returns the family a unit belongs to.
func FamilyOf(unit string) (Family, error) {
	def, ok := units[unit]
	if !ok {
		return "", errors.Wrap(ErrUnknownUnit, unit)
	}
	return def.Family, nil
}

// Abbr returns the display abbreviation for a unit, or the unit itself when
// unregistered.
func Abbr(unit string) string {
	if def, ok := units[unit]; ok {
		return def.Abbr
	}
	return unit
}

// Units lists every registered unit name grouped by family.
func Units() map[Family][]string {
	out := make(map[Family][]string)
	for name, def := range units {
		out[def.Family] = append(out[def.Family], name)
	}
	return out
}

// Convert converts value from one unit to another within the same family.
// Same-unit and count-to-count conversions return the value unchanged; a
// count unit paired with a mass or volume unit is an error, never a silent
// pass-through. Results carry Precision fractional digits.
func Convert(value float64, fromUnit, toUnit string) (float64, error) {
	if fromUnit == toUnit {
		return value, nil
	}

	from, ok := units[fromUnit]
	if !ok {
		return 0, errors.Wrap(ErrUnknownUnit, fromUnit)
	}
	to, ok := units[toUnit]
	if !ok {
		return 0, errors.Wrap(ErrUnknownUnit, toUnit)
	}

	if from.Family == Count || to.Family == Count {
		if from.Family != to.Family {
			return 0, errors.Wrapf(ErrIncompatibleUnits,
				"cannot convert %s (%s) to %s (%s)", fromUnit, from.Family, toUnit, to.Family)
		}
		return value, nil
	}

	if from.Family != to.Family {
		return 0, errors.Wrapf(ErrIncompatibleUnits,
			"cannot convert %s (%s) to %s (%s)", fromUnit, from.Family, toUnit, to.Family)
	}

	return Round(value * from.Factor / to.Factor), nil
}

// Round applies the fixed conversion precision, half away from zero.
func Round(v float64) float64 {
	shift := math.Pow(10, Precision)
	return math.Round(v*shift) / shift
}
