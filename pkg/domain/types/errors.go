package types

import "github.com/m-mizutani/goerr/v2"

// ErrInvalidEnum is returned when a value is outside of its enumeration
var ErrInvalidEnum = goerr.New("invalid enum value")

// Context keys for error values
const (
	EnumKindKey  = "enum_kind"
	EnumValueKey = "enum_value"
)

func parseEnum[T ~string](kind, s string, isValid func(T) bool) (T, error) {
	v := T(s)
	if !isValid(v) {
		var zero T
		return zero, goerr.Wrap(ErrInvalidEnum, "invalid "+kind,
			goerr.V(EnumKindKey, kind),
			goerr.V(EnumValueKey, s))
	}
	return v, nil
}
