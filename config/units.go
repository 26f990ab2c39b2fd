// Package config implements the nested configuration schema (§4.7):
// logger, connection (with SSL/TLS), replication, and storage records,
// JSON-bound field-for-field, plus the size- and time-unit suffix syntax
// and storage URI validation.
package config

import (
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
)

// SizeUnit is a byte count parsed from a decimal integer with an optional
// single-letter suffix from {_,K,M,G,T,P} meaning shifts of
// {0,10,20,30,40,50} bits (§4.7).
type SizeUnit uint64

var sizeUnitShift = map[byte]uint{
	'_': 0,
	'K': 10,
	'M': 20,
	'G': 30,
	'T': 40,
	'P': 50,
}

// ParseSizeUnit parses s per the size-unit syntax, failing on overflow.
func ParseSizeUnit(s string) (SizeUnit, error) {
	if s == "" {
		return 0, errors.New("config: empty size-unit value")
	}
	digits := s
	shift := uint(0)
	last := s[len(s)-1]
	if shift2, ok := sizeUnitShift[last]; ok {
		shift = shift2
		digits = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "config: invalid size-unit value %q", s)
	}
	if shift > 0 && n > (^uint64(0))>>shift {
		return 0, errors.Errorf("config: size-unit value %q overflows u64", s)
	}
	return SizeUnit(n << shift), nil
}

func (u *SizeUnit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return errors.Annotate(err, "config: size-unit must be a string or integer")
		}
		*u = SizeUnit(n)
		return nil
	}
	parsed, err := ParseSizeUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

var timeUnitSeconds = map[byte]uint64{
	's': 1,
	'm': 60,
	'h': 3600,
	'd': 86400,
	'w': 604800,
}

// TimeUnit is a second count parsed per §4.7's {s,m,h,d,w} suffix syntax.
type TimeUnit uint64

// ParseTimeUnit parses s per the time-unit syntax.
func ParseTimeUnit(s string) (TimeUnit, error) {
	if s == "" {
		return 0, errors.New("config: empty time-unit value")
	}
	digits := s
	multiplier := uint64(1)
	last := s[len(s)-1]
	if m, ok := timeUnitSeconds[last]; ok {
		multiplier = m
		digits = s[:len(s)-1]
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "config: invalid time-unit value %q", s)
	}
	if multiplier > 1 && n > (^uint64(0))/multiplier {
		return 0, errors.Errorf("config: time-unit value %q overflows u64", s)
	}
	return TimeUnit(n * multiplier), nil
}

func (u *TimeUnit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n uint64
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return errors.Annotate(err, "config: time-unit must be a string or integer")
		}
		*u = TimeUnit(n)
		return nil
	}
	parsed, err := ParseTimeUnit(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
