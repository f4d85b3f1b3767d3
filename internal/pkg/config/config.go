// Package config exposes typed accessors over the service configuration.
//
// Durations are stored as integers in the unit named by the accessor, arrays as
// comma separated strings (or YAML lists) and binary values as base64.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer values and scales them to a duration.
type TimeConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or malformed keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string
	// GetBinary decodes a base64 value, nil when the value is not valid base64.
	GetBinary(key string) []byte
	// GetArray returns the non-empty trimmed elements of <e1>,<e2>,... or of a list value.
	GetArray(key string) []string
	// GetMap parses <k1>:<v1>,<k2>:<v2>,... pairs.
	GetMap(key string) map[string]string
}
