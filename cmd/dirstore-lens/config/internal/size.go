package internal

import (
	"math/bits"
	"reflect"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Size is an unsigned integer value that represents a size in bytes.
type Size uint64

// OrDefault returns s if it is set and def otherwise.
func (s Size) OrDefault(def Size) Size {
	if s == 0 {
		return def
	}
	return s
}

// SizeHook returns a mapstructure decode hook func that converts
// strings like "64M" and plain numbers to a Size.
func SizeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeFor[Size]() {
			return data, nil
		}

		return Size(ParseSizeInBytes(cast.ToString(data))), nil
	}
}

// safeMul returns size*multiplier.
// Returns 0 if overflow is detected.
func safeMul(size uint64, multiplier uint64) uint64 {
	hi, lo := bits.Mul64(size, multiplier)
	if hi != 0 {
		return 0
	}
	return lo
}

// ParseSizeInBytes converts strings like 1GB or 12 mb into an unsigned
// integer number of bytes. Both `k` and `kb` forms are accepted. Returns 0
// for invalid input.
func ParseSizeInBytes(sizeStr string) uint64 {
	sizeStr = strings.TrimSpace(sizeStr)
	multiplier := uint64(1)

	last := len(sizeStr) - 1
	if last > 0 {
		if sizeStr[last] == 'b' || sizeStr[last] == 'B' {
			last--
		}

		var shift uint
		switch unicode.ToLower(rune(sizeStr[last])) {
		case 'k':
			shift = 10
		case 'm':
			shift = 20
		case 'g':
			shift = 30
		case 't':
			shift = 40
		}
		if shift != 0 {
			multiplier = 1 << shift
			sizeStr = strings.TrimSpace(sizeStr[:last])
		} else {
			sizeStr = strings.TrimSpace(sizeStr[:last+1])
		}
	}

	return safeMul(cast.ToUint64(sizeStr), multiplier)
}
