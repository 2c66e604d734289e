package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies a record category. Each kind owns one storage directory
// and one identity field.
type Kind struct {
	Name          string
	Dir           string
	IdentityField string
}

var (
	Measurement = Kind{Name: "measurement", Dir: "measurements", IdentityField: "serialNumber"}
	Bill        = Kind{Name: "bill", Dir: "bills", IdentityField: "billNumber"}
)

const keySuffix = ".json"

var firstDigits = regexp.MustCompile(`\d+`)

func (k Kind) String() string {
	return k.Name
}

// KindByName resolves a kind from its name.
func KindByName(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Measurement.Name:
		return Measurement, true
	case Bill.Name:
		return Bill, true
	default:
		return Kind{}, false
	}
}

// StorageKey derives the storage key for an identity, e.g. measurement_12.json.
func StorageKey(kind Kind, identity string) string {
	return kind.Name + "_" + identity + keySuffix
}

// IdentityFromKey is the inverse of StorageKey.
func IdentityFromKey(kind Kind, key string) (string, error) {
	if err := ValidateKey(kind, key); err != nil {
		return "", err
	}
	identity := strings.TrimSuffix(strings.TrimPrefix(key, kind.Name+"_"), keySuffix)
	if identity == "" {
		return "", ErrInvalidKey
	}
	return identity, nil
}

// ValidateKey rejects keys that could escape the kind directory or that do
// not follow the <kind>_<identity>.json layout.
func ValidateKey(kind Kind, key string) error {
	if key == "" || key != strings.TrimSpace(key) {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	if !strings.HasPrefix(key, kind.Name+"_") || !strings.HasSuffix(key, keySuffix) {
		return ErrInvalidKey
	}
	return nil
}

// ValidateIdentity checks that identity yields a storage key of kind that
// ValidateKey accepts, so every stored record stays addressable.
func ValidateIdentity(kind Kind, identity string) error {
	if identity == "" || identity != strings.TrimSpace(identity) {
		return ErrInvalidIdentity
	}
	if ValidateKey(kind, StorageKey(kind, identity)) != nil {
		return ErrInvalidIdentity
	}
	return nil
}

// SerialFromKey extracts the first run of digits in a key. Keys without
// digits, or with a run that does not fit in uint64, yield 0.
func SerialFromKey(key string) uint64 {
	match := firstDigits.FindString(key)
	if match == "" {
		return 0
	}
	serial, err := strconv.ParseUint(match, 10, 64)
	if err != nil {
		return 0
	}
	return serial
}
