package assignment

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrInvalidKey = errors.New("invalid slot key")

	// "2025-2026 T1", legacy "2025-T1", url-safe "2025-2026-T1"
	keyRegex       = regexp.MustCompile(`^(\d{4})-(\d{4})[ -][Tt]([1-3])$`)
	legacyKeyRegex = regexp.MustCompile(`^(\d{4})-[Tt]([1-3])$`)
)

// SlotKey identifies one trimester of a school year.
type SlotKey struct {
	StartYear int
	Trimester int // 1..3
}

func ParseSlotKey(s string) (SlotKey, error) {
	if m := keyRegex.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		tri, _ := strconv.Atoi(m[3])
		if end != start+1 {
			return SlotKey{}, errors.Wrapf(ErrInvalidKey, "%q: school year must span two consecutive years", s)
		}
		return SlotKey{StartYear: start, Trimester: tri}, nil
	}
	if m := legacyKeyRegex.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		tri, _ := strconv.Atoi(m[2])
		return SlotKey{StartYear: start, Trimester: tri}, nil
	}
	return SlotKey{}, errors.Wrapf(ErrInvalidKey, "%q", s)
}

func (k SlotKey) IsZero() bool { return k == SlotKey{} }

func (k SlotKey) String() string {
	return fmt.Sprintf("%d-%d T%d", k.StartYear, k.StartYear+1, k.Trimester)
}

// URLString is the path-segment form of the key.
func (k SlotKey) URLString() string {
	return fmt.Sprintf("%d-%d-T%d", k.StartYear, k.StartYear+1, k.Trimester)
}

// Previous returns the immediately preceding trimester: T1 follows the prior year's T3.
func (k SlotKey) Previous() SlotKey {
	if k.Trimester <= 1 {
		return SlotKey{StartYear: k.StartYear - 1, Trimester: 3}
	}
	return SlotKey{StartYear: k.StartYear, Trimester: k.Trimester - 1}
}

func (k SlotKey) Before(other SlotKey) bool {
	if k.StartYear != other.StartYear {
		return k.StartYear < other.StartYear
	}
	return k.Trimester < other.Trimester
}

func (k SlotKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *SlotKey) UnmarshalText(text []byte) error {
	key, err := ParseSlotKey(string(text))
	if err != nil {
		return err
	}
	*k = key
	return nil
}
