package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/MrSnakeDoc/stakehub/internal/domain"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

// ErrOnCurve means the seeds hash to a valid ed25519 public key, which a
// program-derived address must not be.
var ErrOnCurve = errors.New("derived address is on the ed25519 curve")

// CreateProgramAddress derives the address of seeds (bump included) under
// program.
func CreateProgramAddress(seeds [][]byte, program domain.PublicKey) (domain.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return domain.PublicKey{}, fmt.Errorf("too many seeds: %d > %d", len(seeds), maxSeeds)
	}

	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > maxSeedLength {
			return domain.PublicKey{}, fmt.Errorf("seed %d too long: %d > %d bytes", i, len(seed), maxSeedLength)
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var out domain.PublicKey
	copy(out[:], h.Sum(nil))
	if isOnCurve(out[:]) {
		return domain.PublicKey{}, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress searches bumps from 255 down and returns the first
// off-curve address with its bump.
func FindProgramAddress(seeds [][]byte, program domain.PublicKey) (domain.PublicKey, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		if errors.Is(err, ErrOnCurve) {
			continue
		}
		if err != nil {
			return domain.PublicKey{}, 0, err
		}
		return addr, uint8(bump), nil
	}
	return domain.PublicKey{}, 0, errors.New("no viable bump seed")
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
