package bithodl

import (
	"fmt"
	"math"
	"strconv"
)

// MicroSTXPerSTX is the number of micro-STX units in one STX.
const MicroSTXPerSTX = 1_000_000

// MicroToSTX converts an amount in micro-STX to STX.
func MicroToSTX(micro int64) float64 {
	return float64(micro) / MicroSTXPerSTX
}

// STXToMicro converts an amount in STX to micro-STX, truncating any
// fraction below one micro-STX.
func STXToMicro(stx float64) int64 {
	return int64(math.Floor(stx * MicroSTXPerSTX))
}

// ParseBalance parses a micro-STX balance string as returned by the chain
// API (e.g. "1500000") into STX.
func ParseBalance(balance string) (float64, error) {
	if balance == "" {
		return 0, fmt.Errorf("balance cannot be empty")
	}
	micro, err := strconv.ParseInt(balance, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid balance %q: %w", balance, err)
	}
	if micro < 0 {
		return 0, fmt.Errorf("negative balance %q", balance)
	}
	return MicroToSTX(micro), nil
}
