package kernel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMode      = errors.New("unknown kernel mode")
	ErrUnknownStrategy  = errors.New("unknown colouring strategy")
	ErrUnknownAuxPolicy = errors.New("unknown aux policy")
)

// Mode selects which kernel a pass runs.
type Mode int32

const (
	ModeIterate Mode = iota
	ModeColorize
)

var modeNames = []string{"iterate", "colorize"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

func ParseMode(s string) (Mode, error) {
	i, err := parseName(s, modeNames)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
	return Mode(i), nil
}

// Strategy is the colouring used by the colour kernel.
type Strategy int32

const (
	// StrategyCount colours escaped points by iteration count, interior black.
	StrategyCount Strategy = iota
	// StrategyAngle colours interior points by their final iterate, escaped white.
	StrategyAngle
)

var strategyNames = []string{"count", "angle"}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("Strategy(%d)", int32(s))
	}
	return strategyNames[s]
}

func ParseStrategy(s string) (Strategy, error) {
	i, err := parseName(s, strategyNames)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrUnknownStrategy, s)
	}
	return Strategy(i), nil
}

// AuxPolicy decides what escaped cells do with their count channel.
type AuxPolicy int32

const (
	// AuxPreserve keeps the count reached when the cell escaped.
	AuxPreserve AuxPolicy = iota
	// AuxReset zeroes the count on every pass after escape. Older renders
	// were produced this way.
	AuxReset
)

var auxNames = []string{"preserve", "reset"}

func (p AuxPolicy) String() string {
	if p < 0 || int(p) >= len(auxNames) {
		return fmt.Sprintf("AuxPolicy(%d)", int32(p))
	}
	return auxNames[p]
}

func ParseAuxPolicy(s string) (AuxPolicy, error) {
	i, err := parseName(s, auxNames)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrUnknownAuxPolicy, s)
	}
	return AuxPolicy(i), nil
}

func parseName(s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if s == name {
			return i, nil
		}
	}
	return 0, errors.New("no match")
}
