package census

import "fmt"

// Environment selects which platform's push stream to connect to.
type Environment string

const (
	PC    Environment = "ps2"
	PS4US Environment = "ps2ps4us"
	PS4EU Environment = "ps2ps4eu"
)

// Environments lists every environment the service accepts.
func Environments() []Environment {
	return []Environment{PC, PS4US, PS4EU}
}

// Valid reports whether e is one of the fixed environment identifiers.
func (e Environment) Valid() bool {
	switch e {
	case PC, PS4US, PS4EU:
		return true
	}
	return false
}

// ParseEnvironment accepts either the wire identifier ("ps2ps4eu") or the
// short platform alias ("pc", "ps4us", "ps4eu").
func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "pc", string(PC):
		return PC, nil
	case "ps4us", string(PS4US):
		return PS4US, nil
	case "ps4eu", string(PS4EU):
		return PS4EU, nil
	}
	return "", fmt.Errorf("unknown environment %q", s)
}
