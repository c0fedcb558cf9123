package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseIDArg parses a single numeric game ID argument.
func ParseIDArg(args string) (int64, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, errors.New("Provide a game ID, for example: /info 3")
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid game ID", args)
	}
	return id, nil
}

// ParseRenameArgs parses "<id> <name>" style arguments.
func ParseRenameArgs(args string) (int64, string, error) {
	rawID, name, ok := strings.Cut(strings.TrimSpace(args), " ")
	if !ok || strings.TrimSpace(name) == "" {
		return 0, "", errors.New("Usage: /rename <id> <new title>")
	}
	id, err := ParseIDArg(rawID)
	if err != nil {
		return 0, "", err
	}
	return id, strings.TrimSpace(name), nil
}

// ParseThresholdArgs parses "<id> <value>" where value is in [0, 1].
func ParseThresholdArgs(args string) (int64, float64, error) {
	rawID, rawValue, ok := strings.Cut(strings.TrimSpace(args), " ")
	if !ok {
		return 0, 0, errors.New("Usage: /threshold <id> <0..1>")
	}
	id, err := ParseIDArg(rawID)
	if err != nil {
		return 0, 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil || value < 0 || value > 1 {
		return 0, 0, fmt.Errorf("%q is not a valid threshold, expected 0..1", rawValue)
	}
	return id, value, nil
}

// ParseGroupArgs parses "<id> <group>"; "-" clears the group.
func ParseGroupArgs(args string) (int64, string, error) {
	rawID, name, ok := strings.Cut(strings.TrimSpace(args), " ")
	if !ok {
		return 0, "", errors.New("Usage: /group <id> <name> (use \"-\" to clear)")
	}
	id, err := ParseIDArg(rawID)
	if err != nil {
		return 0, "", err
	}
	name = strings.TrimSpace(name)
	if name == "-" {
		name = ""
	}
	return id, name, nil
}
