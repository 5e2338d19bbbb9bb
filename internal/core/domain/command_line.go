// Package domain provides domain value objects and entities.
package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// CommandLine is a value object for the shell command a guard invocation runs.
// It enforces the non-empty invariant at construction; the text itself is
// opaque and handed to the host shell verbatim (the caller is trusted).
type CommandLine struct {
	value string
}

// NewCommandLine creates a CommandLine, applying validation.
// Returns an error if the command is empty or whitespace-only.
func NewCommandLine(command string) (CommandLine, error) {
	if err := defaultValidator.ValidateVar(command, "command"); err != nil {
		return CommandLine{}, fmt.Errorf("command cannot be empty or whitespace-only")
	}

	return CommandLine{value: strings.TrimSpace(command)}, nil
}

// NewCommandLineUnsafe creates a CommandLine without validation.
// This should only be used for testing or when validation has already been performed.
func NewCommandLineUnsafe(command string) CommandLine {
	return CommandLine{value: strings.TrimSpace(command)}
}

// String returns the command text as given to the host shell.
func (c CommandLine) String() string {
	return c.value
}

// IsEmpty returns true if the command is empty.
func (c CommandLine) IsEmpty() bool {
	return c.value == ""
}

// Equals compares two CommandLines for equality.
func (c CommandLine) Equals(other CommandLine) bool {
	return c.value == other.value
}

// CommandLineDecodeHook provides a mapstructure decode hook for CommandLine.
// This allows automatic conversion from string to CommandLine during
// configuration unmarshalling.
func CommandLineDecodeHook() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(CommandLine{}) {
			return data, nil
		}

		str, ok := data.(string)
		if !ok {
			return data, nil
		}

		return NewCommandLine(str)
	}
}
