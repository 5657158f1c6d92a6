package main

import (
	"fmt"
	"strconv"
	"strings"
)

// varFlag accumulates repeated -var name=value flags into a map, in the
// same "flag.Value that appends" idiom used throughout the subcommands
// package's own examples.
type varFlag map[string]int64

func (v *varFlag) String() string {
	if v == nil || *v == nil {
		return ""
	}
	parts := make([]string, 0, len(*v))
	for name, val := range *v {
		parts = append(parts, fmt.Sprintf("%s=%d", name, val))
	}
	return strings.Join(parts, ",")
}

func (v *varFlag) Set(s string) error {
	name, valStr, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %q: %w", name, err)
	}
	if *v == nil {
		*v = make(varFlag)
	}
	(*v)[name] = val
	return nil
}
