package components

import (
	"errors"
	"fmt"
)

var (
	// ErrComponentNotFound is returned when an invocation names a component
	// that is not present in the registry.
	ErrComponentNotFound = errors.New("component not registered")

	// ErrTemplateNotLoaded is returned when a component refers to a named
	// template that the engine has not loaded.
	ErrTemplateNotLoaded = errors.New("template not loaded")

	// ErrInjectKeyNotFound is returned by Input.Inject when no enclosing
	// @provide block bound the requested key and no default was supplied.
	ErrInjectKeyNotFound = errors.New("injected key not found")
)

// ConfigError reports template-author misuse: ambiguous fills, duplicate
// default slots, alias collisions, missing required slots, unknown slot
// names, recursion past the render depth limit. It is always fatal; a render
// that produced a ConfigError produced no output.
type ConfigError struct {
	Component string
	Slot      string
	Msg       string
}

func (e *ConfigError) Error() string {
	var prefix string
	if e.Component != "" {
		prefix = fmt.Sprintf("[component: %s] ", e.Component)
	}
	if e.Slot != "" {
		prefix += fmt.Sprintf("[slot: %s] ", e.Slot)
	}
	return prefix + e.Msg
}

func configErrf(component, slot, format string, args ...any) *ConfigError {
	return &ConfigError{
		Component: component,
		Slot:      slot,
		Msg:       fmt.Sprintf(format, args...),
	}
}
