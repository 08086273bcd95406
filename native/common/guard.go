package common

import "errors"

// ErrModulePaused is returned when a guarded module is administratively
// paused.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named native module is paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed pause set, typically loaded from configuration.
type StaticPauses map[string]bool

// IsPaused implements the PauseView interface.
func (s StaticPauses) IsPaused(module string) bool {
	return s[module]
}

// NewStaticPauses builds a StaticPauses view from a list of module names.
func NewStaticPauses(modules []string) StaticPauses {
	s := make(StaticPauses, len(modules))
	for _, m := range modules {
		if m == "" {
			continue
		}
		s[m] = true
	}
	return s
}
