package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options of every command built with App.
type NamedFlagSetOptions interface {
	// Flags returns the command flags grouped by section.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields that were not set explicitly.
	Complete() error

	// Validate validates all the required options.
	Validate() error
}
