package config

import "fmt"

// The entries below mirror the structure the library model registry expects: a dependency
// formula for the returned value and one per out-argument, each expressed over the callee's
// argument positions. The yaml decoding happens here so the analysis receives structured
// entries and never touches the textual source.

// FormulaEntry is a dependency formula in the config file. Kind is one of "deterministic",
// "input-dependent" or "args"; Args lists argument positions and is only meaningful for
// kind "args".
type FormulaEntry struct {
	Kind string `yaml:"kind"`
	Args []int  `yaml:"args"`
}

// LibraryModelEntry describes the dependency behavior of one external function.
type LibraryModelEntry struct {
	// Name is the full symbol name, e.g. "strings.Repeat" or "(*bufio.Reader).ReadString".
	Name string `yaml:"name"`

	// Return is the formula for the returned value(s).
	Return FormulaEntry `yaml:"return"`

	// OutArgs maps argument positions to the formula for what the function writes back
	// through that argument.
	OutArgs map[int]FormulaEntry `yaml:"out-args"`
}

func (f FormulaEntry) validate() error {
	switch f.Kind {
	case "", "deterministic", "input-dependent":
		return nil
	case "args":
		if len(f.Args) == 0 {
			return fmt.Errorf("formula kind \"args\" requires a non-empty args list")
		}
		for _, i := range f.Args {
			if i < 0 {
				return fmt.Errorf("negative argument position %d", i)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown formula kind %q", f.Kind)
	}
}

func (e LibraryModelEntry) validate() error {
	if e.Name == "" {
		return fmt.Errorf("library model entry without a name")
	}
	if err := e.Return.validate(); err != nil {
		return fmt.Errorf("%s: return: %w", e.Name, err)
	}
	for pos, f := range e.OutArgs {
		if pos < 0 {
			return fmt.Errorf("%s: negative out-argument position %d", e.Name, pos)
		}
		if err := f.validate(); err != nil {
			return fmt.Errorf("%s: out-arg %d: %w", e.Name, pos, err)
		}
	}
	return nil
}
