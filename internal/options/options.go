// Package options declares service options and parses them into a read-only
// argument view handed to service builders.
package options

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Kind is the value type of an option.
type Kind int

// Supported option kinds.
const (
	String Kind = iota
	Int
	Bool
	Duration
	StringSlice
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Duration:
		return "duration"
	case StringSlice:
		return "stringSlice"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Option describes one recognized flag. Default must match Kind; a nil
// Default means the zero value.
type Option struct {
	Name      string
	Shorthand string
	Usage     string
	Kind      Kind
	Default   interface{}
}

// ErrHelp is returned by Parse when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

// Args is the parsed, read-only argument view a service is built from.
// Lookups of undeclared names return the zero value.
type Args interface {
	String(name string) string
	Int(name string) int
	Bool(name string) bool
	Duration(name string) time.Duration
	StringSlice(name string) []string
	// Changed reports whether the option was set explicitly on the command line.
	Changed(name string) bool
	// Positional returns the arguments left after flag parsing.
	Positional() []string
}

type flagArgs struct {
	fs *pflag.FlagSet
}

// Parse declares opts on a fresh flag set named name and parses argv.
func Parse(name string, opts []Option, argv []string) (Args, error) {
	fs, err := NewFlagSet(name, opts)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse %s options: %w", name, err)
	}
	return &flagArgs{fs: fs}, nil
}

// NewFlagSet builds a pflag set from option descriptors without parsing.
// Output is left at the pflag default so usage text reaches stderr.
func NewFlagSet(name string, opts []Option) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	for _, o := range opts {
		if o.Name == "" {
			return nil, fmt.Errorf("%s: option with empty name", name)
		}
		if fs.Lookup(o.Name) != nil {
			return nil, fmt.Errorf("%s: option %q declared twice", name, o.Name)
		}
		if err := define(fs, o); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return fs, nil
}

func define(fs *pflag.FlagSet, o Option) error {
	mismatch := func() error {
		return fmt.Errorf("option %q: default %T does not match kind %s", o.Name, o.Default, o.Kind)
	}

	switch o.Kind {
	case String:
		def, ok := o.Default.(string)
		if !ok && o.Default != nil {
			return mismatch()
		}
		fs.StringP(o.Name, o.Shorthand, def, o.Usage)
	case Int:
		def, ok := o.Default.(int)
		if !ok && o.Default != nil {
			return mismatch()
		}
		fs.IntP(o.Name, o.Shorthand, def, o.Usage)
	case Bool:
		def, ok := o.Default.(bool)
		if !ok && o.Default != nil {
			return mismatch()
		}
		fs.BoolP(o.Name, o.Shorthand, def, o.Usage)
	case Duration:
		def, ok := o.Default.(time.Duration)
		if !ok && o.Default != nil {
			return mismatch()
		}
		fs.DurationP(o.Name, o.Shorthand, def, o.Usage)
	case StringSlice:
		def, ok := o.Default.([]string)
		if !ok && o.Default != nil {
			return mismatch()
		}
		fs.StringSliceP(o.Name, o.Shorthand, def, o.Usage)
	default:
		return fmt.Errorf("option %q: unknown kind %s", o.Name, o.Kind)
	}
	return nil
}

func (a *flagArgs) String(name string) string {
	v, err := a.fs.GetString(name)
	if err != nil {
		return ""
	}
	return v
}

func (a *flagArgs) Int(name string) int {
	v, err := a.fs.GetInt(name)
	if err != nil {
		return 0
	}
	return v
}

func (a *flagArgs) Bool(name string) bool {
	v, err := a.fs.GetBool(name)
	if err != nil {
		return false
	}
	return v
}

func (a *flagArgs) Duration(name string) time.Duration {
	v, err := a.fs.GetDuration(name)
	if err != nil {
		return 0
	}
	return v
}

// StringSlice returns nil for undeclared names; pflag hands back an empty
// non-nil slice in that case.
func (a *flagArgs) StringSlice(name string) []string {
	v, err := a.fs.GetStringSlice(name)
	if err != nil {
		return nil
	}
	return v
}

func (a *flagArgs) Changed(name string) bool {
	return a.fs.Changed(name)
}

func (a *flagArgs) Positional() []string {
	return a.fs.Args()
}
