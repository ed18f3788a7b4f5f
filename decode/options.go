// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/activation"
	"github.com/creachadair/jbind/convert"
	"github.com/creachadair/jbind/meta"
	"gopkg.in/yaml.v3"
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 64

// Options control the behavior of a decoder. The zero value is ready for use
// and provides default settings.
type Options struct {
	// MaxDepth limits the nesting depth of the input. If zero, the limit is
	// DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`

	// CaseSensitive disables case-insensitive matching of property names.
	CaseSensitive bool `yaml:"case_sensitive"`

	// IgnoreNullValues causes null values of object properties to be
	// skipped, leaving the property unchanged.
	IgnoreNullValues bool `yaml:"ignore_null_values"`

	// UseNumber decodes numbers of unknown type as json.Number instead of
	// float64.
	UseNumber bool `yaml:"use_number"`

	// Naming is the policy for naming properties of fields with no tag name.
	Naming meta.NamingPolicy `yaml:"naming"`

	// RejectUnknown reports an error for an object property that matches no
	// field, instead of discarding it. Properties captured by an extension
	// data field are not affected.
	RejectUnknown bool `yaml:"reject_unknown"`

	// AllowComments and AllowTrailingCommas enable the corresponding
	// extensions in readers created by a Config.
	AllowComments       bool `yaml:"allow_comments"`
	AllowTrailingCommas bool `yaml:"allow_trailing_commas"`
}

// Check reports an error if o contains invalid settings.
func (o Options) Check() error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("invalid max_depth %d", o.MaxDepth)
	}
	return o.Naming.Check()
}

func (o Options) maxDepth() int {
	if o.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// LoadOptions reads options in YAML format from r. Unknown settings are
// reported as errors.
func LoadOptions(r io.Reader) (Options, error) {
	var opts Options
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("load options: %w", err)
	}
	if err := opts.Check(); err != nil {
		return Options{}, fmt.Errorf("load options: %w", err)
	}
	return opts, nil
}

// A Config holds the options and type metadata shared by decoders. The
// metadata for each type is computed once for the lifetime of the Config.
// A Config is safe for concurrent use.
type Config struct {
	opts     Options
	provider activation.Provider
	conv     *convert.Registry
	cache    *meta.Cache
}

// A ConfigOption customizes a Config.
type ConfigOption func(*Config)

// WithProvider sets the constructor provider. The default is
// activation.Reflect.
func WithProvider(p activation.Provider) ConfigOption {
	return func(c *Config) { c.provider = p }
}

// WithConverters sets the leaf converters. The default is a new registry of
// the built-in converters.
func WithConverters(r *convert.Registry) ConfigOption {
	return func(c *Config) { c.conv = r }
}

// NewConfig constructs a new Config with the given options. NewConfig does
// not check opts; use Options.Check to validate them.
func NewConfig(opts Options, cfgOpts ...ConfigOption) *Config {
	c := &Config{opts: opts}
	for _, opt := range cfgOpts {
		opt(c)
	}
	if c.provider == nil {
		c.provider = activation.Reflect
	}
	if c.conv == nil {
		c.conv = convert.NewRegistry()
	}
	c.cache = meta.NewCache(c.provider, c.conv,
		meta.WithNaming(opts.Naming),
		meta.CaseSensitive(opts.CaseSensitive),
	)
	return c
}

// Default returns a shared Config with default options.
var Default = sync.OnceValue(func() *Config { return NewConfig(Options{}) })

// Options returns the options for c.
func (c *Config) Options() Options { return c.opts }

// Cache returns the metadata cache for c.
func (c *Config) Cache() *meta.Cache { return c.cache }

// NewReader returns a reader for r with the syntax extensions enabled by the
// options of c.
func (c *Config) NewReader(r io.Reader) *jbind.Reader {
	rd := jbind.NewReader(r)
	rd.AllowComments(c.opts.AllowComments)
	rd.AllowTrailingCommas(c.opts.AllowTrailingCommas)
	return rd
}

// NewFeeder returns an empty feeder with the syntax extensions enabled by the
// options of c.
func (c *Config) NewFeeder() *jbind.Feeder {
	f := jbind.NewFeeder()
	f.AllowComments(c.opts.AllowComments)
	f.AllowTrailingCommas(c.opts.AllowTrailingCommas)
	return f
}

func orDefault(c *Config) *Config {
	if c == nil {
		return Default()
	}
	return c
}
