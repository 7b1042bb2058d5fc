// Package options holds the caller-owned option set consumed by the client
// engine: transport selection, identity, declared capabilities, and message
// limits. Loading is explicit about set-vs-absent so that a missing socket
// option surfaces at connect time, not at config-parse time.
package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/netconf"
)

var (
	ErrInvalidFamily = errors.New("options: invalid socket family")
	ErrInvalidPort   = errors.New("options: socket port out of range")
	ErrInvalidLimit  = errors.New("options: message limit exceeds wire format")
)

// Family selects the socket family for backend connections.
type Family string

const (
	FamilyUnix Family = "unix"
	FamilyInet Family = "inet"
)

// ParseFamily maps config text to a Family. IPv4/IPv6 spellings collapse
// into the inet family; empty text selects the unix default.
func ParseFamily(raw string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "unix":
		return FamilyUnix, nil
	case "inet", "ipv4", "ipv6":
		return FamilyInet, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFamily, raw)
}

// Options is the option set a Handle carries into every operation.
// Sock is a filesystem socket path under the unix family and a backend
// host under the inet family. Port zero means unset.
type Options struct {
	Family          Family
	Sock            string
	Port            int
	Username        string
	Capabilities    []string
	MaxMessageBytes uint64
	Debug           int
}

// DefaultOptions returns the engine defaults: unix family, base capability,
// codec default message limit.
func DefaultOptions() Options {
	return Options{
		Family:          FamilyUnix,
		Capabilities:    []string{netconf.BaseCapability},
		MaxMessageBytes: frame.DefaultLimits().MaxBodyBytes,
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if strings.TrimSpace(string(o.Family)) == "" {
		o.Family = def.Family
	}
	if len(o.Capabilities) == 0 {
		o.Capabilities = append([]string{}, def.Capabilities...)
	}
	if o.MaxMessageBytes == 0 {
		o.MaxMessageBytes = def.MaxMessageBytes
	}
	return o
}

// Validate checks option shape. Socket presence is deliberately not
// required here: a missing sock or port is a connect-time failure.
func (o Options) Validate() error {
	switch o.Family {
	case FamilyUnix, FamilyInet:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFamily, o.Family)
	}
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, o.Port)
	}
	if o.MaxMessageBytes > uint64(frame.MaxWireBody) {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, o.MaxMessageBytes)
	}
	return nil
}

// Limits converts the message size option into codec limits.
func (o Options) Limits() frame.Limits {
	if o.MaxMessageBytes == 0 {
		return frame.DefaultLimits()
	}
	return frame.Limits{MaxBodyBytes: o.MaxMessageBytes}
}

type fileOptions struct {
	Family          string   `toml:"sock_family"`
	Sock            string   `toml:"sock"`
	Port            int      `toml:"sock_port"`
	Username        string   `toml:"username"`
	Capabilities    []string `toml:"capabilities"`
	MaxMessageBytes uint64   `toml:"max_message_bytes"`
	Debug           int      `toml:"debug"`
}

// Load reads options from a TOML file. Only keys present in the file
// override defaults; an absent sock_port stays unset.
func Load(path string) (Options, error) {
	opts := DefaultOptions()

	var raw fileOptions
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Options{}, fmt.Errorf("options load %s: %w", path, err)
	}

	if meta.IsDefined("sock_family") {
		fam, err := ParseFamily(raw.Family)
		if err != nil {
			return Options{}, err
		}
		opts.Family = fam
	}
	if meta.IsDefined("sock") {
		opts.Sock = strings.TrimSpace(raw.Sock)
	}
	if meta.IsDefined("sock_port") {
		opts.Port = raw.Port
	}
	if meta.IsDefined("username") {
		opts.Username = strings.TrimSpace(raw.Username)
	}
	if meta.IsDefined("capabilities") {
		opts.Capabilities = normalizeCapabilities(raw.Capabilities)
	}
	if meta.IsDefined("max_message_bytes") {
		opts.MaxMessageBytes = raw.MaxMessageBytes
	}
	if meta.IsDefined("debug") {
		opts.Debug = raw.Debug
	}

	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func normalizeCapabilities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
