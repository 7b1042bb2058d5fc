package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/black3806/clixon/netconf"
	"github.com/black3806/clixon/options"
)

type cliOptions struct {
	configPath string
	sock       string
	addr       string
	username   string
	xpath      string
	namespaces string
	content    string
	depth      int
	operation  string
	debug      int
}

// resolveOptions layers flag overrides on top of the configuration file.
func resolveOptions(cli cliOptions) (options.Options, error) {
	opts := options.DefaultOptions()
	if cli.configPath != "" {
		loaded, err := options.Load(cli.configPath)
		if err != nil {
			return options.Options{}, err
		}
		opts = loaded
	}
	if cli.sock != "" && cli.addr != "" {
		return options.Options{}, errors.New("-sock and -addr are mutually exclusive")
	}
	if cli.sock != "" {
		opts.Family = options.FamilyUnix
		opts.Sock = cli.sock
	}
	if cli.addr != "" {
		host, portRaw, err := net.SplitHostPort(cli.addr)
		if err != nil {
			return options.Options{}, fmt.Errorf("invalid addr %q: %w", cli.addr, err)
		}
		port, err := strconv.Atoi(portRaw)
		if err != nil {
			return options.Options{}, fmt.Errorf("invalid addr port %q", portRaw)
		}
		opts.Family = options.FamilyInet
		opts.Sock = host
		opts.Port = port
	}
	if cli.username != "" {
		opts.Username = cli.username
	}
	if cli.debug != 0 {
		opts.Debug = cli.debug
	}
	return opts, nil
}

// parseBindings turns "prefix=uri,prefix2=uri2" into a namespace context.
// An empty prefix binds the default namespace.
func parseBindings(raw string) (*netconf.NamespaceContext, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var nsc *netconf.NamespaceContext
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, uri, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(uri) == "" {
			return nil, fmt.Errorf("invalid namespace binding %q (want prefix=uri)", entry)
		}
		if nsc == nil {
			nsc = netconf.NewNamespaceContext(strings.TrimSpace(prefix), strings.TrimSpace(uri))
			continue
		}
		nsc.Add(strings.TrimSpace(prefix), strings.TrimSpace(uri))
	}
	return nsc, nil
}
