package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/black3806/clixon/options"
)

func TestResolveOptionsFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clixon.toml")
	content := `
sock_family = "unix"
sock = "/var/run/backend.sock"
username = "admin"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts, err := resolveOptions(cliOptions{configPath: path, username: "operator"})
	if err != nil {
		t.Fatalf("resolve options: %v", err)
	}
	if opts.Family != options.FamilyUnix {
		t.Fatalf("unexpected family: %q", opts.Family)
	}
	if opts.Sock != "/var/run/backend.sock" {
		t.Fatalf("unexpected sock: %q", opts.Sock)
	}
	if opts.Username != "operator" {
		t.Fatalf("flag must override file username: %q", opts.Username)
	}
}

func TestResolveOptionsAddrSelectsInet(t *testing.T) {
	opts, err := resolveOptions(cliOptions{addr: "192.0.2.7:4535"})
	if err != nil {
		t.Fatalf("resolve options: %v", err)
	}
	if opts.Family != options.FamilyInet {
		t.Fatalf("unexpected family: %q", opts.Family)
	}
	if opts.Sock != "192.0.2.7" || opts.Port != 4535 {
		t.Fatalf("unexpected endpoint: %q:%d", opts.Sock, opts.Port)
	}
}

func TestResolveOptionsRejectsSockWithAddr(t *testing.T) {
	_, err := resolveOptions(cliOptions{sock: "/tmp/a.sock", addr: "127.0.0.1:4535"})
	if err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestResolveOptionsRejectsBadAddr(t *testing.T) {
	if _, err := resolveOptions(cliOptions{addr: "no-port-here"}); err == nil {
		t.Fatalf("expected addr parse error")
	}
	if _, err := resolveOptions(cliOptions{addr: "127.0.0.1:http"}); err == nil {
		t.Fatalf("expected port parse error")
	}
}

func TestParseBindings(t *testing.T) {
	nsc, err := parseBindings("=urn:example:default, ex=urn:example:ext")
	if err != nil {
		t.Fatalf("parse bindings: %v", err)
	}
	if nsc.Len() != 2 {
		t.Fatalf("unexpected binding count: %d", nsc.Len())
	}
	if uri, ok := nsc.URI(""); !ok || uri != "urn:example:default" {
		t.Fatalf("default binding: %q ok=%v", uri, ok)
	}
	if uri, ok := nsc.URI("ex"); !ok || uri != "urn:example:ext" {
		t.Fatalf("prefixed binding: %q ok=%v", uri, ok)
	}
}

func TestParseBindingsEmptyIsNil(t *testing.T) {
	nsc, err := parseBindings("  ")
	if err != nil {
		t.Fatalf("parse bindings: %v", err)
	}
	if nsc != nil {
		t.Fatalf("expected nil context")
	}
}

func TestParseBindingsRejectsBareEntry(t *testing.T) {
	if _, err := parseBindings("urn:example:no-prefix"); err == nil {
		t.Fatalf("expected binding parse error")
	}
}
