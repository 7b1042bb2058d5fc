package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/black3806/clixon/client"
	"github.com/black3806/clixon/internal/logging"
	"github.com/black3806/clixon/netconf"
)

func main() {
	cli := parseFlags()
	logging.ConfigureRuntime()

	opts, err := resolveOptions(cli)
	if err != nil {
		fatalf("%v", err)
	}
	logging.SetDebug(opts.Debug)

	h, err := client.New(opts)
	if err != nil {
		fatalf("%v", err)
	}
	eff := h.Options()
	log.Debug().
		Str("family", string(eff.Family)).
		Str("sock", eff.Sock).
		Int("port", eff.Port).
		Str("username", eff.Username).
		Msg("effective options")
	if err := run(h, cli, flag.Args()); err != nil {
		fatalf("%v", err)
	}
}

func parseFlags() cliOptions {
	var cli cliOptions
	flag.StringVar(&cli.configPath, "config", "", "TOML configuration file")
	flag.StringVar(&cli.sock, "sock", "", "backend unix socket path")
	flag.StringVar(&cli.addr, "addr", "", "backend TCP endpoint (host:port)")
	flag.StringVar(&cli.username, "username", "", "username stamped on requests")
	flag.StringVar(&cli.xpath, "xpath", "", "xpath filter for get and get-config")
	flag.StringVar(&cli.namespaces, "ns", "", "filter namespace bindings, comma-separated prefix=uri")
	flag.StringVar(&cli.content, "content", "all", "get content selector: all | config | nonconfig")
	flag.IntVar(&cli.depth, "depth", int(netconf.DepthUnlimited), "get retrieval depth, -1 for unlimited")
	flag.StringVar(&cli.operation, "operation", "merge", "edit-config default-operation")
	flag.IntVar(&cli.debug, "debug", 0, "debug level: 1 debug, 2 trace")
	flag.Usage = usage
	flag.Parse()
	return cli
}

func run(h *client.Handle, cli cliOptions, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("command required")
	}
	ctx := context.Background()
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "get":
		content, err := netconf.ParseContent(cli.content)
		if err != nil {
			return err
		}
		nsc, err := parseBindings(cli.namespaces)
		if err != nil {
			return err
		}
		data, err := h.Get(ctx, cli.xpath, nsc, content, int32(cli.depth))
		if err != nil {
			return err
		}
		return printElement(data)

	case "get-config":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		nsc, err := parseBindings(cli.namespaces)
		if err != nil {
			return err
		}
		data, err := h.GetConfig(ctx, "", rest[0], cli.xpath, nsc)
		if err != nil {
			return err
		}
		return printElement(data)

	case "edit-config":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		op, err := netconf.ParseOperation(cli.operation)
		if err != nil {
			return err
		}
		body, err := readStdin()
		if err != nil {
			return err
		}
		return h.EditConfig(ctx, rest[0], op, body)

	case "copy-config":
		if err := wantArgs(cmd, rest, 2, "<source> <target>"); err != nil {
			return err
		}
		return h.CopyConfig(ctx, rest[0], rest[1])

	case "delete-config":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		return h.DeleteConfig(ctx, rest[0])

	case "lock":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		return h.Lock(ctx, rest[0])

	case "unlock":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		return h.Unlock(ctx, rest[0])

	case "validate":
		if err := wantArgs(cmd, rest, 1, "<db>"); err != nil {
			return err
		}
		return h.Validate(ctx, rest[0])

	case "commit":
		if err := wantArgs(cmd, rest, 0, ""); err != nil {
			return err
		}
		return h.Commit(ctx)

	case "discard-changes":
		if err := wantArgs(cmd, rest, 0, ""); err != nil {
			return err
		}
		return h.DiscardChanges(ctx)

	case "close-session":
		if err := wantArgs(cmd, rest, 0, ""); err != nil {
			return err
		}
		return h.CloseSession(ctx)

	case "kill-session":
		if err := wantArgs(cmd, rest, 1, "<session-id>"); err != nil {
			return err
		}
		id, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid session id %q", rest[0])
		}
		return h.KillSession(ctx, uint32(id))

	case "debug":
		if err := wantArgs(cmd, rest, 1, "<level>"); err != nil {
			return err
		}
		level, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid debug level %q", rest[0])
		}
		return h.Debug(ctx, level)

	case "rpc":
		body, err := readStdin()
		if err != nil {
			return err
		}
		doc, err := h.Netconf(ctx, body)
		if err != nil {
			return err
		}
		return printDocument(doc)

	case "subscribe":
		stream, filter := "", ""
		if len(rest) > 0 {
			stream = rest[0]
		}
		if len(rest) > 1 {
			filter = rest[1]
		}
		return streamNotifications(ctx, h, stream, filter)
	}

	return fmt.Errorf("unknown command %q", cmd)
}

// streamNotifications prints pushed notifications until the backend
// closes the stream.
func streamNotifications(ctx context.Context, h *client.Handle, stream, filter string) error {
	reader, err := h.CreateSubscription(ctx, stream, filter)
	if err != nil {
		return err
	}
	defer reader.Close()
	log.Info().Str("stream", stream).Msg("subscription established")

	for {
		doc, err := reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Msg("notification stream closed")
				return nil
			}
			return err
		}
		if err := printDocument(doc); err != nil {
			return err
		}
	}
}

func printElement(el *etree.Element) error {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return printDocument(doc)
}

func printDocument(doc *etree.Document) error {
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimRight(out, "\n"))
	return nil
}

func readStdin() (string, error) {
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(raw), nil
}

func wantArgs(cmd string, rest []string, n int, shape string) error {
	if len(rest) != n {
		return fmt.Errorf("usage: clixctl %s %s", cmd, strings.TrimSpace(shape))
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: clixctl [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  get                          read state and config, honors -xpath -content -depth")
	fmt.Fprintln(os.Stderr, "  get-config <db>              read configuration, honors -xpath -ns")
	fmt.Fprintln(os.Stderr, "  edit-config <db>             apply config from stdin, honors -operation")
	fmt.Fprintln(os.Stderr, "  copy-config <source> <target>")
	fmt.Fprintln(os.Stderr, "  delete-config <db>")
	fmt.Fprintln(os.Stderr, "  lock <db> / unlock <db>")
	fmt.Fprintln(os.Stderr, "  validate <db>")
	fmt.Fprintln(os.Stderr, "  commit / discard-changes")
	fmt.Fprintln(os.Stderr, "  close-session")
	fmt.Fprintln(os.Stderr, "  kill-session <session-id>")
	fmt.Fprintln(os.Stderr, "  debug <level>                set backend debug level")
	fmt.Fprintln(os.Stderr, "  rpc                          send raw rpc body from stdin, print reply")
	fmt.Fprintln(os.Stderr, "  subscribe [stream [filter]]  stream notifications until closed")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "flags:")
	flag.PrintDefaults()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "clixctl: "+format+"\n", args...)
	os.Exit(1)
}
