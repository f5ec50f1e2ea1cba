package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/classbridge/bridge"
	"github.com/wippyai/classbridge/config"
	"github.com/wippyai/classbridge/internal/demo"
)

const defaultManifest = `
[configuration]
entry_symbol = "classbridge_init"
compatibility_minimum = "4.1"
reloadable = true

[bridge]
unwind_policy = "recover"
log_level = "warn"
log_format = "console"
`

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to a .gdextension manifest (optional)")
		list         = flag.Bool("list", false, "List registered classes and exit")
		schema       = flag.Bool("schema", false, "Print the manifest JSON schema and exit")
		script       = flag.String("script", "", "Run a wasm guest that drives the classes through the gdext module")
		exec         = flag.String("exec", "", "Run shell commands separated by ';'")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *schema {
		out, err := config.Schema()
		if err != nil {
			fail(err)
		}
		fmt.Println(string(out))
		return
	}

	m, err := loadManifest(*manifestFile)
	if err != nil {
		fail(err)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fail(fmt.Errorf("-i needs a terminal on stdin"))
		}
		// Log output would tear the alternate screen.
		m.Bridge.LogLevel = "error"
	}

	sess, err := open(m)
	if err != nil {
		fail(err)
	}

	switch {
	case *list:
		fmt.Print(renderClasses(sess.Library.Summaries(), term.IsTerminal(int(os.Stdout.Fd()))))
	case *script != "":
		err = runScript(sess, *script)
	case *exec != "":
		err = runCommands(newShell(sess), *exec, os.Stdout)
	case *interactive:
		err = runInteractive(newShell(sess))
	default:
		usage(os.Stderr)
		sess.Close()
		os.Exit(1)
	}

	instances, lists := sess.Close()
	if instances > 0 || lists > 0 {
		fmt.Fprintf(os.Stderr, "leaked: %d instances, %d property lists\n", instances, lists)
	}
	if err != nil {
		fail(err)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: gdx [-manifest file.gdextension] -list")
	fmt.Fprintln(w, "       gdx -schema")
	fmt.Fprintln(w, "       gdx -script guest.wasm")
	fmt.Fprintln(w, `       gdx -exec "new Ship; get 0x1008 hull"`)
	fmt.Fprintln(w, "       gdx -i  (interactive mode)")
}

func loadManifest(path string) (*config.Manifest, error) {
	if path == "" {
		return config.Parse([]byte(defaultManifest))
	}
	return config.Load(path)
}

// open builds the demo session described by m.
func open(m *config.Manifest) (*demo.Session, error) {
	log, err := config.NewLogger(m.Bridge)
	if err != nil {
		return nil, err
	}
	bridge.SetLogger(log)

	opts, err := m.Options()
	if err != nil {
		return nil, err
	}
	sess, err := demo.NewSession(log.Named("host"), m.InitLevel(), opts...)
	if err != nil {
		return nil, err
	}
	if err := m.CheckHost(sess.Host.Version()); err != nil {
		sess.Close()
		return nil, err
	}
	log.Debug("session ready", zap.Strings("classes", sess.Host.Registered()))
	return sess, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
