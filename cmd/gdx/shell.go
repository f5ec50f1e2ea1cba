package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/classbridge/abi"
	"github.com/wippyai/classbridge/internal/demo"
	"github.com/wippyai/classbridge/variant"
)

// shell runs one-line commands against a session.
type shell struct {
	sess *demo.Session
}

func newShell(sess *demo.Session) *shell {
	return &shell{sess: sess}
}

type command struct {
	run   func(sh *shell, args []string) (string, error)
	usage string
	nargs int // minimum argument count
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"classes": {usage: "classes", run: (*shell).classes},
		"objects": {usage: "objects", run: (*shell).objects},
		"new":     {usage: "new <Class>", nargs: 1, run: (*shell).create},
		"free":    {usage: "free <obj>", nargs: 1, run: (*shell).free},
		"ref":     {usage: "ref <obj>", nargs: 1, run: (*shell).ref},
		"unref":   {usage: "unref <obj>", nargs: 1, run: (*shell).unref},
		"call":    {usage: "call <obj> <method> [args...]", nargs: 2, run: (*shell).call},
		"notify":  {usage: "notify <obj> <ready|process|enter_tree|exit_tree|code>", nargs: 2, run: (*shell).notify},
		"get":     {usage: "get <obj> <prop>", nargs: 2, run: (*shell).get},
		"set":     {usage: "set <obj> <prop> <value>", nargs: 3, run: (*shell).set},
		"props":   {usage: "props <obj>", nargs: 1, run: (*shell).props},
		"revert":  {usage: "revert <obj> <prop>", nargs: 2, run: (*shell).revert},
		"str":     {usage: "str <obj>", nargs: 1, run: (*shell).str},
		"reload":  {usage: "reload <Class>", nargs: 1, run: (*shell).reload},
		"leaks":   {usage: "leaks", run: (*shell).leaks},
		"help":    {usage: "help", run: (*shell).help},
	}
}

// exec runs one command line.
func (sh *shell) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, ok := commands[fields[0]]
	if !ok {
		return "", fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	args := fields[1:]
	if len(args) < cmd.nargs {
		return "", fmt.Errorf("usage: %s", cmd.usage)
	}
	return cmd.run(sh, args)
}

// runCommands executes ';'-separated commands, stopping at the first error.
func runCommands(sh *shell, script string, w io.Writer) error {
	for _, line := range strings.Split(script, ";") {
		out, err := sh.exec(line)
		if err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSpace(line), err)
		}
		if out != "" {
			fmt.Fprintln(w, out)
		}
	}
	return nil
}

func parseObject(s string) (abi.ObjectPtr, error) {
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad object %q", s)
	}
	return abi.ObjectPtr(n), nil
}

// parseValue reads a literal: true/false, integers, floats, "quoted" or
// bare strings.
func parseValue(s string) variant.Variant {
	switch s {
	case "true":
		return variant.Bool(true)
	case "false":
		return variant.Bool(false)
	case "nil":
		return variant.Nil()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return variant.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return variant.Float(f)
	}
	if u, err := strconv.Unquote(s); err == nil {
		return variant.String(u)
	}
	return variant.String(s)
}

var notificationNames = map[string]int32{
	"postinitialize": abi.NotificationPostinitialize,
	"predelete":      abi.NotificationPredelete,
	"enter_tree":     abi.NotificationEnterTree,
	"exit_tree":      abi.NotificationExitTree,
	"ready":          abi.NotificationReady,
	"physics":        abi.NotificationPhysicsProcess,
	"process":        abi.NotificationProcess,
}

func (sh *shell) classes([]string) (string, error) {
	return strings.TrimRight(renderClasses(sh.sess.Library.Summaries(), false), "\n"), nil
}

func (sh *shell) objects([]string) (string, error) {
	var lines []string
	for _, obj := range sh.sess.Host.Objects() {
		o, _ := sh.sess.Host.Object(obj)
		lines = append(lines, fmt.Sprintf("%#x %s", uint64(obj), o.Class))
	}
	if len(lines) == 0 {
		return "no objects", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (sh *shell) create(args []string) (string, error) {
	obj, err := sh.sess.Host.Instantiate(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%#x", uint64(obj)), nil
}

func (sh *shell) objectOp(args []string, op func(abi.ObjectPtr) error, done string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	if err := op(obj); err != nil {
		return "", err
	}
	return done, nil
}

func (sh *shell) free(args []string) (string, error) {
	return sh.objectOp(args, sh.sess.Host.Free, "freed")
}

func (sh *shell) ref(args []string) (string, error) {
	return sh.objectOp(args, sh.sess.Host.Reference, "ok")
}

func (sh *shell) unref(args []string) (string, error) {
	return sh.objectOp(args, sh.sess.Host.Unreference, "ok")
}

func (sh *shell) call(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	vals := make([]variant.Variant, 0, len(args)-2)
	for _, a := range args[2:] {
		vals = append(vals, parseValue(a))
	}
	ret, called, err := sh.sess.Host.CallVirtual(obj, args[1], vals...)
	if err != nil {
		return "", err
	}
	if !called {
		return "not overridden", nil
	}
	return ret.String(), nil
}

func (sh *shell) notify(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	what, ok := notificationNames[args[1]]
	if !ok {
		n, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return "", fmt.Errorf("bad notification %q", args[1])
		}
		what = int32(n)
	}
	if err := sh.sess.Host.Notify(obj, what); err != nil {
		return "", err
	}
	return "ok", nil
}

func (sh *shell) get(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	v, ok, err := sh.sess.Host.Get(obj, args[1])
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("no property %s", args[1])
	}
	return v.String(), nil
}

func (sh *shell) set(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	value := parseValue(strings.Join(args[2:], " "))
	if err := sh.sess.Host.Set(obj, args[1], value); err != nil {
		return "", err
	}
	return "ok", nil
}

func (sh *shell) props(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	list, err := sh.sess.Host.PropertyList(obj)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(list))
	for _, p := range list {
		lines = append(lines, fmt.Sprintf("%s: %s", p.Name, p.Type))
	}
	return strings.Join(lines, "\n"), nil
}

func (sh *shell) revert(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	v, ok, err := sh.sess.Host.GetRevert(obj, args[1])
	if err != nil {
		return "", err
	}
	if !ok {
		return "no default", nil
	}
	return v.String(), nil
}

func (sh *shell) str(args []string) (string, error) {
	obj, err := parseObject(args[0])
	if err != nil {
		return "", err
	}
	return sh.sess.Host.ToString(obj)
}

func (sh *shell) reload(args []string) (string, error) {
	n, err := sh.sess.Host.Reload(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("reloaded %d", n), nil
}

func (sh *shell) leaks([]string) (string, error) {
	instances, lists := sh.sess.Library.Leaks()
	return fmt.Sprintf("instances=%d lists=%d", instances, lists), nil
}

func (sh *shell) help([]string) (string, error) {
	usages := make([]string, 0, len(commands))
	for _, c := range commands {
		usages = append(usages, "  "+c.usage)
	}
	sort.Strings(usages)
	return strings.Join(usages, "\n"), nil
}
