// internal/toolcmd/command.go
package toolcmd

import (
	"context"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// Command is an external tool invocation as an ordered argv.
// The zero value is not runnable; build one with New.
type Command struct {
	Name string
	Args []string
}

// New returns a Command for name with the given leading arguments.
func New(name string, args ...string) Command {
	return Command{Name: name, Args: append([]string(nil), args...)}
}

// With returns a copy of c with args appended. c is left untouched, so a
// shared template can be extended per shard from several goroutines.
func (c Command) With(args ...string) Command {
	out := Command{Name: c.Name, Args: make([]string, 0, len(c.Args)+len(args))}
	out.Args = append(out.Args, c.Args...)
	out.Args = append(out.Args, args...)
	return out
}

// Argv returns name followed by the arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// Exec builds an *exec.Cmd bound to ctx.
func (c Command) Exec(ctx context.Context) *exec.Cmd {
	return exec.CommandContext(ctx, c.Name, c.Args...)
}

// String renders c as a POSIX shell word list, single-quoting tokens that
// a shell would otherwise split or expand.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quote(a)
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// SplitExtra splits a passthrough flag string the way a shell would,
// honoring quotes. An empty or blank string yields nil.
func SplitExtra(extra string) ([]string, error) {
	if strings.TrimSpace(extra) == "" {
		return nil, nil
	}
	return shlex.Split(extra)
}
