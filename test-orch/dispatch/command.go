package dispatch

import (
	"strconv"
	"strings"
)

// CoverageSentinel is the TOXENV value that selects coverage mode.
const CoverageSentinel = "cov"

// EmptyTarget is the trailing positional test target appended in standard mode.
const EmptyTarget = "empty"

// Mode selects which invocation variant of the tool is run.
type Mode int

const (
	// Standard adds the report flags and the trailing marker target, then forwards
	// the caller's arguments.
	Standard Mode = iota
	// Coverage runs the tool with no arguments and leaves coverage to its own config.
	Coverage
)

func (m Mode) String() string {
	if m == Coverage {
		return "coverage"
	}
	return "standard"
}

// ModeFor maps a TOXENV value onto a Mode. Only the exact sentinel selects Coverage;
// unset and empty values are both Standard.
func ModeFor(toxenv string) Mode {
	if toxenv == CoverageSentinel {
		return Coverage
	}
	return Standard
}

// standardFlags precede the forwarded arguments in standard mode.
var standardFlags = []string{
	"--",
	"--md-report-color", "never",
	"--md-report-zeros", "empty",
}

// Command is an immutable tool invocation: an executable name plus an ordered
// argument list that is never re-interpreted by a shell.
type Command struct {
	name string
	mode Mode
	args []string
}

// BuildCommand constructs the invocation of tool for mode. forwarded is only
// used in Standard mode and is copied, never modified.
func BuildCommand(tool string, mode Mode, forwarded []string) Command {
	if mode == Coverage {
		return Command{name: tool, mode: mode}
	}
	args := make([]string, 0, len(standardFlags)+len(forwarded)+1)
	args = append(args, standardFlags...)
	args = append(args, forwarded...)
	args = append(args, EmptyTarget)
	return Command{name: tool, mode: mode, args: args}
}

// Name is the executable to launch.
func (c Command) Name() string { return c.name }

// Mode is the variant this command was built for.
func (c Command) Mode() Mode { return c.mode }

// Args returns a copy of the argument list, excluding the executable.
func (c Command) Args() []string {
	if len(c.args) == 0 {
		return nil
	}
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Argv returns the executable followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.name}, c.args...)
}

// String renders the command for logs. Tokens that would be ambiguous when read
// back are quoted; the argument list itself is untouched.
func (c Command) String() string {
	argv := c.Argv()
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = quoteToken(a)
	}
	return strings.Join(parts, " ")
}

func quoteToken(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'\\$`") {
		return strconv.Quote(s)
	}
	return s
}
