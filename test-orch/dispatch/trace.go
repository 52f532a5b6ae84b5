package dispatch

import (
	"log"
	"time"

	"github.com/fatih/color"
)

// Tracer observes each constructed command before it runs and again once it
// has terminated. Tracers never influence control flow or the exit status.
type Tracer interface {
	Command(cmd Command)
	Exit(cmd Command, code int, elapsed time.Duration, err error)
}

// Tracers fans out to several tracers in order.
type Tracers []Tracer

func (ts Tracers) Command(cmd Command) {
	for _, t := range ts {
		t.Command(cmd)
	}
}

func (ts Tracers) Exit(cmd Command, code int, elapsed time.Duration, err error) {
	for _, t := range ts {
		t.Exit(cmd, code, elapsed, err)
	}
}

// LogTracer echoes commands to a log.Logger with the host prefix, in the form
// "[v0][HOST] RUN> tox -- ...". Col may be nil for uncolored output.
type LogTracer struct {
	Logger   *log.Logger
	Selected Verb
	Col      *color.Color
}

func (t *LogTracer) prefix(lvl Verb) string {
	p := Prefix(lvl, "HOST")
	if t.Col != nil {
		return t.Col.Sprint(p)
	}
	return p
}

func (t *LogTracer) Command(cmd Command) {
	if Allowed(t.Selected, V2) {
		t.Logger.Printf("%s CTX> mode=%s", t.prefix(V2), cmd.Mode())
	}
	// The echo is emitted at every verbosity; a nil Tracer is the only way off.
	t.Logger.Printf("%s RUN> %s", t.prefix(V0), cmd)
}

func (t *LogTracer) Exit(cmd Command, code int, elapsed time.Duration, err error) {
	if err != nil {
		if Allowed(t.Selected, V0) {
			t.Logger.Printf("%s ❌ %v (exit %d)", t.prefix(V0), err, code)
		}
		return
	}
	if Allowed(t.Selected, V2) {
		t.Logger.Printf("%s %s exited with code %d after %s", t.prefix(V2), cmd.Name(), code, elapsed.Round(time.Millisecond))
	}
}
