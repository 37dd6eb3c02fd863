package synth

import (
	"fmt"
	"io"
	"os"
)

// Diagnostics go to stderr as "<loc>: <severity>: <message>" lines. The
// writer is a variable so tests can capture the stream.
var diagOut io.Writer = os.Stderr

// errorf reports a user design error and counts it against the design.
func (s *Synth) errorf(loc, format string, args ...interface{}) {
	fmt.Fprintf(diagOut, "%s: error: %s\n", loc, fmt.Sprintf(format, args...))
	s.des.Errors++
}

// hintf adds a continuation line under a preceding diagnostic.
func (s *Synth) hintf(loc, format string, args ...interface{}) {
	fmt.Fprintf(diagOut, "%s:      : %s\n", loc, fmt.Sprintf(format, args...))
}

// warnf reports a condition that does not fail synthesis.
func (s *Synth) warnf(loc, format string, args ...interface{}) {
	fmt.Fprintf(diagOut, "%s: warning: %s\n", loc, fmt.Sprintf(format, args...))
}

// internalf reports an inconsistency in the pass itself. These were
// assertions once; reporting keeps the traversal alive so one run can
// surface every problem.
func (s *Synth) internalf(loc, format string, args ...interface{}) {
	fmt.Fprintf(diagOut, "%s: internal error: %s\n", loc, fmt.Sprintf(format, args...))
	s.des.Errors++
}
