// internal/toolcmd/grid.go
package toolcmd

// Grid hands commands to a cluster submit program instead of running them
// locally. Scheduling happens elsewhere; this only rewrites the argv.
type Grid struct {
	Submit     []string // e.g. ["qsub", "-cwd", "-b", "y"]
	StdoutFlag string   // e.g. "-o"
	StderrFlag string   // e.g. "-e"
}

// Enabled reports whether g has a submit program configured.
func (g *Grid) Enabled() bool { return g != nil && len(g.Submit) > 0 }

// Wrap returns the submission command for c. Output redirection is passed
// to the submitter through its flags because the job runs on another host.
func (g *Grid) Wrap(c Command, stdout, stderr string) Command {
	if !g.Enabled() {
		return c
	}
	w := New(g.Submit[0], g.Submit[1:]...)
	if stdout != "" && g.StdoutFlag != "" {
		w = w.With(g.StdoutFlag, stdout)
	}
	if stderr != "" && g.StderrFlag != "" {
		w = w.With(g.StderrFlag, stderr)
	}
	return w.With(c.Argv()...)
}
