package sampler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Default probe command lines for Linux/X11. Both are
// overridable in the config file.
const (
	// DefaultWindowProbe prints "app\tpid\ttitle" for the active
	// window. xdotool ships a --shell getactivewindow mode, but
	// the tab-separated form keeps parsing trivial.
	DefaultWindowProbe = `sh -c 'xdotool getactivewindow getwindowclassname getwindowpid getwindowname | paste -sd "\t"'`

	// DefaultIdleProbe prints the idle time in milliseconds.
	DefaultIdleProbe = "xprintidle"
)

// CommandSampler probes the OS by running configured command
// lines. The window probe must print app, pid, title and
// optionally exe path, tab-separated on one line; the idle probe
// must print idle milliseconds.
type CommandSampler struct {
	windowArgv []string
	idleArgv   []string
	timeout    time.Duration
}

// NewCommandSampler parses both probe command lines. The timeout
// bounds each probe run; it should stay below the polling
// interval.
func NewCommandSampler(
	windowCmd, idleCmd string, timeout time.Duration,
) (*CommandSampler, error) {
	windowArgv, err := shlex.Split(windowCmd)
	if err != nil {
		return nil, fmt.Errorf("parsing window probe: %w", err)
	}
	if len(windowArgv) == 0 {
		return nil, fmt.Errorf("window probe command is empty")
	}
	idleArgv, err := shlex.Split(idleCmd)
	if err != nil {
		return nil, fmt.Errorf("parsing idle probe: %w", err)
	}
	if len(idleArgv) == 0 {
		return nil, fmt.Errorf("idle probe command is empty")
	}
	return &CommandSampler{
		windowArgv: windowArgv,
		idleArgv:   idleArgv,
		timeout:    timeout,
	}, nil
}

func (c *CommandSampler) run(
	ctx context.Context, argv []string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", argv[0], err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Sample runs the window probe and parses its output.
func (c *CommandSampler) Sample(ctx context.Context) (Sample, error) {
	out, err := c.run(ctx, c.windowArgv)
	if err != nil {
		return Sample{}, err
	}
	return parseWindowLine(out)
}

// IdleSeconds runs the idle probe and converts its millisecond
// output to whole seconds.
func (c *CommandSampler) IdleSeconds(ctx context.Context) (int, error) {
	out, err := c.run(ctx, c.idleArgv)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing idle probe output %q: %w", out, err)
	}
	return int(ms / 1000), nil
}

// parseWindowLine parses "app\tpid\ttitle[\texe]" probe output.
func parseWindowLine(line string) (Sample, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return Sample{}, fmt.Errorf(
			"window probe output %q: want at least app, pid, title", line,
		)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Sample{}, fmt.Errorf(
			"window probe pid %q: %w", fields[1], err,
		)
	}
	s := Sample{
		App:   strings.TrimSpace(fields[0]),
		PID:   pid,
		Title: fields[2],
	}
	if len(fields) > 3 {
		s.ExePath = strings.TrimSpace(fields[3])
	}
	return s, nil
}
