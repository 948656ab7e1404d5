package devserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// errNoFrames is returned when a stack trace has no frames worth keeping.
var errNoFrames = errors.New("no application frames in stack trace")

// The interpreter reports positions in evaluated source as "_.go:LINE:COL"
// or a bare "LINE:COL:" prefix.
var (
	virtualPosRE = regexp.MustCompile(`_\.go:(\d+):(\d+)`)
	barePosRE    = regexp.MustCompile(`^(\d+):(\d+):`)
)

// Internal frames dropped from stack traces.
var internalFramePrefixes = []string{
	"github.com/traefik/yaegi/",
	"runtime/debug.",
	"runtime.",
	"reflect.",
	"panic(",
}

// RemappedError is err with positions rewritten to the original source file
// and interpreter frames removed from its stack.
type RemappedError struct {
	Err     error
	Message string
	Stack   []byte
}

func (e *RemappedError) Error() string      { return e.Message }
func (e *RemappedError) Unwrap() error      { return e.Err }
func (e *RemappedError) StackTrace() []byte { return e.Stack }

// FixStacktrace rewrites source positions in err to reference the entry
// module on disk, relative to the project root, and strips interpreter and
// runtime frames from any attached stack. It returns an error when there is
// nothing it can rewrite; callers keep the original error in that case.
func (t *Tools) FixStacktrace(err error) (error, error) {
	if err == nil {
		return nil, errors.New("nil error")
	}

	name := t.entryName()
	msg := err.Error()
	fixed := virtualPosRE.ReplaceAllString(msg, name+":$1:$2")
	fixed = rewriteBarePositions(fixed, name)

	var stack []byte
	var st interface{ StackTrace() []byte }
	if errors.As(err, &st) && len(st.StackTrace()) > 0 {
		filtered, ferr := FilterStack(st.StackTrace())
		if ferr != nil {
			return nil, fmt.Errorf("failed to remap stack trace: %w", ferr)
		}
		stack = filtered
	} else if fixed == msg {
		return nil, errors.New("no source positions to remap")
	}

	return &RemappedError{Err: err, Message: fixed, Stack: stack}, nil
}

func (t *Tools) entryName() string {
	if t.EntryPath == "" {
		return "entry-server.go"
	}
	if t.Root != "" {
		if rel, err := filepath.Rel(t.Root, t.EntryPath); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return t.EntryPath
}

// rewriteBarePositions handles "LINE:COL: msg" segments that appear after
// error wrapping prefixes ("...: 3:5: undefined: x").
func rewriteBarePositions(msg, name string) string {
	parts := strings.Split(msg, ": ")
	for i, p := range parts {
		if barePosRE.MatchString(p + ":") {
			parts[i] = name + ":" + p
		}
	}
	return strings.Join(parts, ": ")
}

// FilterStack removes runtime and interpreter frames from a Go stack trace
// as produced by runtime/debug.Stack. Goroutine headers are kept.
func FilterStack(stack []byte) ([]byte, error) {
	var out bytes.Buffer
	var frames int

	sc := bufio.NewScanner(bytes.NewReader(stack))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var pending string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "goroutine "):
			out.WriteString(line + "\n")
		case strings.HasPrefix(line, "\t"):
			// File:line of the function on the previous line.
			if pending != "" {
				out.WriteString(pending + "\n" + line + "\n")
				frames++
			}
			pending = ""
		case line == "":
			pending = ""
		default:
			if isInternalFrame(line) {
				pending = ""
			} else {
				pending = line
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if frames == 0 {
		return nil, errNoFrames
	}
	return out.Bytes(), nil
}

func isInternalFrame(fn string) bool {
	for _, prefix := range internalFramePrefixes {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}
