// Copyright © 2024 The Expreva authors

package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/expreva/expreva"
	"github.com/expreva/expreva/parser/token"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprint(ew.w, s)
}

// callgrindProfiler builds Callgrind files.  The resulting files can be
// opened in KCacheGrind or QCacheGrind.
type callgrindProfiler struct {
	profiler
	sync.Mutex
	writer     *os.File
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	current    *callRef
}

var _ expreva.Profiler = &callgrindProfiler{}

// NewCallgrindProfiler returns a profiler that writes a Callgrind file.
// Call SetFile before Enable.
func NewCallgrindProfiler(runtime *expreva.Runtime, opts ...Option) *callgrindProfiler {
	p := new(callgrindProfiler)
	p.runtime = runtime
	runtime.Profiler = p

	p.applyConfigs(opts...)
	return p
}

// callRef represents one invocation on the observed call stack.
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	endMemory   uint64
	file        string
	line        int
}

func (p *callgrindProfiler) Enable() error {
	p.Lock()
	if p.writer == nil {
		p.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: expreva %s (Go %s)\n", expreva.Version, runtime.Version())
	w.printf("cmd: Eval\npart: 1\npositions: line\n\n")
	w.printf("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.Unlock()
	p.push("ENTRYPOINT", &token.Location{
		File: "-",
		Pos:  0,
		Line: 0,
		Col:  0,
	})
	return p.profiler.Enable()
}

func (p *callgrindProfiler) SetFile(filename string) error {
	p.Lock()
	defer p.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	pointer, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	p.writer = pointer
	return nil
}

func (p *callgrindProfiler) Complete() error {
	ref := p.pop()
	p.Lock()
	defer p.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	// Generate entrypoint
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	// Output the things we called
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, 0)
	}
	w.print("\n")
	duration := time.Since(p.startTime)
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", duration.Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	return p.writer.Close()
}

func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *callgrindProfiler) Start(fun *expreva.Val) func() {
	if p.skipTrace(fun) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(fun)
	p.push(prettyLabel, fun.Source)
	return func() {
		p.end(fun)
	}
}

// push records entry into a callable on the observed stack.
func (p *callgrindProfiler) push(name string, loc *token.Location) *callRef {
	p.Lock()
	defer p.Unlock()
	frameRef := new(callRef)
	frameRef.name = name
	frameRef.children = make([]*callRef, 0)
	if loc != nil {
		frameRef.file = loc.File
		frameRef.line = loc.Line
	}
	if p.current != nil {
		frameRef.prev = p.current
		frameRef.prev.children = append(frameRef.prev.children, frameRef)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	frameRef.startMemory = ms.TotalAlloc
	frameRef.start = time.Now()
	p.current = frameRef
	return frameRef
}

// pop unwinds the observed stack by one frame.
func (p *callgrindProfiler) pop() *callRef {
	p.Lock()
	defer p.Unlock()
	ref := p.current
	if ref == nil {
		panic("unbalanced profiler stack")
	}
	p.current = ref.prev
	return ref
}

func (p *callgrindProfiler) end(fun *expreva.Val) {
	if !p.enabled {
		return
	}
	ref := p.pop()
	p.Lock()
	defer p.Unlock()
	if p.writeErr != nil {
		return
	}
	fName, _ := p.prettyFunName(fun)
	loc := getSourceLoc(fun)
	w := &errWriter{w: p.writer}
	// Write what function we've been observing and where to find it
	if loc != nil {
		w.printf("fl=%s\n", p.getRef(loc.File))
	}
	w.printf("fn=%s\n", p.getRef(fName))
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.endMemory = ms.TotalAlloc
	memory := ref.endMemory - ref.startMemory
	// Cache the location so callers can still resolve it when they write
	// their own child entries.
	if ref.line == 0 && loc != nil {
		ref.line = loc.Line
		ref.file = loc.File
	}
	line := 0
	if loc != nil {
		line = loc.Line
	}
	w.printf("%d %d %d\n", line, ref.duration, memory)
	// Output the things we called
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, memory)
	}
	// and end the entry
	w.print("\n")
	if w.err != nil {
		p.writeErr = w.err
	}
}
