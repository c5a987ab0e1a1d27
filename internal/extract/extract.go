// Package extract runs a long-lived exiftool process for media metadata
// extraction.
//
// exiftool startup costs hundreds of milliseconds, so instead of one process
// per file the pool keeps a single `exiftool -stay_open true -@ -` child and
// feeds it commands over stdin. The tool answers each command with output
// lines terminated by a literal "{ready}" marker. Requests are strictly
// serialized: the line protocol has no request IDs, so only one command may
// be in flight at a time. A crashed or desynchronized child is killed and
// restarted transparently; only the in-flight request observes the failure.
package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const readyMarker = "{ready}"

// ErrClosed is returned by Request after Close has been called.
var ErrClosed = errors.New("extractor is closed")

type result struct {
	output string
	err    error
}

type process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	results chan result
	done    chan struct{}
}

// Pool owns one exiftool child process and serializes requests to it.
type Pool struct {
	command string

	mu     sync.Mutex
	proc   *process
	closed bool
}

// New creates a pool that will run the given command (normally "exiftool").
// The child process is started lazily on the first request.
func New(command string) *Pool {
	return &Pool{command: command}
}

// Request runs the tool against file with the given argument lines and
// returns the raw output up to the ready marker.
//
// Requests are single-flight; concurrent callers serialize on an internal
// mutex. Context cancellation kills the child, because abandoning
// an answered command would desynchronize the line protocol for the next
// caller.
func (p *Pool) Request(ctx context.Context, file string, args []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrClosed
	}

	proc, err := p.ensureProcess()
	if err != nil {
		return "", err
	}

	var cmd strings.Builder
	for _, arg := range args {
		cmd.WriteString(arg)
		cmd.WriteByte('\n')
	}
	cmd.WriteString(file)
	cmd.WriteString("\n-execute\n")

	if _, err := io.WriteString(proc.stdin, cmd.String()); err != nil {
		p.kill(proc)
		return "", fmt.Errorf("failed to write to %s: %w", p.command, err)
	}

	select {
	case res := <-proc.results:
		if res.err != nil {
			p.kill(proc)
			return "", res.err
		}
		return res.output, nil
	case <-proc.done:
		p.kill(proc)
		return "", fmt.Errorf("%s exited mid-request", p.command)
	case <-ctx.Done():
		p.kill(proc)
		return "", ctx.Err()
	}
}

// Close shuts the child process down. Pending callers queued behind the
// mutex fail with ErrClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	proc := p.proc
	p.proc = nil
	if proc == nil {
		return nil
	}

	// Ask for a clean exit first; -stay_open false makes exiftool quit
	// once it drains stdin.
	_, _ = io.WriteString(proc.stdin, "-stay_open\nfalse\n")
	_ = proc.stdin.Close()

	select {
	case <-proc.done:
	case <-time.After(3 * time.Second):
		_ = proc.cmd.Process.Kill()
		<-proc.done
	}
	return proc.cmd.Wait()
}

// ensureProcess starts the child if none is running. Callers must hold p.mu.
func (p *Pool) ensureProcess() (*process, error) {
	if p.proc != nil {
		select {
		case <-p.proc.done:
			// Child died between requests; reap and restart.
			p.kill(p.proc)
		default:
			return p.proc, nil
		}
	}

	cmd := exec.Command(p.command, "-stay_open", "true", "-@", "-")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", p.command, err)
	}

	proc := &process{
		cmd:     cmd,
		stdin:   stdin,
		results: make(chan result, 1),
		done:    make(chan struct{}),
	}
	go proc.read(stdout)

	p.proc = proc
	return proc, nil
}

// kill tears the child down and forgets it. Callers must hold p.mu.
func (p *Pool) kill(proc *process) {
	_ = proc.stdin.Close()
	_ = proc.cmd.Process.Kill()
	<-proc.done
	_ = proc.cmd.Wait()
	if p.proc == proc {
		p.proc = nil
	}
}

// read collects stdout lines into per-command outputs, delimited by the
// ready marker. Runs until stdout closes.
func (proc *process) read(stdout io.Reader) {
	defer close(proc.done)

	var buf strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == readyMarker {
			select {
			case proc.results <- result{output: buf.String()}:
			default:
				// An unsolicited ready marker means the protocol is
				// desynchronized; drop it and let the next request
				// detect the state via a fresh exchange.
			}
			buf.Reset()
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := scanner.Err(); err != nil {
		select {
		case proc.results <- result{err: err}:
		default:
		}
	}
}
