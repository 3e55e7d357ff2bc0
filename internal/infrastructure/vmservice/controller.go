// Package vmservice runs the generated test script under an instrumented
// Dart VM and pulls per-line execution counts from its service protocol.
package vmservice

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"sync"
	"time"

	"github.com/dartcov/dartcov/internal/domain"
)

// DefaultCollectTimeout bounds the single coverage collection attempt.
const DefaultCollectTimeout = 15 * time.Minute

// DefaultPort is the VM service port requested when none is configured.
const DefaultPort = 8787

// Controller owns one instrumented test run: it launches the VM, waits
// for the service URI on stdout, collects coverage exactly once, and
// validates the exit status. It never retries; every failure carries the
// phase it originated in.
type Controller struct {
	DartBin string        // defaults to "dart"
	Port    int           // requested service port; defaults to DefaultPort
	Timeout time.Duration // collection bound; defaults to DefaultCollectTimeout

	// TestOutput receives the child's test output when non-nil.
	TestOutput io.Writer

	// Collect overrides the collection call (for testing).
	Collect func(ctx context.Context, service *url.URL) (domain.HitMap, error)
}

type uriEvent struct {
	uri *url.URL
	err error
}

// Run executes scriptPath under the instrumented VM with pkgRoot as the
// working directory and returns the collected hit map keyed by script URI.
func (c *Controller) Run(ctx context.Context, pkgRoot, scriptPath string) (domain.HitMap, error) {
	dartBin := c.DartBin
	if dartBin == "" {
		dartBin = "dart"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultCollectTimeout
	}
	collect := c.Collect
	if collect == nil {
		collect = Collect
	}

	cmd := exec.CommandContext(ctx, dartBin,
		"--pause-isolates-on-exit",
		"--enable-asserts",
		fmt.Sprintf("--enable-vm-service=%d", port),
		scriptPath,
	)
	cmd.Dir = pkgRoot

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", dartBin, err)
	}

	echo := c.TestOutput
	if echo == nil {
		echo = io.Discard
	}

	// Stderr must be drained for the entire run so the child never blocks
	// writing to a full pipe.
	var drain sync.WaitGroup
	drain.Add(2)
	go func() {
		defer drain.Done()
		_, _ = io.Copy(echo, stderr)
	}()

	uriCh := make(chan uriEvent, 1)
	go func() {
		defer drain.Done()
		scanLines(stdout, echo, uriCh)
	}()

	kill := func() {
		_ = cmd.Process.Kill()
		drain.Wait()
		_ = cmd.Wait()
	}

	// AwaitingDiagnosticsUri: the first marker line decides the transition.
	event, ok := <-uriCh
	if !ok {
		kill()
		return nil, ErrNoServiceURI
	}
	if event.err != nil {
		kill()
		return nil, event.err
	}

	// Collecting: one bounded attempt, no retries.
	collectCtx, cancel := context.WithTimeout(ctx, timeout)
	hits, collectErr := collect(collectCtx, event.uri)
	cancel()
	if collectErr != nil {
		timedOut := errors.Is(collectErr, context.DeadlineExceeded)
		kill()
		return nil, &CollectError{Timeout: timedOut, Err: collectErr}
	}

	// Collected: the VM resumes its paused isolates and exits on its own.
	drain.Wait()
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Code: exitErr.ExitCode()}
		}
		return nil, err
	}
	return hits, nil
}

// scanLines consumes stdout line by line, echoing it and reporting the
// first service URI (or parse failure). The channel is closed on EOF so
// the controller can tell "exited before URI" from a parse error.
func scanLines(r io.Reader, echo io.Writer, uriCh chan<- uriEvent) {
	scanner := bufio.NewScanner(r)
	reported := false
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(echo, line)
		if reported {
			continue
		}
		uri, err := ExtractServiceURI(line)
		if err != nil {
			uriCh <- uriEvent{err: err}
			reported = true
			continue
		}
		if uri != nil {
			uriCh <- uriEvent{uri: uri}
			reported = true
		}
	}
	close(uriCh)
}
