package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a long-running command on SIGINT/SIGTERM and
// tells the user what was kept.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	operation   string
	resumeHint  string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler for the named operation.
func NewInterruptHandler(writer io.Writer, operation string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer:    writer,
		operation: operation,
	}
}

// HandleInterrupts returns a context that is canceled on interrupt. A
// non-empty resumeHint is printed after the interrupt message. Signal
// handling stops when the parent context is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, resumeHint string) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancelFunc = cancel
	h.resumeHint = resumeHint
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt()
		case <-ctx.Done():
		}
	}()

	return ctx
}

// interrupt records the interrupt once and cancels the context.
func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true
	h.showInterruptMessage()
	if h.cancelFunc != nil {
		h.cancelFunc()
	}
}

// showInterruptMessage displays a friendly interrupt message.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")

	if h.resumeHint != "" {
		msg += "\n" + FormatInfo("Finished work was kept. "+h.resumeHint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
