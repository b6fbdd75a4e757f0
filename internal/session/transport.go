package session

import (
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/hovershell/core/internal/infrastructure/logging"
	"github.com/hovershell/core/internal/shared/types"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// PTYFactory opens pseudo-terminal shells.
type PTYFactory struct {
	log *logging.Logger
}

// NewPTYFactory creates a factory.
func NewPTYFactory(log *logging.Logger) *PTYFactory {
	return &PTYFactory{log: log}
}

// Open starts a shell under a PTY and begins streaming its output to
// onOutput from a reader goroutine.
func (f *PTYFactory) Open(shell, workingDir string, cols, rows int, onOutput func([]byte)) (Transport, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}
	if workingDir == "" {
		workingDir = os.Getenv("HOME")
		if workingDir == "" {
			workingDir = "/tmp"
		}
	}
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, types.Providerf("start pty: %v", err)
	}

	t := &ptyTransport{
		log:  f.log,
		cmd:  cmd,
		ptmx: ptmx,
	}

	go t.readLoop(onOutput)
	go t.monitor()

	return t, nil
}

type ptyTransport struct {
	log  *logging.Logger
	cmd  *exec.Cmd
	ptmx *os.File

	mu     sync.Mutex
	closed bool
}

func (t *ptyTransport) readLoop(onOutput func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := t.ptmx.Read(buf)
		if n > 0 {
			onOutput(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				t.log.Debug("pty read ended", zap.Error(err))
			}
			return
		}
	}
}

func (t *ptyTransport) monitor() {
	t.cmd.Wait()

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.ptmx.Close()
}

func (t *ptyTransport) Write(p []byte) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return types.Providerf("shell exited")
	}
	_, err := t.ptmx.Write(p)
	return err
}

func (t *ptyTransport) Resize(cols, rows int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return types.Providerf("shell exited")
	}
	return pty.Setsize(t.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

func (t *ptyTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	return t.ptmx.Close()
}
