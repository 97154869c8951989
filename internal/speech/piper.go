// Package speech drives an external offline text-to-speech synthesizer
// (Piper) as a subprocess, piping text in and reading back WAV bytes.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
)

const (
	MaxTextLength = 500
	SynthesisTimeout = 30 * time.Second
)

type Gateway struct {
	binaryPath string
	modelPath  string
	log        *logger.Logger
}

func New(binaryPath, modelPath string, baseLog *logger.Logger) *Gateway {
	return &Gateway{binaryPath: binaryPath, modelPath: modelPath, log: baseLog.With("component", "SpeechGateway")}
}

// Available checks that the configured binary can be found on PATH.
func (g *Gateway) Available() bool {
	_, err := exec.LookPath(g.binaryPath)
	return err == nil
}

// Synthesize validates text and spawns Piper with a bounded lifetime,
// returning the complete WAV byte stream read from its stdout. Each call
// spawns its own subprocess; nothing is cached, nothing is pooled.
func (g *Gateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperr.Validation("SpeechGateway.Synthesize", "text must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxTextLength {
		return nil, apperr.Validation("SpeechGateway.Synthesize", fmt.Sprintf("text exceeds %d characters", MaxTextLength))
	}

	if _, err := exec.LookPath(g.binaryPath); err != nil {
		return nil, apperr.Unavailable("SpeechGateway.Synthesize", "synthesizer binary not found", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, SynthesisTimeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, g.binaryPath,
		"--model", g.modelPath,
		"--output_file", "-",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, apperr.Internal("SpeechGateway.Synthesize", err)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, apperr.Unavailable("SpeechGateway.Synthesize", "failed to start synthesizer", err)
	}

	writeErrCh := make(chan error, 1)
	go func() {
		_, err := stdin.Write([]byte(trimmed))
		closeErr := stdin.Close()
		if err != nil {
			writeErrCh <- err
			return
		}
		writeErrCh <- closeErr
	}()

	waitErrCh := make(chan error, 1)
	go func() { waitErrCh <- cmd.Wait() }()

	select {
	case <-timeoutCtx.Done():
		_ = cmd.Process.Kill()
		<-waitErrCh
		g.log.Warn("synthesis timed out", "stderr", stderr.String())
		return nil, apperr.Unavailable("SpeechGateway.Synthesize", "synthesizer timed out", timeoutCtx.Err())
	case werr := <-waitErrCh:
		if writeErr := <-writeErrCh; writeErr != nil {
			g.log.Warn("failed writing text to synthesizer stdin", "error", writeErr)
		}
		if werr != nil {
			g.log.Warn("synthesizer exited with error", "error", werr, "stderr", stderr.String())
			return nil, apperr.Unavailable("SpeechGateway.Synthesize", "synthesizer failed", werr)
		}
		if stderr.Len() > 0 {
			g.log.Debug("synthesizer stderr", "stderr", stderr.String())
		}
		return stdout.Bytes(), nil
	}
}
