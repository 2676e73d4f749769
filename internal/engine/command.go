package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"speech-scribe-go/internal/types"
)

// cmdEngine execs a helper binary that prints a JSON result on stdout.
// The command line is a space-separated template; the audio path is appended
// as the final argument.
type cmdEngine struct {
	command string
	model   string
	log     *logrus.Entry

	mu       sync.Mutex
	resolved string
}

// ensureResolved looks the binary up in PATH once and remembers the result,
// so a missing helper fails before any audio is touched.
func (e *cmdEngine) ensureResolved() (string, []string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fields := strings.Fields(e.command)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("engine command is empty")
	}
	if e.resolved == "" {
		path, err := exec.LookPath(fields[0])
		if err != nil {
			return "", nil, fmt.Errorf("engine command %q not found: %w", fields[0], err)
		}
		e.resolved = path
		e.log.WithField("command", path).Info("engine command resolved")
	}
	return e.resolved, fields[1:], nil
}

func (e *cmdEngine) run(ctx context.Context, audioPath string, target any) error {
	bin, args, err := e.ensureResolved()
	if err != nil {
		return err
	}
	if e.model != "" {
		args = append(args, "--model", e.model)
	}
	args = append(args, audioPath)
	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("engine command failed: %s", strings.TrimSpace(string(ee.Stderr)))
		}
		return fmt.Errorf("run engine command: %w", err)
	}
	if err := json.Unmarshal(out, target); err != nil {
		return fmt.Errorf("engine command output not valid JSON: %w", err)
	}
	return nil
}

// CommandDiarizer runs a local diarization helper that prints a JSON array
// of {start, end, speaker} intervals.
type CommandDiarizer struct {
	cmdEngine
}

func NewCommandDiarizer(command, model string, log *logrus.Entry) *CommandDiarizer {
	return &CommandDiarizer{cmdEngine{command: command, model: model, log: log.WithField("engine", "diarizer_cmd")}}
}

func (d *CommandDiarizer) Diarize(ctx context.Context, audioPath string) (types.Timeline, error) {
	var tl types.Timeline
	if err := d.run(ctx, audioPath, &tl); err != nil {
		return nil, fmt.Errorf("diarization: %w", err)
	}
	if err := tl.Validate(); err != nil {
		return nil, fmt.Errorf("diarization output: %w", err)
	}
	return tl, nil
}

// CommandTranscriber runs a local ASR helper that prints {text, words}.
type CommandTranscriber struct {
	cmdEngine
}

func NewCommandTranscriber(command, model string, log *logrus.Entry) *CommandTranscriber {
	return &CommandTranscriber{cmdEngine{command: command, model: model, log: log.WithField("engine", "transcriber_cmd")}}
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, audioPath string) (*types.ASRResult, error) {
	var res types.ASRResult
	if err := t.run(ctx, audioPath, &res); err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("transcription output: %w", err)
	}
	return &res, nil
}
