// Package cli holds the input plumbing shared by the JSON tools.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meenmo/fixedincome/config"
	"github.com/meenmo/fixedincome/logger"
)

var ErrEmptyInput = errors.New("empty input")

// ReadInput reads path, or stdin when path is empty.
func ReadInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// IsTerminal reports whether r is an interactive terminal, in which case
// the tools print usage instead of blocking on stdin.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	return err == nil && (stat.Mode()&os.ModeCharDevice) != 0
}

// ParseInputs decodes a JSON object or a non-empty array of objects.
func ParseInputs[T any](raw []byte) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, ErrEmptyInput
	}
	if trimmed[0] == '[' {
		var inputs []T
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("%w array", ErrEmptyInput)
		}
		return inputs, true, nil
	}
	var input T
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []T{input}, false, nil
}

// WriteOutputs prints the array, or its only element when the input was an
// object.
func WriteOutputs[T any](w io.Writer, outputs []T, isArray bool) {
	var b []byte
	if isArray {
		b, _ = json.Marshal(outputs)
	} else {
		b, _ = json.Marshal(outputs[0])
	}
	fmt.Fprintln(w, string(b))
}

// WriteError prints {"error": msg} and returns the failure exit code.
func WriteError(w io.Writer, msg string) int {
	b, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
	fmt.Fprintln(w, string(b))
	return 1
}

// TaskID keeps a caller supplied id or assigns a fresh one.
func TaskID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Setup loads the YAML config at path (defaults when empty) and builds the
// logger it describes.
func Setup(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
