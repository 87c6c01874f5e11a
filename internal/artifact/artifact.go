// Package artifact writes and reads the board file consumed by the static
// page generator.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"inkboard.dev/board/internal/appconf"
	"inkboard.dev/board/internal/models"
)

const (
	jsPrefix = "window.trainsData = "
	jsSuffix = ";"
)

// ErrUnknownFormat is returned for formats other than js and json.
var ErrUnknownFormat = errors.New("unknown artifact format")

// Encode renders board in the given format.
func Encode(board models.Board, format string) ([]byte, error) {
	if board.Departures == nil {
		board.Departures = []models.Departure{}
	}
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("marshal board: %w", err)
	}

	switch format {
	case appconf.FormatJSON:
		return append(data, '\n'), nil
	case appconf.FormatJS:
		out := make([]byte, 0, len(jsPrefix)+len(data)+len(jsSuffix))
		out = append(out, jsPrefix...)
		out = append(out, data...)
		return append(out, jsSuffix...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decode accepts either format.
func Decode(data []byte) (models.Board, error) {
	data = bytes.TrimSpace(data)
	if rest, ok := bytes.CutPrefix(data, []byte(jsPrefix)); ok {
		data = bytes.TrimSpace(bytes.TrimSuffix(rest, []byte(jsSuffix)))
	}

	var board models.Board
	if err := json.Unmarshal(data, &board); err != nil {
		return models.Board{}, fmt.Errorf("unmarshal board: %w", err)
	}
	return board, nil
}

// Write replaces the file at path with board. The new content is written to a
// temporary file in the same directory and renamed over the target, so
// readers see either the old or the new board.
func Write(path string, board models.Board, format string) error {
	data, err := Encode(board, format)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Read loads the board at path.
func Read(path string) (models.Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Board{}, err
	}
	board, err := Decode(data)
	if err != nil {
		return models.Board{}, fmt.Errorf("%s: %w", path, err)
	}
	return board, nil
}
