package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Marshal serializes a layout to indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal decodes and validates a layout.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that every active index and link refers to an existing cell.
func (l Layout) Validate() error {
	for i, r := range l.Rows {
		if r.Active < 0 || r.Active >= len(r.Cells) {
			return fmt.Errorf("row %d: active cell %d out of range", i, r.Active)
		}
		if r.Cells[r.Active] != r.ID {
			return fmt.Errorf("row %d: active cell does not hold %s", i, r.ID)
		}
		for _, p := range r.TopLinks {
			if i == 0 || p[0] < 0 || p[0] >= len(l.Rows[i-1].Cells) || p[1] < 0 || p[1] >= len(r.Cells) {
				return fmt.Errorf("row %d: top link %v out of range", i, p)
			}
		}
		for _, p := range r.BotLinks {
			if i+1 == len(l.Rows) || p[0] < 0 || p[0] >= len(r.Cells) || p[1] < 0 || p[1] >= len(l.Rows[i+1].Cells) {
				return fmt.Errorf("row %d: bottom link %v out of range", i, p)
			}
		}
	}
	return nil
}

// Write encodes a layout as indented JSON followed by a newline.
func Write(w io.Writer, l Layout) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes and validates a layout.
func Read(r io.Reader) (Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return Unmarshal(data)
}

// ReadFile reads a layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
