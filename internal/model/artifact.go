package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadScaler reads a scaler artifact written by SaveScaler.
func LoadScaler(path string) (*Scaler, error) {
	var s Scaler
	if err := readJSON(path, &s); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", path, err)
	}
	return &s, nil
}

// LoadEnsemble reads a model artifact written by SaveEnsemble.
func LoadEnsemble(path string) (*Ensemble, error) {
	var e Ensemble
	if err := readJSON(path, &e); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return &e, nil
}

// SaveScaler writes the scaler to path atomically.
func SaveScaler(path string, s *Scaler) error {
	if err := writeJSON(path, s); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	return nil
}

// SaveEnsemble writes the model to path atomically.
func SaveEnsemble(path string, e *Ensemble) error {
	if err := writeJSON(path, e); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON writes to a temp file in the target directory and renames it
// into place, so a reader never sees a partial artifact.
func writeJSON(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
