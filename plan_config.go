// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodePlan reads YAML (or JSON) plan document and validates it.
// Unknown fields are rejected to catch typos in hand-written plans.
func DecodePlan(r io.Reader) (Plan, error) {
	if r == nil {
		return Plan{}, ErrNilReader
	}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Plan{}, fmt.Errorf("%w: empty plan document", ErrInvalidPlan)
		}

		return Plan{}, fmt.Errorf("%w: decode: %w", ErrInvalidPlan, err)
	}

	if err := p.Validate(); err != nil {
		return Plan{}, err
	}

	return p, nil
}

// LoadPlan reads plan document from file.
func LoadPlan(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, fmt.Errorf("open plan: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodePlan(f)
}

// EncodePlan writes plan as YAML document.
func EncodePlan(w io.Writer, p Plan) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	return enc.Close()
}
