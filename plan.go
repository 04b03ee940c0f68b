// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// AddCopy appends copy rules to plan.
func (p *Plan) AddCopy(source string, destination string, exclude ...string) {
	p.Copy = append(p.Copy, CopyRule{
		Source:      source,
		Destination: destination,
		Exclude:     exclude,
	})
}

// AddReplace appends a text patch with ordered substitutions for one file.
// Pairs are search, replace, search, replace... and are applied literally.
// An odd pair count makes the plan invalid; complete pairs are still added.
func (p *Plan) AddReplace(path string, pairs ...string) {
	if len(pairs)%2 != 0 {
		p.buildErrs = append(p.buildErrs, fmt.Errorf("%w: %s: search %q has no replacement",
			ErrInvalidPlan, path, pairs[len(pairs)-1]))
	}

	subs := make([]Substitution, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		subs = append(subs, Substitution{Search: pairs[i], Replace: pairs[i+1]})
	}

	p.Text = append(p.Text, TextPatch{Path: path, Substitutions: subs})
}

// Clone returns deep copy of plan.
func (p Plan) Clone() Plan {
	out := Plan{
		Copy:      make([]CopyRule, len(p.Copy)),
		Text:      make([]TextPatch, len(p.Text)),
		buildErrs: slices.Clone(p.buildErrs),
	}
	for i, rule := range p.Copy {
		rule.Exclude = slices.Clone(rule.Exclude)
		out.Copy[i] = rule
	}
	for i, patch := range p.Text {
		patch.Substitutions = slices.Clone(patch.Substitutions)
		out.Text[i] = patch
	}

	return out
}

// Validate reports the first malformed rule of the plan.
func (p Plan) Validate() error {
	_, err := p.normalize()
	return err
}

// normalize validates plan and returns copy with canonical paths.
func (p Plan) normalize() (Plan, error) {
	if err := errors.Join(p.buildErrs...); err != nil {
		return Plan{}, err
	}

	out := p.Clone()
	for i := range out.Copy {
		rule := &out.Copy[i]
		source := NormalizePath(rule.Source)
		if source == "" {
			return Plan{}, fmt.Errorf("%w: copy rule %d has empty source", ErrInvalidPlan, i)
		}

		destination, err := normalizeImagePath(rule.Destination)
		if err != nil {
			return Plan{}, fmt.Errorf("%w: copy rule %d: %w", ErrInvalidPlan, i, err)
		}

		if _, err := newExcludeMatcher(rule.Exclude); err != nil {
			return Plan{}, fmt.Errorf("copy rule %d: %w", i, err)
		}

		rule.Source = source
		rule.Destination = destination
	}

	for i := range out.Text {
		patch := &out.Text[i]
		target, err := normalizeImagePath(patch.Path)
		if err != nil {
			return Plan{}, fmt.Errorf("%w: text patch %d: %w", ErrInvalidPlan, i, err)
		}

		for j, sub := range patch.Substitutions {
			if sub.Search == "" {
				return Plan{}, fmt.Errorf("%w: %s substitution %d has empty search", ErrInvalidPlan, target, j)
			}

			if sub.Regexp {
				if _, err := regexp.Compile(sub.Search); err != nil {
					return Plan{}, fmt.Errorf("%w: %s substitution %d: %w", ErrInvalidPlan, target, j, err)
				}
			}
		}

		patch.Path = target
	}

	return out, nil
}
