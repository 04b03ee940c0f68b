// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/hmod

package hmod

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// excludeMatcher holds compiled deny-list rules for subtree copies.
type excludeMatcher struct {
	matcher *pathrules.Matcher
}

// newExcludeMatcher compiles exclude patterns; nil matcher means nothing is excluded.
func newExcludeMatcher(patterns []string) (*excludeMatcher, error) {
	rules := excludeRules(patterns)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionInclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: compile exclude rules: %w", ErrInvalidPlan, err)
	}

	return &excludeMatcher{matcher: matcher}, nil
}

// excludeRules converts raw patterns to exclude rules and drops empty patterns.
func excludeRules(patterns []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = normalizePathForMatching(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionExclude,
			Pattern: pattern,
		})
	}

	return rules
}

// Excluded reports whether subtree-relative path is dropped by rules.
func (m *excludeMatcher) Excluded(rel string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(rel)
	if candidate == "" {
		return false
	}

	return !m.matcher.Included(candidate, isDir)
}
