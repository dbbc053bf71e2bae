/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"errors"
	"fmt"
)

// Sentinel errors for the planner package.
// Use errors.Is to check: errors.Is(err, planner.ErrInvalidWindow)
var (
	ErrNoTopics        = errors.New("planner: no topics to schedule")
	ErrInvalidDeadline = errors.New("planner: deadline must not be before today")
	ErrInvalidWindow   = errors.New("planner: daily start must be before daily end")
	ErrInvalidDuration = errors.New("planner: session duration must be positive and fit the daily window")
)

// ValidationError reports a request field the planner cannot work with.
type ValidationError struct {
	Field string
	Code  string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Warning is a soft validation outcome shown to the user instead of a schedule.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Warning codes.
const (
	WarningNoTopics = "no_topics"
)

// NoTopicsWarning is emitted when the topic list is empty after cleaning.
func NoTopicsWarning() Warning {
	return Warning{
		Code:    WarningNoTopics,
		Message: "Merci d'entrer au moins un sujet.",
	}
}
