// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"fmt"
)

// AssignError explains why one schema does not fit another.
type AssignError struct {
	Path   string
	From   string
	To     string
	Reason string
}

func (e *AssignError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("at %s: %s is not assignable to %s", e.Path, e.From, e.To)
}

// Assignable reports whether every value described by from is accepted by to.
// It returns nil when compatible and an *AssignError for the first conflict.
//
// Any is assignable to everything: what it produces cannot be known until
// run time, where Validate catches it.
func Assignable(from, to *Schema) error {
	return assignable("$", from, to)
}

func assignable(path string, from, to *Schema) error {
	if to.IsAny() || from.IsAny() {
		return nil
	}
	if from.Kind != to.Kind {
		return &AssignError{Path: path, From: from.String(), To: to.String()}
	}
	switch to.Kind {
	case KindObject:
		for _, tf := range to.Fields {
			fp := fieldPath(path, tf.Name)
			ff, ok := from.Field(tf.Name)
			if !ok {
				if tf.Optional {
					continue
				}
				return &AssignError{Path: fp, From: from.String(), To: to.String(),
					Reason: fmt.Sprintf("required field %q is not produced", tf.Name)}
			}
			if ff.Optional && !tf.Optional {
				return &AssignError{Path: fp, From: from.String(), To: to.String(),
					Reason: fmt.Sprintf("field %q is optional but required downstream", tf.Name)}
			}
			if err := assignable(fp, ff.Schema, tf.Schema); err != nil {
				return err
			}
		}
	case KindArray:
		return assignable(path+"[]", from.Elem, to.Elem)
	}
	return nil
}
