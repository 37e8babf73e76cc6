/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tool

import (
	"fmt"

	etool "github.com/cloudwego/eino/components/tool"
)

type Tool = etool.BaseTool

// ErrorKind classifies a ToolError.
type ErrorKind string

const (
	// KindMissingConfig means the base URL or API key is absent; no request was sent.
	KindMissingConfig ErrorKind = "missing-config"
	// KindInvalidQuery means the query failed validation; no request was sent.
	KindInvalidQuery ErrorKind = "invalid-query"
	// KindTransport covers dial, timeout and body read failures.
	KindTransport ErrorKind = "transport-error"
	// KindRemote covers non-2xx statuses, undecodable bodies and API-level error payloads.
	KindRemote ErrorKind = "remote-error"
)

type ToolError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

func newToolError(kind ErrorKind, cause error, format string, args ...any) *ToolError {
	return &ToolError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}
