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

package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

type Prompt interface {
	String() string
}

type FilePrompt struct {
	Type PromptType `json:"type" yaml:"type"`
	Path string     `json:"path" yaml:"path"`
	Data any        `json:"data" yaml:"data"`
	text string
}

type PromptType string

const (
	PromptTypePlainText  PromptType = "text"
	PromptTypeDummy      PromptType = "dummy"
	PromptTypeGoTemplate PromptType = "go-template"
)

func (p *FilePrompt) String() string {
	return p.text
}

// NewFilePrompt loads a prompt from disk, rendering it once when it is a template.
func NewFilePrompt(c *FilePrompt) (Prompt, error) {
	switch c.Type {
	case PromptTypePlainText:
		bs, err := os.ReadFile(c.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "read prompt %s", c.Path)
		}
		c.text = string(bs)
		return c, nil
	case PromptTypeDummy:
		return TextPrompt(""), nil
	case PromptTypeGoTemplate:
		tpl, err := template.ParseFiles(c.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "parse prompt %s", c.Path)
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, c.Data); err != nil {
			return nil, errors.Wrapf(err, "render prompt %s", c.Path)
		}
		c.text = buf.String()
		return c, nil
	default:
		return nil, errors.Errorf("unsupported prompt type %q", c.Type)
	}
}

type TextPrompt string

func (p TextPrompt) String() string {
	return string(p)
}

func NewTextPrompt(content string) Prompt {
	return TextPrompt(content)
}

//go:embed stock_agent.md
var PromptStockAgent string

//go:embed analysis.tmpl
var analysisTemplate string

var analysisTpl = template.Must(template.New("analysis").Parse(analysisTemplate))

// AnalysisData feeds the analysis prompt.
type AnalysisData struct {
	ProcessedData  any
	Summary        string
	ProcessingTime float64
	DataSize       float64
}

// RenderAnalysis renders the analysis prompt. The processed data is embedded
// as JSON indented by two spaces, so identical inputs give identical prompts.
func RenderAnalysis(d AnalysisData) (string, error) {
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.ProcessedData); err != nil {
		return "", errors.Wrap(err, "marshal processed data")
	}
	var buf bytes.Buffer
	err := analysisTpl.Execute(&buf, struct {
		Data           string
		Summary        string
		ProcessingTime string
		DataSize       string
	}{
		Data:           strings.TrimSuffix(data.String(), "\n"),
		Summary:        d.Summary,
		ProcessingTime: formatNumber(d.ProcessingTime),
		DataSize:       formatNumber(d.DataSize),
	})
	if err != nil {
		return "", errors.Wrap(err, "render analysis prompt")
	}
	return buf.String(), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
