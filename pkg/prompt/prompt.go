// Package prompt manages the chat prompt templates used for testing
// and question generation. Defaults are embedded; a template directory
// can override them per key with a `<key>.json` file.
package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template keys.
const (
	KeyTesting            = "testing"
	KeyQuestionGeneration = "question_generation"
)

// Template is one chat prompt: a system message and a user message
// with `{context}`, `{question}`, `{choices}`, and `{question_type}`
// placeholders substituted literally. Constraints are advisory notes
// carried alongside custom templates; they are not sent to the model.
type Template struct {
	System      string   `json:"system"`
	User        string   `json:"user"`
	Constraints []string `json:"constraints,omitempty"`
}

// Validate checks the required fields of a loaded template.
func (t *Template) Validate() error {
	if t.System == "" {
		return fmt.Errorf("template missing required field: system")
	}
	if t.User == "" {
		return fmt.Errorf("template missing required field: user")
	}
	return nil
}

var defaults = map[string]Template{
	KeyTesting: {
		System: "你是一位专业的阅读理解专家。请仔细阅读提供的文本内容，" +
			"并根据文本内容准确回答问题。你的回答必须基于文本内容，不要编造信息。",
		User: "请阅读以下文本：\n\n" +
			"{context}\n\n" +
			"---\n\n" +
			"问题：{question}\n\n" +
			"选项：\n" +
			"{choices}\n\n" +
			"请根据文本内容选择正确答案。\n" +
			"要求：\n" +
			"1. 仔细阅读文本，确保答案准确\n" +
			"2. 对于单选题，选择一个最符合文本内容的选项\n" +
			"3. 对于多选题，选择所有符合文本内容的选项\n" +
			"4. 必须以JSON格式输出答案，格式如下：\n" +
			"{\"answer\": [\"a\"]}\n\n" +
			"请直接输出JSON格式的答案，不要添加任何其他说明文字。",
	},
	KeyQuestionGeneration: {
		System: "你是一位专业的测试题目设计专家，擅长根据文本内容创建高质量的测试问题。" +
			"你需要根据提供的上下文生成结构化的测试题目。",
		User: "请基于以下文本内容生成一个测试题目：\n\n" +
			"{context}\n\n" +
			"要求：\n" +
			"1. 生成一个{question_type}类型的问题\n" +
			"2. 问题应该测试对文本细节的理解和记忆\n" +
			"3. 对于单选题(single_choice)，提供4个选项，其中1个正确答案和3个干扰项\n" +
			"4. 对于多选题(multiple_choice)，提供4个选项，其中至少2个正确答案和至少2个干扰项\n" +
			"5. 干扰项应该具有迷惑性，但不能是正确答案\n" +
			"6. 必须以JSON格式输出，格式如下：\n" +
			"{\n" +
			"  \"question\": \"问题文本\",\n" +
			"  \"question_type\": \"single_choice或multiple_choice\",\n" +
			"  \"choice\": {\"a\": \"选项A\", \"b\": \"选项B\", \"c\": \"选项C\", \"d\": \"选项D\"},\n" +
			"  \"answer\": [\"a\"]\n" +
			"}\n\n" +
			"请直接输出JSON，不要添加任何其他说明文字。",
	},
}

// Manager resolves templates by key, preferring files from its
// template directory over the embedded defaults.
type Manager struct {
	templates map[string]Template
}

// NewManager loads templates, overriding defaults with any
// `<key>.json` found under dir. A missing directory is fine; a file
// that fails to load or validate logs a warning and falls back to the
// default for that key.
func NewManager(dir string) *Manager {
	m := &Manager{templates: make(map[string]Template, len(defaults))}
	for key, tpl := range defaults {
		m.templates[key] = tpl
	}
	if dir == "" {
		return m
	}

	for key := range defaults {
		path := filepath.Join(dir, key+".json")
		tpl, err := loadTemplateFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("Failed to load prompt template, using default",
					"path", path,
					"error", err)
			}
			continue
		}
		m.templates[key] = *tpl
		slog.Debug("Loaded custom prompt template", "key", key, "path", path)
	}
	return m
}

func loadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Template returns the resolved template for a key.
func (m *Manager) Template(key string) (Template, bool) {
	tpl, ok := m.templates[key]
	return tpl, ok
}

// Testing renders the testing prompt for one question. Satisfies the
// pipeline's Prompter boundary.
func (m *Manager) Testing(contextText, questionText string, choices map[string]string) (string, string) {
	tpl := m.templates[KeyTesting]
	user := strings.NewReplacer(
		"{context}", contextText,
		"{question}", questionText,
		"{choices}", FormatChoices(choices),
	).Replace(tpl.User)
	return tpl.System, user
}

// QuestionGeneration renders the generation prompt for a source
// excerpt and a target question kind.
func (m *Manager) QuestionGeneration(contextText, questionType string) (string, string) {
	tpl := m.templates[KeyQuestionGeneration]
	user := strings.NewReplacer(
		"{context}", contextText,
		"{question_type}", questionType,
	).Replace(tpl.User)
	return tpl.System, user
}

// FormatChoices renders choices as "k. text" lines sorted by key so
// prompts are stable across runs.
func FormatChoices(choices map[string]string) string {
	keys := make([]string, 0, len(choices))
	for key := range choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, key := range keys {
		lines[i] = fmt.Sprintf("%s. %s", key, choices[key])
	}
	return strings.Join(lines, "\n")
}
