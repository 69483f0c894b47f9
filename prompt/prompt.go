// Package prompt produces the initial system message of a conversation, either
// from a static string or by rendering a named template.
package prompt

import (
	"github.com/hupe1980/lmflux/core"
)

// DefaultSystemPrompt is used when a system prompt is created with empty content.
const DefaultSystemPrompt = "You are a helpful assistant."

// Prompt produces the message that seeds a conversation.
type Prompt interface {
	Message(vars map[string]any) (core.Message, error)
}

// TemplateProvider renders a template id with a variable mapping. It is the
// only contract prompts have with template storage.
type TemplateProvider interface {
	Render(id string, vars map[string]any) (string, error)
}

// SystemPrompt is a static prompt.
type SystemPrompt struct {
	Content string
	Role    core.Role
}

// System creates a static system prompt. Empty content falls back to DefaultSystemPrompt.
func System(content string) *SystemPrompt {
	if content == "" {
		content = DefaultSystemPrompt
	}
	return &SystemPrompt{Content: content, Role: core.RoleSystem}
}

// Message implements Prompt. vars are ignored.
func (p *SystemPrompt) Message(map[string]any) (core.Message, error) {
	return core.NewMessage(p.Role, p.Content), nil
}

// TemplatedPrompt renders its content through a TemplateProvider.
type TemplatedPrompt struct {
	TemplateID string
	Role       core.Role
	Provider   TemplateProvider
	// Vars are merged below the vars passed to Message.
	Vars map[string]any
}

// Templated creates a prompt rendered from templateID. An empty role defaults to system.
func Templated(templateID string, role core.Role, provider TemplateProvider) *TemplatedPrompt {
	if role == "" {
		role = core.RoleSystem
	}
	return &TemplatedPrompt{TemplateID: templateID, Role: role, Provider: provider}
}

// With returns a copy of p carrying default vars.
func (p *TemplatedPrompt) With(vars map[string]any) *TemplatedPrompt {
	cp := *p
	cp.Vars = vars
	return &cp
}

// Message implements Prompt.
func (p *TemplatedPrompt) Message(vars map[string]any) (core.Message, error) {
	merged := make(map[string]any, len(p.Vars)+len(vars))
	for k, v := range p.Vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	content, err := p.Provider.Render(p.TemplateID, merged)
	if err != nil {
		return core.Message{}, err
	}
	return core.NewMessage(p.Role, content), nil
}
