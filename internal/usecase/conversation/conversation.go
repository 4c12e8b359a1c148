// Package conversation keeps the ordered message history a run replays to
// the model on every step.
package conversation

import (
	"fmt"

	"form-agent/internal/domain/entity"
	"form-agent/internal/infrastructure/prompts"
)

// Conversation is append-only and owned by a single run; it is not safe for
// concurrent use.
type Conversation struct {
	objective  string
	submitName string
	messages   []entity.Message
}

// New seeds the history with the system message. An empty systemTemplate
// selects the built-in instructions.
func New(objective entity.Objective, submitName, systemTemplate string) (*Conversation, error) {
	text, err := prompts.ObjectiveText(objective)
	if err != nil {
		return nil, fmt.Errorf("render objective: %w", err)
	}

	if systemTemplate == "" {
		systemTemplate = prompts.SystemPrompt
	}
	system, err := prompts.GenerateSystemPrompt(systemTemplate, prompts.SystemPromptData{
		Objective:  text,
		SubmitName: submitName,
	})
	if err != nil {
		return nil, fmt.Errorf("generate system prompt: %w", err)
	}

	return &Conversation{
		objective:  text,
		submitName: submitName,
		messages:   []entity.Message{{Role: entity.RoleSystem, Content: system}},
	}, nil
}

// AddPerception appends the per-step user message carrying the objective
// reminder and the current snapshot.
func (c *Conversation) AddPerception(snapshot string) error {
	content, err := prompts.GeneratePerception(prompts.PerceptionData{
		Objective: c.objective,
		Snapshot:  snapshot,
	})
	if err != nil {
		return fmt.Errorf("generate perception: %w", err)
	}
	c.append(entity.RoleUser, content)
	return nil
}

// AddReply appends the raw model text, valid or not.
func (c *Conversation) AddReply(raw string) {
	c.append(entity.RoleAssistant, raw)
}

func (c *Conversation) AddCorrection(reason string) error {
	content, err := prompts.GenerateCorrection(reason)
	if err != nil {
		return fmt.Errorf("generate correction: %w", err)
	}
	c.append(entity.RoleUser, content)
	return nil
}

func (c *Conversation) AddPrematureFinish() error {
	content, err := prompts.GeneratePrematureFinish(c.submitName)
	if err != nil {
		return fmt.Errorf("generate premature finish: %w", err)
	}
	c.append(entity.RoleUser, content)
	return nil
}

// Messages returns a copy of the history in append order.
func (c *Conversation) Messages() []entity.Message {
	out := make([]entity.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

func (c *Conversation) append(role entity.MessageRole, content string) {
	c.messages = append(c.messages, entity.Message{Role: role, Content: content})
}
