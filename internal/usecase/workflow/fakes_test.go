package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"form-agent/internal/application/port/output"
	"form-agent/internal/domain/entity"
)

// scriptedLLM replays fixed replies and records every history it was sent.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	err      error
	requests [][]entity.Message
}

func (s *scriptedLLM) Chat(_ context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req.Messages)
	if s.err != nil {
		return nil, s.err
	}

	reply := s.fallback
	if len(s.replies) > 0 {
		reply, s.replies = s.replies[0], s.replies[1:]
	}
	return &output.ChatResponse{Message: entity.Message{Role: entity.RoleAssistant, Content: reply}}, nil
}

func (s *scriptedLLM) lastRequest() []entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

// formPage is an in-memory form honouring the exact, unique label rules.
type formPage struct {
	elements   []entity.ElementDescriptor
	url        string
	closeCount int
	clicks     []string
	navErr     error
}

func newIntakePage() *formPage {
	return &formPage{elements: []entity.ElementDescriptor{
		{Tag: entity.TagHeading1, Label: "Patient Intake"},
		{Tag: entity.TagInput, Type: "text", Name: "first", Label: "First Name"},
		{Tag: entity.TagInput, Type: "text", Name: "last", Label: "Last Name"},
		{Tag: entity.TagSelect, Name: "gender", Label: "Gender"},
		{Tag: entity.TagButton, Type: "submit", Label: "Submit"},
	}}
}

func (p *formPage) Navigate(_ context.Context, url string) error {
	if p.navErr != nil {
		return p.navErr
	}
	p.url = url
	return nil
}

func (p *formPage) Elements(context.Context) ([]entity.ElementDescriptor, error) {
	if p.closeCount > 0 {
		return nil, entity.ErrSessionClosed
	}
	out := make([]entity.ElementDescriptor, len(p.elements))
	copy(out, p.elements)
	return out, nil
}

func (p *formPage) find(kind entity.ActionKind, label string, match func(entity.ElementDescriptor) bool) (int, error) {
	idx, n := -1, 0
	for i, el := range p.elements {
		if match(el) && el.Label == label {
			idx = i
			n++
		}
	}
	if n != 1 {
		return -1, &entity.ElementNotFoundError{Kind: kind, Target: label, Matches: n}
	}
	return idx, nil
}

func (p *formPage) Fill(_ context.Context, label, value string) error {
	i, err := p.find(entity.ActionFill, label, func(el entity.ElementDescriptor) bool { return el.Tag.HasValue() })
	if err != nil {
		return err
	}
	p.elements[i].Value = value
	return nil
}

func (p *formPage) Select(_ context.Context, label, option string) error {
	i, err := p.find(entity.ActionSelect, label, func(el entity.ElementDescriptor) bool { return el.Tag == entity.TagSelect })
	if err != nil {
		return err
	}
	p.elements[i].Value = option
	return nil
}

func (p *formPage) Click(_ context.Context, _, name string) error {
	if _, err := p.find(entity.ActionClick, name, func(el entity.ElementDescriptor) bool { return el.Tag == entity.TagButton }); err != nil {
		return err
	}
	p.clicks = append(p.clicks, name)
	p.url += "#submitted"
	return nil
}

func (p *formPage) Screenshot(context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (p *formPage) CurrentURL() string { return p.url }

func (p *formPage) Close() error {
	p.closeCount++
	return nil
}

func (p *formPage) value(label string) string {
	for _, el := range p.elements {
		if el.Label == label {
			return el.Value
		}
	}
	return ""
}

type fakeLauncher struct {
	page  *formPage
	err   error
	opens int
}

func (l *fakeLauncher) Open(context.Context) (output.BrowserPort, error) {
	l.opens++
	if l.err != nil {
		return nil, l.err
	}
	return l.page, nil
}

type recordingMetrics struct {
	completed []entity.CompletionReason
	failed    []error
	steps     int
	parses    int
	actions   []entity.ActionKind
}

func (m *recordingMetrics) RunCompleted(r entity.CompletionReason, _ time.Duration) {
	m.completed = append(m.completed, r)
}
func (m *recordingMetrics) RunFailed(err error, _ time.Duration) { m.failed = append(m.failed, err) }
func (m *recordingMetrics) StepStarted()                         { m.steps++ }
func (m *recordingMetrics) ParseFailed()                         { m.parses++ }
func (m *recordingMetrics) ActionDispatched(k entity.ActionKind) { m.actions = append(m.actions, k) }

var errBoom = errors.New("boom")
