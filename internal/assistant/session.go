// Package assistant runs the widget session engine: the visible transcript,
// the contact flow, and the gate + executor pipeline for model-proposed tool
// calls.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/chat"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/llm"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/mail"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

// Role is a transcript entry role. action and error are synthetic roles used
// to render tool outcomes and failures; they are never sent back upstream as
// conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleAction    Role = "action"
	RoleError     Role = "error"
)

// Message is one client-visible transcript entry.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Responder produces a model reply for a normalized conversation. Satisfied
// by *chat.Orchestrator.
type Responder interface {
	Respond(ctx context.Context, cfg *config.Config, messages []llm.Message) (*chat.Reply, *chat.ErrorReply)
}

// Gate decides whether a model-proposed tool call may execute.
type Gate func(utterance string, call tool.Call) bool

// Session is one widget conversation. Transcript state lives only in memory
// for the lifetime of the connection; nothing survives a page load.
type Session struct {
	ID       string
	SiteName string

	mu         sync.Mutex
	transcript []Message
	flow       ContactFlow
	responder  Responder
	executor   *tool.Executor
	gate       Gate
	cfg        func() *config.Config
	lastActive time.Time
}

type SessionParams struct {
	ID        string
	SiteName  string
	Responder Responder
	Executor  *tool.Executor
	Gate      Gate
	Config    func() *config.Config
}

func NewSession(params SessionParams) *Session {
	if params.Gate == nil {
		params.Gate = tool.ShouldExecute
	}
	if params.Config == nil {
		params.Config = config.Get
	}
	s := &Session{
		ID:         params.ID,
		SiteName:   params.SiteName,
		responder:  params.Responder,
		executor:   params.Executor,
		gate:       params.Gate,
		cfg:        params.Config,
		lastActive: time.Now(),
	}
	s.transcript = append(s.transcript, newMessage(RoleAssistant,
		fmt.Sprintf("Hi, I am %s's AI assistant. Ask me about services, process, or contact.", s.SiteName)))
	return s
}

func newMessage(role Role, content string) Message {
	return Message{ID: uuid.NewString(), Role: role, Content: content}
}

// BindCapabilities reattaches the session's side effects to a new client
// connection, used when a widget reconnects with an existing session ID.
func (s *Session) BindCapabilities(caps tool.Capabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executor.Caps = caps
}

// Transcript returns a copy of the full transcript.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// LastActive returns the time of the most recent turn.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// HandleTurn processes one user utterance and returns the transcript entries
// appended by it, in order. The contact flow takes precedence over normal
// chat dispatch: while it is active, input is first tested against the
// cancel, knowledge, and schedule escape hatches before being treated as an
// answer to the current step.
func (s *Session) HandleTurn(ctx context.Context, text string) []Message {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	history := s.conversationLocked()
	appended := len(s.transcript)
	s.pushLocked(RoleUser, text)

	if s.flow.Active() {
		s.handleFlowTurnLocked(ctx, text, history)
		return s.transcript[appended:]
	}

	if DetectContactIntent(text) {
		s.startContactFlowLocked()
		return s.transcript[appended:]
	}

	s.dispatchLocked(ctx, text, history)
	return s.transcript[appended:]
}

// QuickAction runs one of the widget's shortcut buttons.
func (s *Session) QuickAction(ctx context.Context, action string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()

	history := s.conversationLocked()
	appended := len(s.transcript)

	switch action {
	case "schedule":
		s.pushLocked(RoleUser, "Schedule a meeting")
		s.executeScheduleLocked(ctx)
	case "contact":
		s.pushLocked(RoleUser, fmt.Sprintf("I want to contact %s", s.SiteName))
		s.startContactFlowLocked()
	case "overview":
		s.pushLocked(RoleUser, fmt.Sprintf("Learn about %s", s.SiteName))
		prompt := fmt.Sprintf("Tell me about %s's services, process, and technical strengths.", s.SiteName)
		s.dispatchLocked(ctx, prompt, history)
	default:
		s.pushLocked(RoleError, fmt.Sprintf("Unknown quick action %q.", action))
	}

	return s.transcript[appended:]
}

func (s *Session) handleFlowTurnLocked(ctx context.Context, text string, history []llm.Message) {
	if DetectCancelIntent(text) {
		s.flow.Reset()
		s.pushLocked(RoleAssistant, "No problem. I cancelled contact setup. Ask me anything.")
		return
	}

	if DetectKnowledgeIntent(text) {
		s.flow.Reset()
		s.pushLocked(RoleAssistant, "Sure, I paused contact setup. Here are details on that:")
		s.dispatchLocked(ctx, text, history)
		return
	}

	if DetectScheduleIntent(text) {
		s.flow.Reset()
		s.executeScheduleLocked(ctx)
		return
	}

	s.handleFlowStepLocked(ctx, text)
}

func (s *Session) handleFlowStepLocked(ctx context.Context, text string) {
	switch s.flow.State() {
	case FlowAwaitingName:
		s.flow.draft.Name = text
		s.flow.state = FlowAwaitingEmail
		s.pushLocked(RoleAssistant, "Thanks. Please share your email address.")

	case FlowAwaitingEmail:
		email := mail.ExtractEmail(text)
		if email == "" {
			s.pushLocked(RoleAssistant, "Please enter a valid email address, or type `cancel` to stop contact setup.")
			return
		}
		s.flow.draft.Email = email
		s.flow.state = FlowAwaitingDescription
		s.pushLocked(RoleAssistant, "Got it. Briefly describe your requirement.")

	case FlowAwaitingDescription:
		draft := s.flow.draft
		draft.Description = text
		s.flow.Reset()

		from := draft.Name
		if from == "" {
			from = draft.Email
		}
		status := s.executor.Execute(ctx, tool.Call{
			Name: tool.NameSendMessage,
			Args: map[string]any{
				"name":    draft.Name,
				"email":   draft.Email,
				"subject": fmt.Sprintf("Website inquiry from %s", from),
				"message": draft.Description,
			},
		})
		s.pushLocked(RoleAction, status)
		s.pushLocked(RoleAssistant, "If useful, tap `Schedule a Meeting` to book directly.")
	}
}

func (s *Session) startContactFlowLocked() {
	s.flow.Start()
	s.pushLocked(RoleAssistant,
		fmt.Sprintf("Great, I can help you contact %s. First, what is your name?", s.SiteName))
}

func (s *Session) executeScheduleLocked(ctx context.Context) {
	draft := s.flow.Draft()
	status := s.executor.Execute(ctx, tool.Call{
		Name: tool.NameScheduleMeeting,
		Args: map[string]any{
			"name":  draft.Name,
			"email": draft.Email,
		},
	})
	s.pushLocked(RoleAction, status)
}

// dispatchLocked sends the question plus prior history to the orchestrator
// and folds the reply into the transcript. Tool calls are executed one at a
// time, in the order returned, so status messages appear in a stable order.
func (s *Session) dispatchLocked(ctx context.Context, question string, history []llm.Message) {
	conversation := append(history, llm.Message{Role: llm.RoleUser, Content: question})
	if len(conversation) > chat.MaxHistory {
		conversation = conversation[len(conversation)-chat.MaxHistory:]
	}

	reply, errReply := s.responder.Respond(ctx, s.cfg(), conversation)
	if errReply != nil {
		content := errReply.Error
		if content == "" {
			content = "Chat request failed."
		}
		s.pushLocked(RoleError, content)
		return
	}

	if reply.Text != "" {
		s.pushLocked(RoleAssistant, reply.Text)
	}

	for _, call := range reply.ToolCalls {
		if !s.gate(question, call) {
			s.pushLocked(RoleAction, fmt.Sprintf("Skipped %s: no explicit action intent detected.", call.Name))
			continue
		}
		status := s.executor.Execute(ctx, call)
		s.pushLocked(RoleAction, status)
	}

	if reply.Text == "" && len(reply.ToolCalls) == 0 {
		s.pushLocked(RoleAssistant, "I did not get enough context to respond. Try rephrasing your request.")
	}
}

// conversationLocked builds the upstream history: user and assistant entries
// only, capped at the orchestrator's window.
func (s *Session) conversationLocked() []llm.Message {
	var history []llm.Message
	for _, msg := range s.transcript {
		switch msg.Role {
		case RoleUser:
			history = append(history, llm.Message{Role: llm.RoleUser, Content: msg.Content})
		case RoleAssistant:
			history = append(history, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
		}
	}
	if len(history) > chat.MaxHistory {
		history = history[len(history)-chat.MaxHistory:]
	}
	return history
}

func (s *Session) pushLocked(role Role, content string) {
	s.transcript = append(s.transcript, newMessage(role, content))
}
