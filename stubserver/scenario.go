package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rohanthewiz/serr"
	"toolcheck/providers"
)

// Scenario selects how the stub answers the two halves of a round trip
type Scenario string

const (
	ScenarioHappy     Scenario = "happy"
	ScenarioNoToolUse Scenario = "no-tool-use"
	ScenarioMissingID Scenario = "missing-id"
	ScenarioHTTPError Scenario = "http-error"
	ScenarioNoText    Scenario = "no-text"
)

var scenarioNotes = map[Scenario]string{
	ScenarioHappy:     "tool_use with a fresh id, then a text answer",
	ScenarioNoToolUse: "text instead of tool_use",
	ScenarioMissingID: "tool_use with an empty id",
	ScenarioHTTPError: "HTTP 500 on the first request",
	ScenarioNoText:    "tool_use, then an empty content list",
}

// Scenarios lists the known scenarios in name order
func Scenarios() []Scenario {
	out := make([]Scenario, 0, len(scenarioNotes))
	for sc := range scenarioNotes {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseScenario validates a scenario name
func ParseScenario(name string) (Scenario, error) {
	sc := Scenario(name)
	if _, ok := scenarioNotes[sc]; !ok {
		return "", serr.New(fmt.Sprintf("unknown scenario %q (want one of %v)", name, Scenarios()))
	}
	return sc, nil
}

// reply is a complete HTTP answer
type reply struct {
	status      int
	contentType string
	body        []byte
}

// Stub answers messages requests for one scenario
type Stub struct {
	scenario Scenario
	newID    func() string
	stopping func() bool // set when a shutdown service is wired in

	mu     sync.Mutex
	served int
}

func NewStub(scenario Scenario) *Stub {
	return &Stub{
		scenario: scenario,
		newID:    uuid.NewString,
	}
}

// Served returns how many messages requests have been answered
func (st *Stub) Served() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.served
}

// incomingRequest is the part of a messages request the stub looks at
type incomingRequest struct {
	Model      string                `json:"model"`
	Tools      []providers.Tool      `json:"tools"`
	ToolChoice *providers.ToolChoice `json:"tool_choice"`
	Messages   []incomingMessage     `json:"messages"`
}

type incomingMessage struct {
	Role    providers.Role  `json:"role"`
	Content json.RawMessage `json:"content"`
}

// blocks decodes array content; string content has no blocks
func (m incomingMessage) blocks() (providers.Blocks, error) {
	var text string
	if err := json.Unmarshal(m.Content, &text); err == nil {
		return nil, nil
	}
	var bs providers.Blocks
	if err := json.Unmarshal(m.Content, &bs); err != nil {
		return nil, err
	}
	return bs, nil
}

// Reply builds the answer to one POST /v1/messages body
func (st *Stub) Reply(body []byte) reply {
	st.mu.Lock()
	st.served++
	st.mu.Unlock()

	if st.stopping != nil && st.stopping() {
		return errorReply(http.StatusServiceUnavailable, "overloaded_error", "stub server is shutting down")
	}

	var req incomingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorReply(http.StatusBadRequest, "invalid_request_error", "Invalid JSON body")
	}
	if len(req.Messages) == 0 {
		return errorReply(http.StatusBadRequest, "invalid_request_error", "messages: at least one message is required")
	}

	result, err := st.toolResult(req.Messages)
	if err != nil {
		return errorReply(http.StatusBadRequest, "invalid_request_error", err.Error())
	}
	if result == nil {
		return st.firstReply(req)
	}
	return st.secondReply(req, *result)
}

// toolResult finds the tool_result closing the conversation, checking it answers the assistant's tool_use
func (st *Stub) toolResult(msgs []incomingMessage) (*providers.ToolResultBlock, error) {
	last, err := msgs[len(msgs)-1].blocks()
	if err != nil {
		return nil, serr.Wrap(err, "messages")
	}

	var result *providers.ToolResultBlock
	for _, block := range last {
		if b, ok := block.(providers.ToolResultBlock); ok {
			result = &b
			break
		}
	}
	if result == nil {
		return nil, nil
	}

	for _, msg := range msgs[:len(msgs)-1] {
		if msg.Role != providers.RoleAssistant {
			continue
		}
		blocks, err := msg.blocks()
		if err != nil {
			return nil, serr.Wrap(err, "messages")
		}
		if toolUse, ok := providers.FirstToolUse(blocks); ok && toolUse.ID == result.ToolUseID {
			return result, nil
		}
	}
	return nil, serr.New(fmt.Sprintf("tool_result block references unknown tool_use id %q", result.ToolUseID))
}

func (st *Stub) firstReply(req incomingRequest) reply {
	toolName := "get_weather"
	if req.ToolChoice != nil && req.ToolChoice.Name != "" {
		toolName = req.ToolChoice.Name
	} else if len(req.Tools) > 0 {
		toolName = req.Tools[0].Name
	}
	toolUse := providers.ToolUseBlock{
		ID:    "toolu_" + st.newID(),
		Name:  toolName,
		Input: json.RawMessage(`{"location":"Seoul"}`),
	}

	switch st.scenario {
	case ScenarioHTTPError:
		return reply{status: http.StatusInternalServerError, contentType: "text/plain", body: []byte("internal error")}
	case ScenarioNoToolUse:
		return st.message(req.Model, "end_turn", providers.TextBlock{Text: "I don't know."})
	case ScenarioMissingID:
		toolUse.ID = ""
		toolUse.Input = json.RawMessage(`{}`)
	}
	return st.message(req.Model, "tool_use", toolUse)
}

func (st *Stub) secondReply(req incomingRequest, result providers.ToolResultBlock) reply {
	if st.scenario == ScenarioNoText {
		return st.message(req.Model, "end_turn")
	}
	return st.message(req.Model, "end_turn",
		providers.TextBlock{Text: fmt.Sprintf("The weather tool reports: %s", result.Content)})
}

func (st *Stub) message(model, stopReason string, blocks ...providers.ContentBlock) reply {
	if blocks == nil {
		blocks = []providers.ContentBlock{}
	}
	return jsonReply(http.StatusOK, map[string]any{
		"id":          "msg_" + st.newID(),
		"type":        "message",
		"role":        providers.RoleAssistant,
		"model":       model,
		"content":     blocks,
		"stop_reason": stopReason,
	})
}

// errorReply uses the Anthropic error envelope
func errorReply(status int, errType, message string) reply {
	return jsonReply(status, map[string]any{
		"type": "error",
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}

func jsonReply(status int, v any) reply {
	body, err := json.Marshal(v)
	if err != nil {
		return reply{status: http.StatusInternalServerError, contentType: "text/plain", body: []byte(err.Error())}
	}
	return reply{status: status, contentType: "application/json", body: body}
}
