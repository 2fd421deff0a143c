// Package roundtrip drives the two-request tool-calling check against a messages endpoint:
// force a tool_use, answer it with a tool_result, and expect a text reply.
package roundtrip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rohanthewiz/logger"
	"toolcheck/providers"
)

const (
	// Utterance is the user turn that opens both requests
	Utterance = "서울 날씨 알려줘."

	// SyntheticResult is the tool_result content sent in Step B
	SyntheticResult = "서울은 맑음, 11C"

	ResponsePreviewLimit = 800
	TextPreviewLimit     = 160
)

// WeatherTool is the single tool offered in Step A
var WeatherTool = providers.Tool{
	Name:        "get_weather",
	Description: "Get current weather for a city",
	InputSchema: providers.InputSchema{
		Type: "object",
		Properties: map[string]providers.Property{
			"location": {Type: "string"},
		},
		Required: []string{"location"},
	},
}

// Sender performs a single messages exchange
type Sender interface {
	Send(ctx context.Context, request providers.MessageRequest) (*providers.MessageResponse, error)
}

// Checker runs the round trip with one Sender
type Checker struct {
	sender    Sender
	model     string
	maxTokens int
	out       io.Writer
}

// NewChecker creates a Checker; verdict lines are written to out
func NewChecker(sender Sender, model string, maxTokens int, out io.Writer) *Checker {
	return &Checker{
		sender:    sender,
		model:     model,
		maxTokens: maxTokens,
		out:       out,
	}
}

// Result is what a passing run found
type Result struct {
	ToolUse providers.ToolUseBlock
	Text    string
}

// Run performs Step A then Step B. Any error ends the run; nothing is retried.
func (c *Checker) Run(ctx context.Context) (*Result, error) {
	c.printf("[1/2] requesting tool_use...\n")
	toolUse, err := c.ElicitToolUse(ctx)
	if err != nil {
		return nil, err
	}
	c.printf("tool_use detected: id=%s name=%s\n", toolUse.ID, toolUse.Name)

	c.printf("[2/2] sending tool_result...\n")
	text, err := c.CloseLoop(ctx, toolUse)
	if err != nil {
		return nil, err
	}

	c.printf("PASS: tool-calling roundtrip succeeded\n")
	c.printf("assistant text preview: %s\n", Truncate(text, TextPreviewLimit))
	return &Result{ToolUse: toolUse, Text: text}, nil
}

// ElicitToolUse sends the forced tool request and returns the first tool_use block of the reply
func (c *Checker) ElicitToolUse(ctx context.Context) (providers.ToolUseBlock, error) {
	response, err := c.sender.Send(ctx, c.FirstRequest())
	if err != nil {
		return providers.ToolUseBlock{}, err
	}

	toolUse, ok := providers.FirstToolUse(response.Content)
	if !ok {
		return providers.ToolUseBlock{}, c.fail(&ShapeError{
			Step:    StepElicit,
			Reason:  "tool_use block not found in first response",
			Preview: Preview(response.Raw, ResponsePreviewLimit),
		})
	}
	if toolUse.ID == "" {
		return providers.ToolUseBlock{}, c.fail(&ShapeError{Step: StepElicit, Reason: "tool_use id missing"})
	}

	logger.Debug("Found tool_use", "id", toolUse.ID, "name", toolUse.Name)
	return toolUse, nil
}

// CloseLoop answers toolUse with the synthetic result and returns the first text of the reply
func (c *Checker) CloseLoop(ctx context.Context, toolUse providers.ToolUseBlock) (string, error) {
	response, err := c.sender.Send(ctx, c.SecondRequest(toolUse))
	if err != nil {
		return "", err
	}

	text, ok := providers.FirstText(response.Content)
	if !ok || text.Text == "" {
		return "", c.fail(&ShapeError{
			Step:    StepCloseLoop,
			Reason:  "no text output after tool_result",
			Preview: Preview(response.Raw, ResponsePreviewLimit),
		})
	}
	return text.Text, nil
}

// FirstRequest offers WeatherTool and forces the server to call it
func (c *Checker) FirstRequest() providers.MessageRequest {
	return providers.MessageRequest{
		Model:      c.model,
		MaxTokens:  c.maxTokens,
		Stream:     false,
		Tools:      []providers.Tool{WeatherTool},
		ToolChoice: providers.ForceTool(WeatherTool.Name),
		Messages:   []providers.Message{providers.UserText(Utterance)},
	}
}

// SecondRequest replays the conversation with toolUse as the assistant turn and a matching tool_result
func (c *Checker) SecondRequest(toolUse providers.ToolUseBlock) providers.MessageRequest {
	return providers.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Stream:    false,
		Messages: []providers.Message{
			providers.UserText(Utterance),
			{Role: providers.RoleAssistant, Blocks: []providers.ContentBlock{toolUse}},
			{Role: providers.RoleUser, Blocks: []providers.ContentBlock{
				providers.ToolResultBlock{ToolUseID: toolUse.ID, Content: SyntheticResult},
			}},
		},
	}
}

// fail prints the operator-facing FAIL line and preview, then hands the error back
func (c *Checker) fail(se *ShapeError) error {
	c.printf("FAIL: %s\n", se.Reason)
	if se.Preview != "" {
		c.printf("%s\n", se.Preview)
	}
	return se
}

func (c *Checker) printf(format string, args ...any) {
	if c.out == nil {
		return
	}
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// Preview compacts a JSON body and truncates it to limit characters
func Preview(raw []byte, limit int) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Truncate(string(raw), limit)
	}
	return Truncate(buf.String(), limit)
}

// Truncate keeps at most limit runes of s
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
