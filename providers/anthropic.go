package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// MessagesPath is appended to the base URL of every request
const MessagesPath = "/v1/messages"

// Role of a message author
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Tool describes a capability the server may ask the client to invoke
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is the JSON Schema object a tool accepts
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property is a single schema property
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ToolChoice directs the server toward tool use; Type "tool" forces Name
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// ForceTool returns a ToolChoice that makes the server call the named tool
func ForceTool(name string) *ToolChoice {
	return &ToolChoice{Type: "tool", Name: name}
}

// Message is a conversation turn; content is Text when Blocks is nil
type Message struct {
	Role   Role
	Text   string
	Blocks []ContentBlock
}

// UserText returns a user message with plain string content
func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.Blocks == nil {
		return json.Marshal(struct {
			Role    Role   `json:"role"`
			Content string `json:"content"`
		}{m.Role, m.Text})
	}
	return json.Marshal(struct {
		Role    Role           `json:"role"`
		Content []ContentBlock `json:"content"`
	}{m.Role, m.Blocks})
}

// MessageRequest is the body of POST /v1/messages
type MessageRequest struct {
	Model      string      `json:"model"`
	MaxTokens  int         `json:"max_tokens"`
	Stream     bool        `json:"stream"`
	Tools      []Tool      `json:"tools,omitempty"`
	ToolChoice *ToolChoice `json:"tool_choice,omitempty"`
	Messages   []Message   `json:"messages"`
}

// MessageResponse is the decoded response envelope.
// Raw holds the body as received, for operator previews.
type MessageResponse struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role,omitempty"`
	Model   string `json:"model,omitempty"`
	Content Blocks `json:"content"`

	Raw json.RawMessage `json:"-"`
}

// Client sends messages requests to one endpoint
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for baseURL; each Send waits at most timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// URL returns the messages endpoint this client posts to
func (c *Client) URL() string {
	return c.baseURL + MessagesPath
}

// Send posts the request once and decodes the reply.
// Failures are *TransportError, *TimeoutError or *MalformedResponseError, returned unwrapped.
func (c *Client) Send(ctx context.Context, request MessageRequest) (*MessageResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, serr.Wrap(err, "failed to marshal request")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(requestBody))
	if err != nil {
		return nil, serr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Messages request", "url", c.URL(), "model", request.Model, "body", string(requestBody))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}

	var response MessageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &MalformedResponseError{Body: string(body), Err: err}
	}
	response.Raw = body

	logger.Debug("Messages response", "status", resp.Status, "blocks", len(response.Content))
	return &response, nil
}

// classify maps a failed exchange to TimeoutError or TransportError
func (c *Client) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: c.timeout.String(), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Timeout: c.timeout.String(), Err: err}
	}
	return &TransportError{Err: err}
}
