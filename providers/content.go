package providers

import (
	"encoding/json"
	"strconv"

	"github.com/rohanthewiz/serr"
)

// BlockType tags a content block on the wire
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one unit of a message payload.
// The set of implementations is closed: TextBlock, ToolUseBlock, ToolResultBlock,
// plus UnknownBlock for types this client does not interpret.
type ContentBlock interface {
	Type() BlockType
	contentBlock()
}

// TextBlock is plain text content
type TextBlock struct {
	Text string
}

// ToolUseBlock is a directive from the server to invoke a tool
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage

	// raw holds the block exactly as the server sent it
	raw json.RawMessage
}

// ToolResultBlock answers a prior tool_use, correlated by ToolUseID
type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

// UnknownBlock keeps a block of an unrecognized type
type UnknownBlock struct {
	BlockType BlockType
	Raw       json.RawMessage
}

func (TextBlock) Type() BlockType       { return BlockText }
func (ToolUseBlock) Type() BlockType    { return BlockToolUse }
func (ToolResultBlock) Type() BlockType { return BlockToolResult }
func (b UnknownBlock) Type() BlockType  { return b.BlockType }

func (TextBlock) contentBlock()       {}
func (ToolUseBlock) contentBlock()    {}
func (ToolResultBlock) contentBlock() {}
func (UnknownBlock) contentBlock()    {}

func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type BlockType `json:"type"`
		Text string    `json:"text"`
	}{BlockText, b.Text})
}

// MarshalJSON re-emits the original server bytes when the block was decoded from a response
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	if len(b.raw) > 0 {
		return b.raw, nil
	}

	input := b.Input
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return json.Marshal(struct {
		Type  BlockType       `json:"type"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	}{BlockToolUse, b.ID, b.Name, input})
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      BlockType `json:"type"`
		ToolUseID string    `json:"tool_use_id"`
		Content   string    `json:"content"`
	}{BlockToolResult, b.ToolUseID, b.Content})
}

func (b UnknownBlock) MarshalJSON() ([]byte, error) {
	return b.Raw, nil
}

// Blocks is an ordered sequence of content blocks
type Blocks []ContentBlock

// UnmarshalJSON decodes each element by its "type" tag
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return serr.Wrap(err, "content is not an array")
	}

	out := make(Blocks, 0, len(raws))
	for i, raw := range raws {
		block, err := decodeBlock(raw)
		if err != nil {
			return serr.Wrap(err, "failed to decode content block", "index", strconv.Itoa(i))
		}
		out = append(out, block)
	}
	*bs = out
	return nil
}

func decodeBlock(raw json.RawMessage) (ContentBlock, error) {
	var tag struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, serr.Wrap(err, "content block is not an object")
	}

	switch tag.Type {
	case BlockText:
		var b struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, serr.Wrap(err, "bad text block")
		}
		return TextBlock{Text: b.Text}, nil

	case BlockToolUse:
		var b struct {
			ID    json.RawMessage `json:"id"`
			Name  string          `json:"name"`
			Input json.RawMessage `json:"input"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, serr.Wrap(err, "bad tool_use block")
		}
		id, err := scalarText(b.ID)
		if err != nil {
			return nil, serr.Wrap(err, "bad tool_use id")
		}
		kept := make(json.RawMessage, len(raw))
		copy(kept, raw)
		return ToolUseBlock{ID: id, Name: b.Name, Input: b.Input, raw: kept}, nil

	case BlockToolResult:
		var b struct {
			ToolUseID string          `json:"tool_use_id"`
			Content   json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, serr.Wrap(err, "bad tool_result block")
		}
		return ToolResultBlock{ToolUseID: b.ToolUseID, Content: resultText(b.Content)}, nil
	}

	kept := make(json.RawMessage, len(raw))
	copy(kept, raw)
	return UnknownBlock{BlockType: tag.Type, Raw: kept}, nil
}

// scalarText renders a JSON string, number or boolean as text; null or absent is empty
func scalarText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}

	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64, bool:
		return string(raw), nil
	}
	return "", serr.New("expected a scalar, got " + string(raw))
}

// resultText flattens tool_result content, which may be a string or a list of text blocks
func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return string(raw)
	}
	text := ""
	for _, p := range parts {
		if p.Type == string(BlockText) {
			text += p.Text
		}
	}
	return text
}

// FirstToolUse returns the first tool_use block in sequence order
func FirstToolUse(blocks []ContentBlock) (ToolUseBlock, bool) {
	for _, block := range blocks {
		if b, ok := block.(ToolUseBlock); ok {
			return b, true
		}
	}
	return ToolUseBlock{}, false
}

// FirstText returns the first text block in sequence order
func FirstText(blocks []ContentBlock) (TextBlock, bool) {
	for _, block := range blocks {
		if b, ok := block.(TextBlock); ok {
			return b, true
		}
	}
	return TextBlock{}, false
}
