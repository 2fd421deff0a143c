package providers

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBlocksUnmarshal(t *testing.T) {
	data := `[
		{"type":"text","text":"hello"},
		{"type":"tool_use","id":"abc123","name":"get_weather","input":{"location":"Seoul"}},
		{"type":"tool_result","tool_use_id":"abc123","content":"sunny"},
		{"type":"thinking","thinking":"hmm"}
	]`

	var blocks Blocks
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("Expected 4 blocks, got %d", len(blocks))
	}

	wantTypes := []BlockType{BlockText, BlockToolUse, BlockToolResult, "thinking"}
	for i, want := range wantTypes {
		if got := blocks[i].Type(); got != want {
			t.Errorf("Block %d: expected type %q, got %q", i, want, got)
		}
	}

	if text := blocks[0].(TextBlock); text.Text != "hello" {
		t.Errorf("Expected text %q, got %q", "hello", text.Text)
	}
	toolUse := blocks[1].(ToolUseBlock)
	if toolUse.ID != "abc123" || toolUse.Name != "get_weather" {
		t.Errorf("Unexpected tool_use block: %+v", toolUse)
	}
	if string(toolUse.Input) != `{"location":"Seoul"}` {
		t.Errorf("Unexpected tool_use input: %s", toolUse.Input)
	}
	if result := blocks[2].(ToolResultBlock); result.ToolUseID != "abc123" || result.Content != "sunny" {
		t.Errorf("Unexpected tool_result block: %+v", result)
	}
	if _, ok := blocks[3].(UnknownBlock); !ok {
		t.Errorf("Expected UnknownBlock, got %T", blocks[3])
	}
}

func TestBlocksUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an array", `{"type":"text"}`},
		{"element not an object", `["text"]`},
		{"text not a string", `[{"type":"text","text":5}]`},
		{"object tool_use id", `[{"type":"tool_use","id":{"n":7},"name":"x","input":{}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var blocks Blocks
			if err := json.Unmarshal([]byte(tt.data), &blocks); err == nil {
				t.Errorf("Expected an error decoding %s", tt.data)
			}
		})
	}
}

func TestToolUseScalarIDs(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{"string", `"toolu_1"`, "toolu_1"},
		{"integer", `7`, "7"},
		{"float", `7.5`, "7.5"},
		{"boolean", `true`, "true"},
		{"null", `null`, ""},
		{"empty string", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `[{"type":"tool_use","id":` + tt.id + `,"name":"get_weather","input":{}}]`
			var blocks Blocks
			if err := json.Unmarshal([]byte(data), &blocks); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := blocks[0].(ToolUseBlock).ID; got != tt.want {
				t.Errorf("Expected id %q, got %q", tt.want, got)
			}
		})
	}

	var blocks Blocks
	if err := json.Unmarshal([]byte(`[{"type":"tool_use","name":"get_weather","input":{}}]`), &blocks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id := blocks[0].(ToolUseBlock).ID; id != "" {
		t.Errorf("Expected an absent id to be empty, got %q", id)
	}
}

func TestToolUseMarshalIsVerbatim(t *testing.T) {
	raw := `{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{"location":"Seoul","unit":"c"},"cache_control":{"type":"ephemeral"}}`

	var blocks Blocks
	if err := json.Unmarshal([]byte("["+raw+"]"), &blocks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := json.Marshal(blocks[0])
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != raw {
		t.Errorf("Expected verbatim re-encoding\n got: %s\nwant: %s", out, raw)
	}
}

func TestBlockMarshal(t *testing.T) {
	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{"text", TextBlock{Text: "hi"}, `{"type":"text","text":"hi"}`},
		{"tool_result", ToolResultBlock{ToolUseID: "abc", Content: "sunny"}, `{"type":"tool_result","tool_use_id":"abc","content":"sunny"}`},
		{"constructed tool_use", ToolUseBlock{ID: "abc", Name: "get_weather"}, `{"type":"tool_use","id":"abc","name":"get_weather","input":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := json.Marshal(tt.block)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if string(out) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, out)
			}
		})
	}
}

func TestToolResultContentList(t *testing.T) {
	data := `[{"type":"tool_result","tool_use_id":"a","content":[{"type":"text","text":"sun"},{"type":"text","text":"ny"}]}]`

	var blocks Blocks
	if err := json.Unmarshal([]byte(data), &blocks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := blocks[0].(ToolResultBlock).Content; got != "sunny" {
		t.Errorf("Expected flattened content %q, got %q", "sunny", got)
	}
}

func TestFirstMatch(t *testing.T) {
	blocks := []ContentBlock{
		TextBlock{Text: "first text"},
		ToolUseBlock{ID: "one", Name: "get_weather"},
		TextBlock{Text: "second text"},
		ToolUseBlock{ID: "two", Name: "get_weather"},
	}

	toolUse, ok := FirstToolUse(blocks)
	if !ok || toolUse.ID != "one" {
		t.Errorf("Expected first tool_use with id %q, got %+v (found=%v)", "one", toolUse, ok)
	}

	text, ok := FirstText(blocks)
	if !ok || text.Text != "first text" {
		t.Errorf("Expected first text %q, got %+v (found=%v)", "first text", text, ok)
	}

	if _, ok := FirstToolUse([]ContentBlock{TextBlock{Text: "x"}}); ok {
		t.Error("Expected no tool_use in a text-only sequence")
	}
	if _, ok := FirstText(nil); ok {
		t.Error("Expected no text in an empty sequence")
	}
}

func TestMessageMarshal(t *testing.T) {
	out, err := json.Marshal(UserText("hello"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != `{"role":"user","content":"hello"}` {
		t.Errorf("Unexpected string-content message: %s", out)
	}

	msg := Message{Role: RoleUser, Blocks: []ContentBlock{ToolResultBlock{ToolUseID: "a", Content: "b"}}}
	out, err = json.Marshal(msg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(out), `{"role":"user","content":[{"type":"tool_result"`) {
		t.Errorf("Unexpected block-content message: %s", out)
	}
}
