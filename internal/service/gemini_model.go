package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

var ErrEmptyConversation = errors.New("conversation has no messages")

type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiChatModel(client *genai.Client, model string, temperature float32) *GeminiChatModel {
	return &GeminiChatModel{client: client, model: model, temperature: temperature}
}

func (m *GeminiChatModel) SupportsTools() bool { return true }

func (m *GeminiChatModel) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	contents := geminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, ErrEmptyConversation
	}

	model := m.client.GenerativeModel(m.model)
	model.SetTemperature(m.temperature)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  geminiSchema(def.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoChoices
	}

	out := &ChatResponse{}
	var text strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args, _ := json.Marshal(p.Args)
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("call_%d_%s", i, p.Name),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = text.String()
	if out.Content == "" {
		out.Raw = resp.Candidates[0].Content.Parts
	}
	return out, nil
}

// geminiContents maps the neutral history onto Gemini roles. Consecutive
// tool results are merged into one content block.
func geminiContents(messages []ChatMessage) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case ChatRoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		case ChatRoleAssistant:
			c := &genai.Content{Role: "model"}
			if msg.Content != "" {
				c.Parts = append(c.Parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				c.Parts = append(c.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			if len(c.Parts) > 0 {
				contents = append(contents, c)
			}
		case ChatRoleTool:
			var payload any
			if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
				payload = msg.Content
			}
			part := genai.FunctionResponse{Name: msg.Name, Response: map[string]any{"result": payload}}

			if n := len(contents); n > 0 && contents[n-1].Role == "user" && isFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{part}})
		}
	}
	return contents
}

func isFunctionResponse(c *genai.Content) bool {
	if len(c.Parts) == 0 {
		return false
	}
	_, ok := c.Parts[0].(genai.FunctionResponse)
	return ok
}

// geminiSchema converts a JSON schema map into genai.Schema.
func geminiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	switch m["type"] {
	case "object":
		s.Type = genai.TypeObject
	case "string":
		s.Type = genai.TypeString
	case "number":
		s.Type = genai.TypeNumber
	case "integer":
		s.Type = genai.TypeInteger
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if enum, ok := m["enum"].([]string); ok {
		s.Enum = enum
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = req
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	return s
}
