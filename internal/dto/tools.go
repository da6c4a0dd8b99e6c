package dto

type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ToolListResponse struct {
	Tools []ToolDescriptor `json:"tools"`
}
