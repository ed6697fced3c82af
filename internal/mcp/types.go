package mcp

// DisplayInfo describes one enumerated display.
type DisplayInfo struct {
	Name       string `json:"name"`
	ID         string `json:"id"`
	Resolution string `json:"resolution,omitempty"`
	Main       bool   `json:"main"`
	Online     bool   `json:"online"`
}

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []DisplayInfo `json:"displays"`
}

// UpdateDisplayInput is the input for the update_display tool.
type UpdateDisplayInput struct {
	Name      string `json:"name" jsonschema:"required,Display name to pin Sunshine to. Case-insensitive; partial names match (e.g. Virtual matches Virtual 16:9)."`
	NoRestart bool   `json:"no_restart,omitempty" jsonschema:"When true, update the config without restarting Sunshine."`
}

// UpdateDisplayOutput is the output for the update_display tool.
type UpdateDisplayOutput struct {
	Display   string `json:"display"`
	ID        string `json:"id"`
	Previous  string `json:"previous,omitempty"`
	Changed   bool   `json:"changed"`
	Restarted bool   `json:"restarted"`
}

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	OutputName      string `json:"output_name"`
	TargetDisplay   string `json:"target_display,omitempty"`
	MatchedDisplay  string `json:"matched_display,omitempty"`
	MatchedID       string `json:"matched_id,omitempty"`
	InSync          bool   `json:"in_sync"`
	SunshineRunning bool   `json:"sunshine_running"`
	ServiceFlavor   string `json:"service_flavor,omitempty"`
}
