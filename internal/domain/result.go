package domain

import "time"

// GenerationResult is produced once per pipeline run and never mutated
// afterwards. A failed run carries Success=false and an ErrorMessage; the
// path fields are empty in that case.
type GenerationResult struct {
	GenerationID   string    `json:"generation_id"`
	UserInput      string    `json:"user_input"`
	VisualPrompt   string    `json:"visual_prompt"`
	Caption        string    `json:"caption"`
	Style          string    `json:"style"`
	RawImagePath   string    `json:"raw_image_path"`
	FinalImagePath string    `json:"final_image_path"`
	GenerationTime float64   `json:"generation_time"`
	GeneratedAt    time.Time `json:"generated_at"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}
