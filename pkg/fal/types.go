package fal

import (
	"encoding/json"
	"fmt"
)

const (
	AppFluxLoraFastTraining = "fal-ai/flux-lora-fast-training"
	AppFluxLora             = "fal-ai/flux-lora"
	AppAnyLLMVision         = "fal-ai/any-llm/vision"
)

type Status string

const (
	StatusInQueue    Status = "IN_QUEUE"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// QueueHandle is returned when a request is accepted by the queue.
type QueueHandle struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type LogEntry struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type QueueStatus struct {
	Status        Status     `json:"status"`
	QueuePosition *int       `json:"queue_position,omitempty"`
	Logs          []LogEntry `json:"logs"`
	Error         string     `json:"error,omitempty"`
}

type TrainingInput struct {
	ImagesDataURL string `json:"images_data_url"`
	Steps         int    `json:"steps"`
}

type File struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

type TrainingOutput struct {
	DiffusersLoraFile File `json:"diffusers_lora_file"`
	ConfigFile        File `json:"config_file"`
}

type LoraWeight struct {
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

type InferenceInput struct {
	Loras               []LoraWeight `json:"loras"`
	Prompt              string       `json:"prompt"`
	GuidanceScale       float64      `json:"guidance_scale"`
	EnableSafetyChecker bool         `json:"enable_safety_checker"`
}

type Image struct {
	URL         string `json:"url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type InferenceOutput struct {
	Images []Image `json:"images"`
	// Seed is numeric on the wire but kept raw so large values survive.
	Seed   json.Number `json:"seed"`
	Prompt string      `json:"prompt"`
}

type VisionInput struct {
	Model    string `json:"model,omitempty"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"image_url"`
}

type VisionOutput struct {
	Output   string `json:"output"`
	Response string `json:"response"`
}

// Text returns the caption regardless of which field the app filled.
func (v VisionOutput) Text() string {
	if v.Response != "" {
		return v.Response
	}
	return v.Output
}

// APIError is a non-2xx answer from the queue.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal: status %d: %s", e.StatusCode, e.Message)
}
