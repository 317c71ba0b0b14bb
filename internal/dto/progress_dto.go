package dto

import (
	"time"

	"github.com/google/uuid"
)

type FlowStage string

const (
	StageUploading  FlowStage = "uploading"
	StageDescribing FlowStage = "describing"
	StageArchiving  FlowStage = "archiving"
	StageTraining   FlowStage = "training"
	StageGenerating FlowStage = "generating"
	StageDebiting   FlowStage = "debiting"
	StageRecording  FlowStage = "recording"
	StageCompleted  FlowStage = "completed"
	StageFailed     FlowStage = "failed"
)

// ProgressMessage is published on the progress topic and forwarded to sockets.
type ProgressMessage struct {
	OrganizationId uuid.UUID `json:"organization_id"`
	FlowId         uuid.UUID `json:"flow_id"`
	Flow           string    `json:"flow"`
	Stage          FlowStage `json:"stage"`
	Message        string    `json:"message"`
	Log            string    `json:"log,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
