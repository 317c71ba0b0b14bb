package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"chromir-be/pkg/fal"
)

// fakeFal records calls and answers from configurable hooks.
type fakeFal struct {
	mu sync.Mutex

	trainLogs    []string
	trainOutput  *fal.TrainingOutput
	trainErr     error
	beforeReturn func()

	inferOutput *fal.InferenceOutput
	inferErr    error

	captions   map[string]string
	captionErr error
	delays     map[string]time.Duration

	trainCalls   []fal.TrainingInput
	inferCalls   []fal.InferenceInput
	captionCalls []fal.VisionInput
}

func newFakeFal() *fakeFal {
	return &fakeFal{
		trainLogs:   []string{"preparing", "step 1/10", "done"},
		trainOutput: &fal.TrainingOutput{DiffusersLoraFile: fal.File{URL: "https://cdn.fal.test/lora.safetensors"}},
		inferOutput: &fal.InferenceOutput{
			Images: []fal.Image{{URL: "https://cdn.fal.test/image.png"}},
			Seed:   json.Number("424242"),
			Prompt: "a red chair",
		},
		captions: map[string]string{},
		delays:   map[string]time.Duration{},
	}
}

func (f *fakeFal) Train(ctx context.Context, input fal.TrainingInput, onLog func(string)) (*fal.TrainingOutput, string, error) {
	f.mu.Lock()
	f.trainCalls = append(f.trainCalls, input)
	f.mu.Unlock()

	if f.trainErr != nil {
		return nil, "train-job", f.trainErr
	}
	for _, line := range f.trainLogs {
		if onLog != nil {
			onLog(line)
		}
	}
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
	return f.trainOutput, "train-job", nil
}

func (f *fakeFal) Infer(ctx context.Context, input fal.InferenceInput) (*fal.InferenceOutput, string, error) {
	f.mu.Lock()
	f.inferCalls = append(f.inferCalls, input)
	f.mu.Unlock()

	if f.inferErr != nil {
		return nil, "infer-job", f.inferErr
	}
	if f.beforeReturn != nil {
		f.beforeReturn()
	}
	return f.inferOutput, "infer-job", nil
}

func (f *fakeFal) Caption(ctx context.Context, input fal.VisionInput) (string, error) {
	f.mu.Lock()
	f.captionCalls = append(f.captionCalls, input)
	delay := f.delays[input.ImageURL]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.captionErr != nil {
		return "", f.captionErr
	}
	if c, ok := f.captions[input.ImageURL]; ok {
		return c, nil
	}
	return fmt.Sprintf("caption of %s", input.ImageURL), nil
}

func (f *fakeFal) trainCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.trainCalls)
}

func (f *fakeFal) inferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inferCalls)
}
