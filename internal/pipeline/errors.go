package pipeline

import (
	"fmt"
	"maps"
	"sync"
)

type ErrorType string

const (
	ErrorTypeAPI        ErrorType = "api_error"
	ErrorTypeNetwork    ErrorType = "network_error"
	ErrorTypeConfig     ErrorType = "config_error"
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeFileIO     ErrorType = "file_io_error"
	ErrorTypeEncoding   ErrorType = "encoding_error"
	ErrorTypeAuth       ErrorType = "auth_error"
	ErrorTypeTimeout    ErrorType = "timeout_error"
)

type PipelineError struct {
	Type    ErrorType
	Stage   string
	Message string
	Cause   error

	context   map[string]any
	contextMu sync.RWMutex
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed in %s: %s (caused by: %v)", e.Type, e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed in %s: %s", e.Type, e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewError(errType ErrorType, stage, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Cause:   cause,
		context: make(map[string]any),
	}
}

func (e *PipelineError) GetContextMap() map[string]any {
	e.contextMu.RLock()
	defer e.contextMu.RUnlock()

	return maps.Clone(e.context)
}

func (e *PipelineError) GetContext(key string) any {
	e.contextMu.RLock()
	defer e.contextMu.RUnlock()

	return e.context[key]
}

func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	e.contextMu.RLock()
	cloned := maps.Clone(e.context)
	e.contextMu.RUnlock()

	if cloned == nil {
		cloned = make(map[string]any)
	}
	cloned[key] = value
	return &PipelineError{
		Type:    e.Type,
		Stage:   e.Stage,
		Message: e.Message,
		Cause:   e.Cause,
		context: cloned,
	}
}

func NewAPIError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeAPI, stage, message, cause)
}

func NewConfigError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeConfig, stage, message, cause)
}

func NewValidationError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeValidation, stage, message, cause)
}

func NewFileIOError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeFileIO, stage, message, cause)
}

func NewEncodingError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeEncoding, stage, message, cause)
}

func NewAuthError(stage, message string, cause error) *PipelineError {
	return NewError(ErrorTypeAuth, stage, message, cause)
}

var (
	ErrMissingSecrets = NewConfigError("environment_validation", "required API credentials are not set", nil)
	ErrMissingTopic   = NewValidationError("prompt_resolution", "no topic resolved for this run", nil)
	ErrNoScenes       = NewValidationError("scene_extraction", "script produced no usable scenes", nil)
	ErrBucketNotSet   = NewConfigError("artifact_publish", "artifact bucket not configured", nil)
)
