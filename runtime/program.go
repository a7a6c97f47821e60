package runtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/SooluThomas/qiskit-ibm-runtime/internal/api"
)

var validate = validator.New()

// ProgramUpload describes a runtime program to publish. MaxExecutionTime
// is the per-job wall-clock limit in seconds the service will enforce.
type ProgramUpload struct {
	Name             string `validate:"required"`
	Description      string
	MaxExecutionTime int `validate:"min=1"`
	IsPublic         bool
	Spec             ProgramSpec
	Data             string
}

// SchemaFor generates a JSON Schema for a Go parameter or result struct,
// for use in ProgramSpec.
func SchemaFor(v any) (json.RawMessage, error) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	return data, nil
}

// Programs lists the programs visible to the account.
func (s *Service) Programs(ctx context.Context) ([]Program, error) {
	programs, err := s.client.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// Program fetches one program by ID.
func (s *Service) Program(ctx context.Context, id string) (*Program, error) {
	p, err := s.client.GetProgram(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get program %q: %w", id, err)
	}
	return p, nil
}

// UploadProgram validates and publishes a new runtime program.
func (s *Service) UploadProgram(ctx context.Context, up ProgramUpload) (*Program, error) {
	if err := validate.Struct(up); err != nil {
		return nil, fmt.Errorf("invalid program metadata: %w", err)
	}
	p, err := s.client.UploadProgram(ctx, uploadRequest(up))
	if err != nil {
		return nil, fmt.Errorf("failed to upload program %q: %w", up.Name, err)
	}
	return p, nil
}

// UpdateProgram replaces the metadata and payload of an existing program.
func (s *Service) UpdateProgram(ctx context.Context, id string, up ProgramUpload) (*Program, error) {
	if err := validate.Struct(up); err != nil {
		return nil, fmt.Errorf("invalid program metadata: %w", err)
	}
	p, err := s.client.UpdateProgram(ctx, id, uploadRequest(up))
	if err != nil {
		return nil, fmt.Errorf("failed to update program %q: %w", id, err)
	}
	return p, nil
}

// DeleteProgram removes a program the account owns.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	if err := s.client.DeleteProgram(ctx, id); err != nil {
		return fmt.Errorf("failed to delete program %q: %w", id, err)
	}
	return nil
}

func uploadRequest(up ProgramUpload) *api.UploadProgramRequest {
	return &api.UploadProgramRequest{
		Name:             up.Name,
		Description:      up.Description,
		MaxExecutionTime: up.MaxExecutionTime,
		IsPublic:         up.IsPublic,
		Spec:             up.Spec,
		Data:             up.Data,
	}
}
