// Package temporal carries the mock session id through Temporal workflow
// and activity headers, the background-job counterpart of the HTTP session
// header.
package temporal

import (
	"context"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/workflow"

	"github.com/zerbitx/mockit/middleware"
	"github.com/zerbitx/mockit/session"
)

type (
	propagator struct{}

	workflowCtxKey struct{}
)

// NewContextPropagator returns a workflow.ContextPropagator that injects
// the bound session id into outbound Temporal headers under the
// mockit_id payload key and rebinds it on the receiving side. Register it
// in client.Options.ContextPropagators on both the starter and the worker.
func NewContextPropagator() workflow.ContextPropagator {
	return &propagator{}
}

// SessionID returns the session id carried into a workflow, or "".
func SessionID(ctx workflow.Context) string {
	id, _ := ctx.Value(workflowCtxKey{}).(string)
	return id
}

func (p *propagator) Inject(ctx context.Context, writer workflow.HeaderWriter) error {
	id := session.CurrentID(ctx)
	if id == "" {
		return nil
	}

	return p.set(writer, id)
}

func (p *propagator) InjectFromWorkflow(ctx workflow.Context, writer workflow.HeaderWriter) error {
	id := SessionID(ctx)
	if id == "" {
		return nil
	}

	return p.set(writer, id)
}

func (p *propagator) Extract(ctx context.Context, reader workflow.HeaderReader) (context.Context, error) {
	id, err := p.get(reader)
	if err != nil {
		return ctx, err
	}

	if id == "" {
		return ctx, nil
	}

	return session.With(ctx, id), nil
}

func (p *propagator) ExtractToWorkflow(ctx workflow.Context, reader workflow.HeaderReader) (workflow.Context, error) {
	id, err := p.get(reader)
	if err != nil {
		return ctx, err
	}

	if id == "" {
		return ctx, nil
	}

	return workflow.WithValue(ctx, workflowCtxKey{}, id), nil
}

func (p *propagator) set(writer workflow.HeaderWriter, id string) error {
	payload, err := converter.GetDefaultDataConverter().ToPayload(id)
	if err != nil {
		return err
	}

	writer.Set(middleware.JobPayloadKey, payload)

	return nil
}

func (p *propagator) get(reader workflow.HeaderReader) (string, error) {
	var payload *commonpb.Payload

	if err := reader.ForEachKey(func(key string, value *commonpb.Payload) error {
		if key == middleware.JobPayloadKey {
			payload = value
		}
		return nil
	}); err != nil {
		return "", err
	}

	if payload == nil {
		return "", nil
	}

	var id string
	if err := converter.GetDefaultDataConverter().FromPayload(payload, &id); err != nil {
		return "", err
	}

	return id, nil
}
