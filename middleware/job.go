package middleware

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/session"
)

// JobPayloadKey is the job-document field carrying the session id between
// the enqueueing side and the worker.
const JobPayloadKey = "mockit_id"

// InjectJob copies the bound session id into a job payload before it is
// enqueued. Unbound contexts leave the payload untouched.
func InjectJob(ctx context.Context, job map[string]interface{}) {
	if id := session.CurrentID(ctx); id != "" {
		job[JobPayloadKey] = id
	}
}

// RunJob executes a job body under a session scope rebuilt from the job
// payload. The scope is torn down when the body returns, success or
// failure, so the worker never leaks a session into its next job.
func RunJob(ctx context.Context, logger logrus.FieldLogger, job map[string]interface{}, fn func(context.Context) error) error {
	scope := session.NewScope()
	defer scope.Reset()

	if id, ok := job[JobPayloadKey].(string); ok && id != "" {
		logger.WithField("mock_id", id).Info("setting mock_id for job")
		scope.Bind(id)
	}

	return fn(session.WithScope(ctx, scope))
}
