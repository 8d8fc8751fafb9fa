package project

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/streamline/internal/cache"
	"github.com/fyrsmithlabs/streamline/internal/logging"
)

// InstrumentationName is the tracer scope for Manager spans.
const InstrumentationName = "github.com/fyrsmithlabs/streamline/internal/project"

// Manager mediates every project and task read or write made by the view.
// It is safe for concurrent use. Values going into and out of the caches are
// deep copies, so callers may modify what they get back.
type Manager struct {
	svc          Service
	cacheEnabled bool
	merge        MergePolicy
	logger       *logging.Logger
	tracer       trace.Tracer
	metrics      *cache.Metrics

	projects *cache.Cache[ID, Project]
	tasks    *cache.Cache[ID, Task]
}

// Option configures a Manager.
type Option func(*Manager)

// WithCache turns the entity cache on or off. It is on by default.
func WithCache(enabled bool) Option {
	return func(m *Manager) {
		m.cacheEnabled = enabled
	}
}

// WithMergePolicy sets how update responses are folded into the task cache.
func WithMergePolicy(p MergePolicy) Option {
	return func(m *Manager) {
		if p != nil {
			m.merge = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithCacheMetrics records cache activity in m.
func WithCacheMetrics(metrics *cache.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a Manager backed by svc.
func NewManager(svc Service, opts ...Option) *Manager {
	m := &Manager{
		svc:          svc,
		cacheEnabled: true,
		merge:        MergeStatusOnly,
		logger:       logging.NewNop(),
		tracer:       otel.Tracer(InstrumentationName),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.projects = cache.New[ID, Project]("project", m.metrics)
	m.tasks = cache.New[ID, Task]("task", m.metrics)
	return m
}

// CacheEnabled reports whether reads and writes go through the cache.
func (m *Manager) CacheEnabled() bool {
	return m.cacheEnabled
}

// MergePolicy returns the configured merge policy.
func (m *Manager) MergePolicy() MergePolicy {
	return m.merge
}

// FetchProject returns the project with the given ID, from cache when
// possible. On failure the cache is left unchanged.
func (m *Manager) FetchProject(ctx context.Context, id ID) (Project, error) {
	ctx, span := m.tracer.Start(ctx, "project.FetchProject")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", string(id)))

	fail := func(err error) (Project, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Project{}, &FetchError{ProjectID: id, Err: err}
	}

	if id == "" {
		return fail(fmt.Errorf("%w: project id is empty", ErrInvalidID))
	}

	if m.cacheEnabled {
		if p, ok := m.projects.Get(id); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			m.logger.Debug(ctx, "project cache hit", zap.String("project.id", string(id)))
			return p.Clone(), nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	p, err := m.svc.GetProject(ctx, id)
	if err != nil {
		m.logger.Warn(ctx, "fetch project failed",
			zap.String("project.id", string(id)),
			zap.Error(err),
		)
		return fail(err)
	}
	if err := p.Validate(); err != nil {
		m.logger.Warn(ctx, "fetch project returned invalid payload",
			zap.String("project.id", string(id)),
			zap.Error(err),
		)
		return fail(err)
	}
	if p.ID != id {
		m.logger.Warn(ctx, "fetch project returned another project",
			zap.String("project.id", string(id)),
			zap.String("response.id", string(p.ID)),
		)
		return fail(fmt.Errorf("%w: requested project %s, got %s", ErrMalformed, id, p.ID))
	}

	if m.cacheEnabled {
		m.projects.Set(id, p.Clone())
	}
	span.SetStatus(codes.Ok, "")
	return p, nil
}

// UpdateTaskStatus sets a task's status on the server and reconciles the
// task cache with the configured MergePolicy. It returns the reconciled
// task. An invalid status fails before any remote call.
func (m *Manager) UpdateTaskStatus(ctx context.Context, id ID, status Status) (Task, error) {
	ctx, span := m.tracer.Start(ctx, "project.UpdateTaskStatus")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.id", string(id)),
		attribute.String("task.status", string(status)),
		attribute.String("merge.policy", m.merge.Name()),
	)

	fail := func(err error) (Task, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return Task{}, &UpdateError{TaskID: id, Status: status, Err: err}
	}

	if id == "" {
		return fail(fmt.Errorf("%w: task id is empty", ErrInvalidID))
	}
	if !status.Valid() {
		return fail(fmt.Errorf("%w: %q", ErrInvalidStatus, status))
	}

	server, err := m.svc.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		m.logger.Warn(ctx, "update task status failed",
			zap.String("task.id", string(id)),
			zap.String("task.status", string(status)),
			zap.Error(err),
		)
		return fail(err)
	}
	if err := server.Validate(); err != nil {
		m.logger.Warn(ctx, "update task status returned invalid payload",
			zap.String("task.id", string(id)),
			zap.Error(err),
		)
		return fail(err)
	}
	if server.ID != id {
		m.logger.Warn(ctx, "update task status returned another task",
			zap.String("task.id", string(id)),
			zap.String("response.id", string(server.ID)),
		)
		return fail(fmt.Errorf("%w: requested task %s, got %s", ErrMalformed, id, server.ID))
	}

	if !m.cacheEnabled {
		span.SetStatus(codes.Ok, "")
		return server, nil
	}

	merged := m.tasks.Update(id, func(cached Task, ok bool) Task {
		span.SetAttributes(attribute.Bool("cache.hit", ok))
		v := m.merge.Merge(cached.Clone(), ok, status, server.Clone())
		v.ID = id
		return v.Clone()
	})
	m.logger.Debug(ctx, "task cache reconciled",
		zap.String("task.id", string(id)),
		zap.String("merge.policy", m.merge.Name()),
	)
	span.SetStatus(codes.Ok, "")
	return merged.Clone(), nil
}

// CreateTask creates a task on the server. The result is not cached.
func (m *Manager) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	ctx, span := m.tracer.Start(ctx, "project.CreateTask")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", string(in.ProjectID)))

	fail := func(err error) (Task, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return Task{}, &CreateError{Title: in.Title, ProjectID: in.ProjectID, Err: err}
	}

	in, err := in.Normalize()
	if err != nil {
		return fail(err)
	}

	created, err := m.svc.CreateTask(ctx, in)
	if err != nil {
		m.logger.Warn(ctx, "create task failed",
			zap.String("project.id", string(in.ProjectID)),
			zap.Error(err),
		)
		return fail(err)
	}
	if err := created.Validate(); err != nil {
		return fail(err)
	}

	span.SetAttributes(attribute.String("task.id", string(created.ID)))
	span.SetStatus(codes.Ok, "")
	return created, nil
}

// CachedProject returns the cached project, if any. It never calls the
// Service.
func (m *Manager) CachedProject(id ID) (Project, bool) {
	if !m.cacheEnabled {
		return Project{}, false
	}
	p, ok := m.projects.Get(id)
	return p.Clone(), ok
}

// CachedTask returns the cached task, if any. It never calls the Service.
func (m *Manager) CachedTask(id ID) (Task, bool) {
	if !m.cacheEnabled {
		return Task{}, false
	}
	t, ok := m.tasks.Get(id)
	return t.Clone(), ok
}

// ClearCache drops every cached project and task.
func (m *Manager) ClearCache() {
	m.projects.Clear()
	m.tasks.Clear()
}
