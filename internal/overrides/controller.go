package overrides

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"rederly/client/internal/backend"
	"rederly/client/internal/logging"
	"rederly/client/internal/platform/rbac"
	"rederly/client/internal/platform/validation"
	"rederly/client/internal/telemetry"
)

// State is the controller state.
type State string

// Controller states.
const (
	StateIdle        State = "IDLE"
	StateLoading     State = "LOADING"
	StateReady       State = "READY"
	StateLoadError   State = "LOAD_ERROR"
	StateSubmitting  State = "SUBMITTING"
	StateSubmitError State = "SUBMIT_ERROR"
)

// API is the subset of the backend client used by the controller.
type API interface {
	GetTopic(ctx context.Context, id, userID int) (*backend.Topic, error)
	GetQuestion(ctx context.Context, id, userID int) (*backend.Question, error)
	ExtendTopic(ctx context.Context, ext backend.TopicExtension) error
	ExtendQuestion(ctx context.Context, ext backend.QuestionExtension) error
}

// Metrics records submit outcomes. May be nil.
type Metrics interface {
	RecordOverrideSubmit(ctx context.Context, kind string, ok bool)
}

// SessionGuard ends the session when an error shows it can no longer be used, such as a
// backend authentication failure or an inconsistent stored role. *guard.Guard implements it.
type SessionGuard interface {
	HandleError(ctx context.Context, path string, err error) bool
}

// View is a copy of the controller state for rendering.
type View struct {
	State       State
	Target      Target
	UserID      int
	Form        Form
	TopicTypeID int
	// Timed is true when the loaded topic carries assessment info and the assessment fields apply.
	Timed     bool
	Err       error
	Succeeded bool
}

// Controller loads, edits and submits one override at a time. Safe for concurrent use.
type Controller struct {
	api      API
	sessions rbac.SessionReader
	guard    SessionGuard
	emitter  telemetry.EventEmitter
	metrics  Metrics
	logger   logrus.FieldLogger
	rules    *validation.Validator
	group    singleflight.Group

	mu        sync.Mutex
	state     State
	token     uint64
	target    Target
	userID    int
	topic     *backend.Topic
	question  *backend.Question
	form      Form
	err       error
	succeeded bool
}

// NewController returns an IDLE controller. sessions, when set, restricts Load and Submit to
// PROFESSOR and ADMIN sessions. emitter and metrics may be nil. See SetSessionGuard.
func NewController(api API, sessions rbac.SessionReader, emitter telemetry.EventEmitter, metrics Metrics, logger logrus.FieldLogger) *Controller {
	return &Controller{
		api:      api,
		sessions: sessions,
		emitter:  emitter,
		metrics:  metrics,
		logger:   logging.Component(logger, "overrides"),
		rules:    newFormValidator(),
		state:    StateIdle,
	}
}

// SetSessionGuard makes load and submit failures that invalidate the session force the guard
// to UNAUTHORIZED. Call before the controller is shared.
func (c *Controller) SetSessionGuard(g SessionGuard) {
	c.guard = g
}

func (c *Controller) checkSession(ctx context.Context, err error) {
	if c.guard != nil && err != nil {
		c.guard.HandleError(ctx, "", err)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot of the controller.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		State:     c.state,
		Target:    c.target,
		UserID:    c.userID,
		Form:      c.form.clone(),
		Err:       c.err,
		Succeeded: c.succeeded,
	}
	if c.topic != nil {
		v.TopicTypeID = c.topic.TopicTypeID
		v.Timed = c.topic.TopicAssessmentInfo != nil
	}
	return v
}

type loadResult struct {
	topic    *backend.Topic
	question *backend.Question
}

// Load fetches target for userID and populates the form. Only the most recent Load is applied;
// an earlier Load that completes later returns ErrSuperseded and changes nothing.
func (c *Controller) Load(ctx context.Context, target Target, userID int) error {
	if !target.valid() || userID < 0 {
		return ErrInvalidTarget
	}
	if c.sessions != nil {
		if _, err := rbac.RequireNonStudent(ctx, c.sessions); err != nil {
			c.checkSession(ctx, err)
			return err
		}
	}

	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.token++
	token := c.token
	c.state = StateLoading
	c.target = target
	c.userID = userID
	c.topic = nil
	c.question = nil
	c.form = Form{}
	c.err = nil
	c.succeeded = false
	c.mu.Unlock()

	res, err := c.fetch(ctx, target, userID)
	c.checkSession(ctx, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		c.logger.WithFields(logrus.Fields{"target": target.String(), "user_id": userID}).Debug("discarding superseded load")
		return ErrSuperseded
	}
	if err == nil {
		err = c.apply(target, userID, res)
	}
	if err != nil {
		c.state = StateLoadError
		c.err = err
		c.topic = nil
		c.question = nil
		c.form = Form{}
		c.logger.WithError(err).WithField("target", target.String()).Warn("override load failed")
		return err
	}
	c.state = StateReady
	return nil
}

// fetch coalesces concurrent loads of the same target and user into one backend call.
func (c *Controller) fetch(ctx context.Context, target Target, userID int) (loadResult, error) {
	key := fmt.Sprintf("%s:%d:%d", target.Kind(), target.ID(), userID)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx := context.WithoutCancel(ctx)
		if target.Kind() == KindTopic {
			t, err := c.api.GetTopic(fctx, target.ID(), userID)
			return loadResult{topic: t}, err
		}
		q, err := c.api.GetQuestion(fctx, target.ID(), userID)
		return loadResult{question: q}, err
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return loadResult{}, r.Err
		}
		return r.Val.(loadResult), nil
	case <-ctx.Done():
		return loadResult{}, ctx.Err()
	}
}

// apply merges the fetched record into the form. Caller holds c.mu.
func (c *Controller) apply(target Target, userID int, res loadResult) error {
	switch target.Kind() {
	case KindTopic:
		if res.topic == nil {
			return errors.New("overrides: backend returned no topic")
		}
		f, err := topicForm(target, userID, res.topic)
		if err != nil {
			return err
		}
		c.topic = res.topic
		c.form = Form{Topic: f}
	case KindQuestion:
		if res.question == nil {
			return errors.New("overrides: backend returned no question")
		}
		f, err := questionForm(target, userID, res.question)
		if err != nil {
			return err
		}
		c.question = res.question
		c.form = Form{Question: f}
	}
	return nil
}

// Submit validates form and sends the override for the loaded target. A *ValidationError is
// returned without any network call. On a backend failure the controller moves to SUBMIT_ERROR
// keeping the submitted values, and the returned error carries the server message verbatim.
func (c *Controller) Submit(ctx context.Context, form Form) error {
	var actor int
	if c.sessions != nil {
		s, err := rbac.RequireNonStudent(ctx, c.sessions)
		if err != nil {
			c.checkSession(ctx, err)
			return err
		}
		actor = s.UserID
	}

	c.mu.Lock()
	switch c.state {
	case StateLoading, StateSubmitting:
		c.mu.Unlock()
		return ErrBusy
	case StateIdle, StateLoadError:
		c.mu.Unlock()
		return ErrNotReady
	}
	target, userID, topic := c.target, c.userID, c.topic
	if form.Kind() != target.Kind() {
		c.mu.Unlock()
		return ErrTargetMismatch
	}
	form = form.clone()
	if form.Topic != nil {
		form.Topic.TopicTypeID = topic.TopicTypeID
		if topic.TopicAssessmentInfo == nil {
			form.Topic.Assessment = nil
		}
	}
	if err := checkForm(c.rules, form); err != nil {
		c.form = form
		c.err = err
		c.succeeded = false
		c.mu.Unlock()
		return err
	}
	c.state = StateSubmitting
	c.form = form
	c.err = nil
	c.succeeded = false
	c.mu.Unlock()

	var err error
	if form.Topic != nil {
		err = c.api.ExtendTopic(ctx, topicDelta(target, userID, topic, form.Topic))
	} else {
		err = c.api.ExtendQuestion(ctx, questionDelta(target, userID, form.Question))
	}

	c.mu.Lock()
	if err != nil {
		c.state = StateSubmitError
		c.err = err
	} else {
		c.state = StateReady
		c.succeeded = true
	}
	c.mu.Unlock()

	c.checkSession(ctx, err)
	c.report(ctx, target, userID, actor, err)
	return err
}

func (c *Controller) report(ctx context.Context, target Target, userID, actor int, err error) {
	ok := err == nil
	if c.metrics != nil {
		c.metrics.RecordOverrideSubmit(ctx, string(target.Kind()), ok)
	}
	log := c.logger.WithFields(logrus.Fields{"target": target.String(), "user_id": userID, "acting_user_id": actor})
	if ok {
		log.Info("override submitted")
	} else {
		log.WithError(err).Warn("override submit failed")
	}
	meta := map[string]interface{}{
		"kind":         target.Kind(),
		"targetId":     target.ID(),
		"userId":       userID,
		"actingUserId": actor,
		"ok":           ok,
	}
	if !ok {
		meta["error"] = err.Error()
	}
	telemetry.EmitAsync(c.emitter, ctx, telemetry.NewEvent(telemetry.EventOverrideSubmit, "overrides", meta), c.logger)
}
