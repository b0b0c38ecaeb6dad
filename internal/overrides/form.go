package overrides

import (
	"time"

	"rederly/client/internal/backend"
)

// Form holds the editable override values. Exactly one of Topic or Question is set.
type Form struct {
	Topic    *TopicForm
	Question *QuestionForm
}

// TopicForm is the topic date override. Assessment is only used for timed topics.
type TopicForm struct {
	StartDate   *time.Time      `json:"startDate" validate:"required"`
	EndDate     *time.Time      `json:"endDate" validate:"required"`
	DeadDate    *time.Time      `json:"deadDate"`
	TopicTypeID int             `json:"-"`
	Assessment  *AssessmentForm `json:"assessment"`
}

// AssessmentForm is the timed-assessment override. -1 means unlimited where allowed.
type AssessmentForm struct {
	MaxGradedAttemptsPerVersion int `json:"maxGradedAttemptsPerVersion" validate:"min=-1"`
	MaxVersions                 int `json:"maxVersions" validate:"min=-1"`
	VersionDelay                int `json:"versionDelay" validate:"min=0"`
	Duration                    int `json:"duration" validate:"min=0"`
}

// QuestionForm is the question attempts override. -1 means unlimited.
type QuestionForm struct {
	MaxAttempts int `json:"maxAttempts" validate:"min=-1"`
}

// Kind returns the kind of the form, or "" when it carries neither or both parts.
func (f Form) Kind() Kind {
	switch {
	case f.Topic != nil && f.Question == nil:
		return KindTopic
	case f.Question != nil && f.Topic == nil:
		return KindQuestion
	}
	return ""
}

func (f Form) clone() Form {
	var out Form
	if f.Topic != nil {
		t := *f.Topic
		t.StartDate = cloneTime(t.StartDate)
		t.EndDate = cloneTime(t.EndDate)
		t.DeadDate = cloneTime(t.DeadDate)
		if t.Assessment != nil {
			a := *t.Assessment
			t.Assessment = &a
		}
		out.Topic = &t
	}
	if f.Question != nil {
		q := *f.Question
		out.Question = &q
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// topicForm merges the single override record, if any, over the topic defaults.
func topicForm(target Target, userID int, t *backend.Topic) (*TopicForm, error) {
	if n := len(t.StudentTopicOverride); n > 1 {
		return nil, &AmbiguousOverrideError{Target: target, UserID: userID, Count: n}
	}
	form := &TopicForm{
		StartDate:   cloneTime(t.StartDate),
		EndDate:     cloneTime(t.EndDate),
		DeadDate:    cloneTime(t.DeadDate),
		TopicTypeID: t.TopicTypeID,
	}
	if len(t.StudentTopicOverride) == 1 {
		o := t.StudentTopicOverride[0]
		if o.StartDate != nil {
			form.StartDate = cloneTime(o.StartDate)
		}
		if o.EndDate != nil {
			form.EndDate = cloneTime(o.EndDate)
		}
		if o.DeadDate != nil {
			form.DeadDate = cloneTime(o.DeadDate)
		}
	}

	info := t.TopicAssessmentInfo
	if info == nil {
		return form, nil
	}
	if n := len(info.StudentTopicAssessmentOverride); n > 1 {
		return nil, &AmbiguousOverrideError{Target: target, UserID: userID, Count: n}
	}
	a := &AssessmentForm{
		MaxGradedAttemptsPerVersion: info.MaxGradedAttemptsPerVersion,
		MaxVersions:                 info.MaxVersions,
		VersionDelay:                info.VersionDelay,
		Duration:                    info.Duration,
	}
	if len(info.StudentTopicAssessmentOverride) == 1 {
		o := info.StudentTopicAssessmentOverride[0]
		overlay(&a.MaxGradedAttemptsPerVersion, o.MaxGradedAttemptsPerVersion)
		overlay(&a.MaxVersions, o.MaxVersions)
		overlay(&a.VersionDelay, o.VersionDelay)
		overlay(&a.Duration, o.Duration)
	}
	form.Assessment = a
	return form, nil
}

// questionForm merges the single override record, if any, over the question defaults.
func questionForm(target Target, userID int, q *backend.Question) (*QuestionForm, error) {
	if n := len(q.StudentTopicQuestionOverride); n > 1 {
		return nil, &AmbiguousOverrideError{Target: target, UserID: userID, Count: n}
	}
	form := &QuestionForm{MaxAttempts: q.MaxAttempts}
	if len(q.StudentTopicQuestionOverride) == 1 {
		overlay(&form.MaxAttempts, q.StudentTopicQuestionOverride[0].MaxAttempts)
	}
	return form, nil
}

func overlay(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// topicDelta builds the extension request. The assessment part is sent only for timed topics.
func topicDelta(target Target, userID int, t *backend.Topic, f *TopicForm) backend.TopicExtension {
	ext := backend.TopicExtension{
		CourseTopicContentID: target.ID(),
		UserID:               userID,
		Data: backend.TopicExtensionData{
			Extensions: backend.DateExtensions{
				StartDate: *f.StartDate,
				EndDate:   *f.EndDate,
				DeadDate:  cloneTime(f.DeadDate),
			},
		},
	}
	if t != nil && t.TopicAssessmentInfo != nil && f.Assessment != nil {
		id := t.TopicAssessmentInfo.ID
		ext.TopicAssessmentInfoID = &id
		a := *f.Assessment
		ext.Data.StudentTopicAssessmentOverride = &backend.AssessmentOverride{
			UserID:                      userID,
			MaxGradedAttemptsPerVersion: &a.MaxGradedAttemptsPerVersion,
			MaxVersions:                 &a.MaxVersions,
			VersionDelay:                &a.VersionDelay,
			Duration:                    &a.Duration,
		}
	}
	return ext
}

func questionDelta(target Target, userID int, f *QuestionForm) backend.QuestionExtension {
	return backend.QuestionExtension{
		CourseTopicQuestionID: target.ID(),
		UserID:                userID,
		Extensions:            backend.QuestionAttemptsExt{MaxAttempts: f.MaxAttempts},
	}
}
