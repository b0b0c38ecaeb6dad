package backend

import (
	"encoding/json"
	"time"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the user returned by a successful login plus the session token from its cookie.
type LoginResult struct {
	RoleID       int    `json:"roleId"`
	UserID       int    `json:"userId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Message      string `json:"-"`
	SessionToken string `json:"-"`
}

// Topic is a course topic as returned for a given user.
type Topic struct {
	ID                   int             `json:"id"`
	Name                 string          `json:"name"`
	TopicTypeID          int             `json:"topicTypeId"`
	StartDate            *time.Time      `json:"startDate"`
	EndDate              *time.Time      `json:"endDate"`
	DeadDate             *time.Time      `json:"deadDate"`
	TopicAssessmentInfo  *AssessmentInfo `json:"topicAssessmentInfo"`
	StudentTopicOverride []TopicOverride `json:"studentTopicOverride"`
}

// TopicOverride is a per-user date override of a topic.
type TopicOverride struct {
	UserID    int        `json:"userId"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	DeadDate  *time.Time `json:"deadDate"`
}

// AssessmentInfo holds the timed-assessment settings of a topic.
type AssessmentInfo struct {
	ID                             int                  `json:"id"`
	MaxGradedAttemptsPerVersion    int                  `json:"maxGradedAttemptsPerVersion"`
	MaxVersions                    int                  `json:"maxVersions"`
	VersionDelay                   int                  `json:"versionDelay"`
	Duration                       int                  `json:"duration"`
	StudentTopicAssessmentOverride []AssessmentOverride `json:"studentTopicAssessmentOverride"`
}

// AssessmentOverride is a per-user override of timed-assessment settings. Nil fields are not overridden.
type AssessmentOverride struct {
	UserID                      int  `json:"userId"`
	MaxGradedAttemptsPerVersion *int `json:"maxGradedAttemptsPerVersion,omitempty"`
	MaxVersions                 *int `json:"maxVersions,omitempty"`
	VersionDelay                *int `json:"versionDelay,omitempty"`
	Duration                    *int `json:"duration,omitempty"`
}

// Question is a topic question as returned for a given user.
type Question struct {
	ID                           int                `json:"id"`
	CourseTopicContentID         int                `json:"courseTopicContentId"`
	MaxAttempts                  int                `json:"maxAttempts"`
	StudentTopicQuestionOverride []QuestionOverride `json:"studentTopicQuestionOverride"`
}

// QuestionOverride is a per-user override of a question's attempt limit.
type QuestionOverride struct {
	UserID      int  `json:"userId"`
	MaxAttempts *int `json:"maxAttempts"`
}

// TopicExtension is the request body that extends a topic for one user.
type TopicExtension struct {
	CourseTopicContentID  int                `json:"courseTopicContentId"`
	UserID                int                `json:"userId"`
	TopicAssessmentInfoID *int               `json:"topicAssessmentInfoId,omitempty"`
	Data                  TopicExtensionData `json:"data"`
}

// TopicExtensionData carries the date extensions and, for timed topics, the assessment override.
type TopicExtensionData struct {
	Extensions                     DateExtensions      `json:"extensions"`
	StudentTopicAssessmentOverride *AssessmentOverride `json:"studentTopicAssessmentOverride,omitempty"`
}

// DateExtensions are the topic dates submitted by an extension.
type DateExtensions struct {
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
	DeadDate  *time.Time `json:"deadDate,omitempty"`
}

// QuestionExtension is the request body that extends a question for one user.
type QuestionExtension struct {
	CourseTopicQuestionID int                 `json:"courseTopicQuestionId"`
	UserID                int                 `json:"userId"`
	Extensions            QuestionAttemptsExt `json:"extensions"`
}

// QuestionAttemptsExt is the attempt-limit extension of a question.
type QuestionAttemptsExt struct {
	MaxAttempts int `json:"maxAttempts"`
}

// envelope is the common response wrapper of the backend API.
type envelope struct {
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}
