// Package overrides drives the per-user override form: it loads a topic or question with the
// user's existing override, merges it into form defaults, validates edits and submits a minimal delta.
package overrides

import "fmt"

// Kind distinguishes topic overrides from question overrides.
type Kind string

// Target kinds.
const (
	KindTopic    Kind = "topic"
	KindQuestion Kind = "question"
)

// Target is either a topic or a question, never both. Build it with TopicTarget or QuestionTarget.
type Target struct {
	kind Kind
	id   int
}

// TopicTarget returns a target for the course topic id.
func TopicTarget(id int) Target {
	return Target{kind: KindTopic, id: id}
}

// QuestionTarget returns a target for the topic question id.
func QuestionTarget(id int) Target {
	return Target{kind: KindQuestion, id: id}
}

// Kind returns the target kind; empty for the zero Target.
func (t Target) Kind() Kind { return t.kind }

// ID returns the topic or question id.
func (t Target) ID() int { return t.id }

// IsZero reports whether t was never set.
func (t Target) IsZero() bool { return t.kind == "" }

func (t Target) String() string {
	if t.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s/%d", t.kind, t.id)
}

func (t Target) valid() bool {
	return (t.kind == KindTopic || t.kind == KindQuestion) && t.id > 0
}
