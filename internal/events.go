package internal

import "github.com/dmitrymomot/compass/pkg/event"

// Lifecycle topics.
const (
	TopicApplicationStart  event.Topic = "application.start"
	TopicApplicationRun    event.Topic = "application.run"
	TopicApplicationLoaded event.Topic = "application.loaded"
	TopicActionExecuting   event.Topic = "action.executing"
	TopicActionExecuted    event.Topic = "action.executed"
	TopicActionException   event.Topic = "action.exception"
)

// Stage identifies a step of the dispatch pipeline.
type Stage int

const (
	StageNone Stage = iota
	StageExecuting
	StageAction
	StageExecuted
	StageLoaded
)

func (s Stage) String() string {
	switch s {
	case StageExecuting:
		return "executing"
	case StageAction:
		return "action"
	case StageExecuted:
		return "executed"
	case StageLoaded:
		return "loaded"
	default:
		return "none"
	}
}

// Event is delivered to filters and bus subscribers.
// Context is nil for APPLICATION_START and APPLICATION_RUN.
// Err and Stage are set only for ACTION_EXCEPTION.
type Event struct {
	App     *App
	Context *FilterContext
	Err     error
	Type    event.Topic
	Stage   Stage
}
