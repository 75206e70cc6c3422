package engine

type EventKind string

const (
	EventGroupChanged     EventKind = "group_changed"
	EventGroupReady       EventKind = "group_ready"
	EventPreloadDone      EventKind = "preload_done"
	EventAudioEnded       EventKind = "audio_ended"
	EventScrollToTop      EventKind = "scroll_to_top"
	EventTick             EventKind = "tick"
	EventCompleted        EventKind = "completed"
	EventSubmitted        EventKind = "submitted"
	EventSubmissionFailed EventKind = "submission_failed"
)

type Event struct {
	Kind       EventKind
	GroupIndex int
	Remaining  int
	Reason     FinishReason
	Err        error
}

// Observer receives session events. It is called outside the session lock,
// so it may call back into the session.
type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
