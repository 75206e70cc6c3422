package engine

import "errors"

var (
	ErrCompleted       = errors.New("session already completed")
	ErrClosed          = errors.New("session closed")
	ErrGated           = errors.New("current group does not allow moving forward yet")
	ErrAtFirstGroup    = errors.New("already at the first group")
	ErrUnknownQuestion = errors.New("question is not part of this test")
	ErrInvalidOption   = errors.New("option is not valid for this question")
	ErrStaleEvent      = errors.New("event refers to a group that is no longer current")
	ErrEmptyTest       = errors.New("test has no question groups")
	ErrNotCompleted    = errors.New("session not completed")
	ErrAutoplayDenied  = errors.New("autoplay denied")
	ErrNoAudio         = errors.New("current group has no audio to play")
)
