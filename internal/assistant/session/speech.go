package session

import "errors"

// ErrSpeechUnavailable is returned by inputs that cannot capture speech.
var ErrSpeechUnavailable = errors.New("speech recognition not supported")

// Recognition error codes that end a dictation for good. Any other code
// (no-speech, aborted) is ignored and the recognizer restarts on end.
const (
	SpeechErrNetwork    = "network"
	SpeechErrNotAllowed = "not-allowed"
)

// SpeechInput drives a recognizer. Results, ends and errors come back
// through Session.OnTranscript, Session.OnEnd and Session.OnError.
type SpeechInput interface {
	Available() bool
	Start() error
	Stop()
}

type SpeechOutput interface {
	Speak(text string)
}

// NoSpeech is the input and output used where no voice hardware exists.
type NoSpeech struct{}

func (NoSpeech) Available() bool { return false }
func (NoSpeech) Start() error    { return ErrSpeechUnavailable }
func (NoSpeech) Stop()           {}
func (NoSpeech) Speak(string)    {}
