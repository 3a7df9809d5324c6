package session

import "strings"

// ToggleListening starts dictation when idle and stops it otherwise.
func (s *Session) ToggleListening() {
	if s.Listening() {
		s.StopListening()
		return
	}
	s.StartListening()
}

// StartListening begins dictation into the compose buffer. Text already in
// the buffer is kept as a prefix for the transcript.
func (s *Session) StartListening() {
	if !s.speechIn.Available() {
		s.sink.Notify(notifyUnsupported)
		return
	}

	s.mu.Lock()
	s.keepAlive = true
	s.committed = s.input
	s.mu.Unlock()

	if err := s.speechIn.Start(); err != nil {
		s.setListening(false, false)
		return
	}
	s.setListening(true, true)
}

func (s *Session) StopListening() {
	s.mu.Lock()
	s.keepAlive = false
	s.mu.Unlock()
	s.speechIn.Stop()
	s.setListening(false, false)
}

// OnTranscript replaces the compose buffer with the committed prefix and
// the full transcript of the current recognition run.
func (s *Session) OnTranscript(transcript string) {
	s.mu.Lock()
	prefix := s.committed
	spacer := ""
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		spacer = " "
	}
	s.input = prefix + spacer + transcript
	text := s.input
	s.mu.Unlock()

	s.sink.InputChanged(text)
}

// OnEnd restarts recognition unless the user stopped it. A restart commits
// the current buffer as the new prefix.
func (s *Session) OnEnd() {
	s.mu.Lock()
	restart := s.keepAlive
	if restart {
		s.committed = s.input
	}
	s.mu.Unlock()

	if !restart {
		s.setListening(false, false)
		return
	}
	if err := s.speechIn.Start(); err != nil {
		s.setListening(false, false)
	}
}

// OnError handles a recognizer error code. Network and permission errors
// stop dictation and notify; anything else is ignored.
func (s *Session) OnError(code string) {
	var n Notification
	switch code {
	case SpeechErrNetwork:
		n = notifyNetwork
	case SpeechErrNotAllowed:
		n = notifyNotAllowed
	default:
		return
	}
	s.setListening(false, false)
	s.sink.Notify(n)
}

func (s *Session) setListening(listening, keepAlive bool) {
	s.mu.Lock()
	changed := s.listening != listening
	s.listening = listening
	s.keepAlive = keepAlive
	s.mu.Unlock()
	if changed {
		s.sink.ListeningChanged(listening)
	}
}
