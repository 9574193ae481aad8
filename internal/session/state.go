package session

import "sync"

// State holds the user-controlled session options. It is shared by the
// control surface and the transcription worker.
type State struct {
	mu          sync.RWMutex
	recording   bool
	deviceID    string
	language    string
	diarization bool
}

// NewState creates session state with the given defaults.
func NewState(language string, diarization bool) *State {
	return &State{language: language, diarization: diarization}
}

// Language returns the transcription language code.
func (s *State) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage changes the language used for subsequent chunks.
func (s *State) SetLanguage(language string) {
	s.mu.Lock()
	s.language = language
	s.mu.Unlock()
}

// DiarizationEnabled reports whether chunks are split into speaker turns.
func (s *State) DiarizationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diarization
}

// SetDiarization toggles speaker turn labelling for subsequent chunks.
func (s *State) SetDiarization(enabled bool) {
	s.mu.Lock()
	s.diarization = enabled
	s.mu.Unlock()
}

// Recording reports whether capture is active.
func (s *State) Recording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

// DeviceID returns the selected input device ("" for the default).
func (s *State) DeviceID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID
}

func (s *State) setRecording(recording bool, deviceID string) {
	s.mu.Lock()
	s.recording = recording
	if recording {
		s.deviceID = deviceID
	}
	s.mu.Unlock()
}
