package profile

import "sync"

// Provider identifies one of the known TTS backends. The set is closed:
// selecting provider behaviour is always a switch over these values.
type Provider string

const (
	ProviderEdge  Provider = "edge_tts"
	ProviderAzure Provider = "azure_tts"
	ProviderMelo  Provider = "melo_tts"
)

// EdgeSettings configures the edge_tts provider.
type EdgeSettings struct {
	Voice string `json:"voice"`
}

// AzureSettings configures the azure_tts provider.
type AzureSettings struct {
	Voice  string `json:"voice"`
	Region string `json:"region,omitempty"`
}

// MeloSettings configures the melo_tts provider.
type MeloSettings struct {
	Speaker string  `json:"speaker"`
	Speed   float32 `json:"speed,omitempty"`
}

// TTSSettings carries the active provider plus the typed settings of every
// known provider. Inactive variants keep their values so switching providers
// back and forth does not lose configuration.
type TTSSettings struct {
	Provider Provider      `json:"provider"`
	Edge     EdgeSettings  `json:"edge"`
	Azure    AzureSettings `json:"azure"`
	Melo     MeloSettings  `json:"melo"`
}

// Voice returns the voice identifier of the active provider.
func (s TTSSettings) Voice() string {
	switch s.Provider {
	case ProviderEdge:
		return s.Edge.Voice
	case ProviderAzure:
		return s.Azure.Voice
	case ProviderMelo:
		return s.Melo.Speaker
	}
	return ""
}

// WithVoice returns a copy with the voice of the active provider replaced.
func (s TTSSettings) WithVoice(voice string) TTSSettings {
	switch s.Provider {
	case ProviderEdge:
		s.Edge.Voice = voice
	case ProviderAzure:
		s.Azure.Voice = voice
	case ProviderMelo:
		s.Melo.Speaker = voice
	}
	return s
}

// Profile is the service configuration visible to a session. Sessions copy
// the current profile at accept time; a live session never observes later
// updates unless it explicitly reloads.
type Profile struct {
	Character string      `json:"character"`
	Avatar    string      `json:"avatar"`
	TTS       TTSSettings `json:"tts"`
}

// Update describes a partial profile change. Empty fields are left untouched.
type Update struct {
	Character string `json:"character,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Voice     string `json:"voice,omitempty"`
}

// Store holds the current profile snapshot. Reads return value copies and
// updates swap in a freshly built snapshot, so concurrent sessions never see
// a torn profile.
type Store struct {
	mu      sync.RWMutex
	current Profile
}

// NewStore seeds the store with the initial profile.
func NewStore(initial Profile) *Store {
	return &Store{current: initial}
}

// Current returns a copy of the active profile.
func (s *Store) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply builds a new snapshot from the current profile and the update, swaps
// it in, and returns the result. The previous snapshot is never mutated.
func (s *Store) Apply(u Update) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if u.Character != "" {
		next.Character = u.Character
	}
	if u.Avatar != "" {
		next.Avatar = u.Avatar
	}
	if u.Voice != "" {
		next.TTS = next.TTS.WithVoice(u.Voice)
	}

	s.current = next
	return next
}
