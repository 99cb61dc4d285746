package mealplan

import "time"

// Settings sizes the generation horizon. Zero fields take the defaults.
type Settings struct {
	InitialDays   int
	ChunkDays     int
	ExtendDays    int
	ChunkTimeout  time.Duration
	ParseAttempts int
}

func DefaultSettings() Settings {
	return Settings{
		InitialDays:   7,
		ChunkDays:     7,
		ExtendDays:    7,
		ChunkTimeout:  120 * time.Second,
		ParseAttempts: 2,
	}
}

func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.InitialDays <= 0 {
		s.InitialDays = d.InitialDays
	}
	if s.ChunkDays <= 0 {
		s.ChunkDays = d.ChunkDays
	}
	if s.ExtendDays <= 0 {
		s.ExtendDays = d.ExtendDays
	}
	if s.ChunkTimeout <= 0 {
		s.ChunkTimeout = d.ChunkTimeout
	}
	if s.ParseAttempts <= 0 {
		s.ParseAttempts = d.ParseAttempts
	}
	return s
}
