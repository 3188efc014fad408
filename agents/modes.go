package agents

// Mode enumerates the two response strategies of the assistant.
type Mode string

const (
	ModeAnswer  Mode = "answer"
	ModeAction  Mode = "action"
	defaultMode      = ModeAnswer
)

// ToolScope defines the rough permission envelope for a mode.
type ToolScope struct {
	AllowRead  bool
	AllowWrite bool
}

// ModeProfile bundles temperature, tooling envelope, and documentation for a
// mode so the core treats every request of that mode the same way.
type ModeProfile struct {
	Name         Mode
	Title        string
	Description  string
	Temperature  float64
	ToolScope    ToolScope
	Restrictions []string
}

func defaultModeProfiles() map[Mode]ModeProfile {
	return map[Mode]ModeProfile{
		ModeAnswer: {
			Name:        ModeAnswer,
			Title:       "ANSWER MODE",
			Description: "Explanation only, no code.",
			Temperature: 0.2,
			ToolScope:   ToolScope{AllowRead: true},
			Restrictions: []string{
				"No filesystem writes",
			},
		},
		ModeAction: {
			Name:        ModeAction,
			Title:       "ACTION MODE",
			Description: "Code first, then explanation; code is written to the target file.",
			Temperature: 0.1,
			ToolScope:   ToolScope{AllowRead: true, AllowWrite: true},
		},
	}
}

// ProfileFor returns the profile of mode, falling back to answer mode.
func ProfileFor(mode Mode) ModeProfile {
	profiles := defaultModeProfiles()
	if p, ok := profiles[mode]; ok {
		return p
	}
	return profiles[defaultMode]
}
