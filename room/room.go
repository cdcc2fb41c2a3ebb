// Package room holds the in-call screen state that is not the caption
// sidebar: the call layout, the participant panel and the invite link.
package room

import (
	"fmt"
	"strings"
)

type Layout int

const (
	LayoutSpeakerLeft Layout = iota
	LayoutSpeakerRight
	LayoutGrid
)

var layoutNames = map[Layout]string{
	LayoutGrid:         "grid",
	LayoutSpeakerLeft:  "speaker-left",
	LayoutSpeakerRight: "speaker-right",
}

func (l Layout) String() string {
	if n, ok := layoutNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// Next cycles grid -> speaker-left -> speaker-right -> grid.
func (l Layout) Next() Layout {
	switch l {
	case LayoutGrid:
		return LayoutSpeakerLeft
	case LayoutSpeakerLeft:
		return LayoutSpeakerRight
	default:
		return LayoutGrid
	}
}

// ParseLayout accepts the names printed by String.
func ParseLayout(s string) (Layout, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, n := range layoutNames {
		if n == s {
			return l, true
		}
	}
	return LayoutSpeakerLeft, false
}

// State is the toggle state of the room screen.
type State struct {
	Layout           Layout
	ShowParticipants bool
}

func (s *State) CycleLayout()        { s.Layout = s.Layout.Next() }
func (s *State) ToggleParticipants() { s.ShowParticipants = !s.ShowParticipants }
