package sidebar

import (
	"strconv"

	"github.com/charmbracelet/bubbles/key"

	"parley/translate"
)

type KeyMap struct {
	Listen    key.Binding
	Translate key.Binding
	Language  key.Binding
	Pick      []key.Binding // one per translate.Languages entry
}

func DefaultKeyMap() KeyMap {
	km := KeyMap{
		Listen:    key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "start/stop")),
		Translate: key.NewBinding(key.WithKeys("t", "enter"), key.WithHelp("t", "translate")),
		Language:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "language")),
	}
	for i, lang := range translate.Languages {
		n := strconv.Itoa(i + 1)
		km.Pick = append(km.Pick, key.NewBinding(key.WithKeys(n), key.WithHelp(n, lang.Name())))
	}
	return km
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Listen, k.Translate, k.Language}
}
