package editor

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/vexedit/vexedit"
	"github.com/vexedit/vexedit/config"
	"gopkg.in/yaml.v3"
)

type (
	// KeyEvent is a key press. Name is the upper case letter or digit, or
	// the name of a special key such as "Enter" or "Backspace".
	KeyEvent struct {
		Name  string
		Ctrl  bool
		Shift bool
		Alt   bool
	}

	KeyAction string

	KeyBinding struct {
		Key              string
		Ctrl, Shift, Alt bool
		Action           string
	}
)

var keyBindingMap = map[KeyEvent]string{}
var keyActionMap = map[KeyAction]string{} // holds an informative string of the last key bound to an action

//go:embed keybindings.yml
var defaultKeyBindings []byte

func init() {
	var keyBindings, userKeyBindings []KeyBinding
	dec := yaml.NewDecoder(bytes.NewReader(defaultKeyBindings))
	dec.KnownFields(true)
	if err := dec.Decode(&keyBindings); err != nil {
		panic(fmt.Errorf("failed to unmarshal default keybindings: %w", err))
	}
	if _, err := config.ReadCustomConfigYml("keybindings.yml", &userKeyBindings); err == nil {
		keyBindings = append(keyBindings, userKeyBindings...)
	}
	for _, kb := range keyBindings {
		bind(kb)
	}
}

func bind(kb KeyBinding) {
	e := KeyEvent{Name: strings.ToUpper(kb.Key), Ctrl: kb.Ctrl, Shift: kb.Shift, Alt: kb.Alt}
	if len(kb.Key) > 1 {
		e.Name = kb.Key
	}
	if action, ok := keyBindingMap[e]; ok { // if this key has been previously bound, remove it from the hint map
		delete(keyActionMap, KeyAction(action))
	}
	if kb.Action == "" {
		delete(keyBindingMap, e)
		return
	}
	keyBindingMap[e] = kb.Action
	keyActionMap[KeyAction(kb.Action)] = e.String()
}

// KeyHint returns a description of the key bound to action, e.g. "Ctrl+Z",
// or an empty string if the action is not bound.
func KeyHint(action string) string {
	return keyActionMap[KeyAction(action)]
}

func (e KeyEvent) String() string {
	var mods []string
	if e.Ctrl {
		mods = append(mods, "Ctrl")
	}
	if e.Shift {
		mods = append(mods, "Shift")
	}
	if e.Alt {
		mods = append(mods, "Alt")
	}
	return strings.Join(append(mods, e.Name), "+")
}

// KeyEvent performs the action bound to the key. Returns false if the key is
// not bound to anything.
func (m *Model) KeyEvent(e KeyEvent) (bool, error) {
	if len(e.Name) == 1 {
		e.Name = strings.ToUpper(e.Name)
	}
	action, ok := keyBindingMap[e]
	if !ok {
		return false, nil
	}
	return true, m.Do(action)
}

// Do performs an action by its name, as used in the key bindings.
func (m *Model) Do(action string) error {
	switch action {
	case "DurationWhole":
		return m.setDurationValue(1)
	case "DurationHalf":
		return m.setDurationValue(2)
	case "DurationQuarter":
		return m.setDurationValue(4)
	case "DurationEighth":
		return m.setDurationValue(8)
	case "DurationSixteenth":
		return m.setDurationValue(16)
	case "DurationThirtySecond":
		return m.setDurationValue(32)
	case "ToggleDot":
		d := m.d.Duration
		d.Dots = (d.Dots + 1) % (vexedit.MaxDots + 1)
		return m.SetDuration(d.Code())
	case "ToggleTriplet":
		d := m.d.Duration
		d.Triplet = !d.Triplet
		return m.SetDuration(d.Code())
	case "Rest":
		return m.HoverRest(m.d.Current)
	case "Play":
		return m.Play()
	case "Click":
		return m.Click()
	case "Backspace":
		return m.Backspace()
	case "RemovePendingNotes":
		m.RemovePendingNotes()
	case "AddMeasure":
		m.RemovePendingNotes()
		i, err := m.AddMeasure()
		if err == nil {
			m.d.Current = i
		}
		return err
	case "Undo":
		m.Undo()
	case "Redo":
		m.Redo()
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

func (m *Model) setDurationValue(value int) error {
	d := m.d.Duration
	d.Value = value
	return m.SetDuration(d.Code())
}
