package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind discriminates user input.
type ActionKind string

const (
	ActionStart        ActionKind = "book"
	ActionPickDuration ActionKind = "duration"
	ActionPickDate     ActionKind = "date"
	ActionPickTime     ActionKind = "time"
	ActionBack         ActionKind = "back"
	ActionContact      ActionKind = "contact"
	ActionCancel       ActionKind = "cancel"
)

// ErrUnknownAction is returned for callback data the bot never produces.
var ErrUnknownAction = errors.New("unknown action")

// Action is one step of user input. Value holds the selection of pick
// actions and the free text of ActionContact.
type Action struct {
	Kind  ActionKind
	Value string
}

func StartAction() Action              { return Action{Kind: ActionStart} }
func BackAction() Action               { return Action{Kind: ActionBack} }
func CancelAction() Action             { return Action{Kind: ActionCancel} }
func ContactAction(text string) Action { return Action{Kind: ActionContact, Value: text} }
func PickDuration(minutes int) Action  { return Action{Kind: ActionPickDuration, Value: strconv.Itoa(minutes)} }
func PickDate(yyyymmdd string) Action  { return Action{Kind: ActionPickDate, Value: yyyymmdd} }
func PickTime(hhmm string) Action      { return Action{Kind: ActionPickTime, Value: hhmm} }

// Data renders the action as inline button callback data, e.g.
// "duration:90" or "back".
func (a Action) Data() string {
	if a.Value == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + ":" + a.Value
}

// IsCallback reports whether the action arrives from an inline button.
func (a Action) IsCallback() bool {
	return a.Kind != ActionContact && a.Kind != ActionCancel
}

// ParseCallback parses inline button data produced by Data.
func ParseCallback(data string) (Action, error) {
	kind, value, _ := strings.Cut(data, ":")
	switch ActionKind(kind) {
	case ActionStart, ActionBack:
		if value != "" {
			break
		}
		return Action{Kind: ActionKind(kind)}, nil
	case ActionPickDuration, ActionPickDate, ActionPickTime:
		if value == "" {
			break
		}
		return Action{Kind: ActionKind(kind), Value: value}, nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}
