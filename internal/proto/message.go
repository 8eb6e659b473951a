package proto

import (
	"fmt"
	"strings"
)

// MessageType identifies the kind of a Message.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageSchema
	MessageOption
	MessageDeploy
	MessageResponse
	MessageKey
)

var messageTypeNames = [...]string{
	MessageUnknown:  "unknown",
	MessageSchema:   "schema",
	MessageOption:   "option",
	MessageDeploy:   "deploy",
	MessageResponse: "response",
	MessageKey:      "key",
}

func (t MessageType) String() string {
	if t < 0 || int(t) >= len(messageTypeNames) {
		return "unknown"
	}
	return messageTypeNames[t]
}

// ParseMessageType maps an engine notification type ("schema", "option",
// "deploy") to a MessageType.
func ParseMessageType(s string) MessageType {
	for i, name := range messageTypeNames {
		if name == s {
			return MessageType(i)
		}
	}
	return MessageUnknown
}

// Message is delivered to the host whenever the engine has something to say.
type Message interface {
	Type() MessageType
}

// UnknownMessage carries parameters that could not be decoded.
type UnknownMessage struct {
	Params []any
}

func (UnknownMessage) Type() MessageType { return MessageUnknown }

// SchemaMessage reports the schema a session switched to.
type SchemaMessage struct {
	Schema SchemaListItem
}

func (SchemaMessage) Type() MessageType { return MessageSchema }

func (m SchemaMessage) String() string {
	return fmt.Sprintf("SchemaMessage(id=%s, name=%s)", m.Schema.SchemaID, m.Schema.Name)
}

// OptionMessage reports an option toggle.
type OptionMessage struct {
	Option string
	Value  bool
}

func (OptionMessage) Type() MessageType { return MessageOption }

func (m OptionMessage) String() string {
	return fmt.Sprintf("OptionMessage(option=%s, value=%t)", m.Option, m.Value)
}

// DeployState is the phase of a maintenance run.
type DeployState int

const (
	DeployStart DeployState = iota
	DeploySuccess
	DeployFailure
)

func (s DeployState) String() string {
	switch s {
	case DeployStart:
		return "Start"
	case DeploySuccess:
		return "Success"
	case DeployFailure:
		return "Failure"
	default:
		return "Unknown"
	}
}

// DeployMessage reports deployment progress.
type DeployMessage struct {
	State DeployState
}

func (DeployMessage) Type() MessageType { return MessageDeploy }

func (m DeployMessage) String() string {
	return fmt.Sprintf("DeployMessage(state=%s)", m.State)
}

// ResponseMessage is the engine's full reply to a key event.
type ResponseMessage struct {
	Commit  Commit
	Context Context
	Status  Status
}

func (ResponseMessage) Type() MessageType { return MessageResponse }

func (m ResponseMessage) String() string {
	cands := m.Context.Menu.Candidates
	if len(cands) > 5 {
		cands = cands[:5]
	}
	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = c.String()
	}
	return fmt.Sprintf("ResponseMessage(candidates=[%s], ...)", strings.Join(parts, ", "))
}

// KeyMessage reports a key the engine did not handle.
type KeyMessage struct {
	Keycode   int
	Modifiers int
	Unicode   int
}

func (KeyMessage) Type() MessageType { return MessageKey }

// NewMessage decodes positional parameters into a Message. Parameters that do
// not have the expected shape produce an UnknownMessage.
//
//	schema:   "luna_pinyin/朙月拼音"
//	option:   "ascii_mode" or "!ascii_mode"
//	deploy:   "start", "success" or "failure"
//	response: Commit, Context, Status
//	key:      keycode, modifiers, unicode
func NewMessage(t MessageType, params []any) Message {
	switch t {
	case MessageSchema:
		if s, ok := stringParam(params, 0); ok {
			id, name, _ := strings.Cut(s, "/")
			return SchemaMessage{Schema: SchemaListItem{SchemaID: id, Name: name}}
		}
	case MessageOption:
		if s, ok := stringParam(params, 0); ok {
			return OptionMessage{
				Option: strings.TrimPrefix(s, "!"),
				Value:  !strings.HasPrefix(s, "!"),
			}
		}
	case MessageDeploy:
		if s, ok := stringParam(params, 0); ok {
			switch s {
			case "start":
				return DeployMessage{State: DeployStart}
			case "success":
				return DeployMessage{State: DeploySuccess}
			case "failure":
				return DeployMessage{State: DeployFailure}
			}
		}
	case MessageResponse:
		if len(params) == 3 {
			commit, ok1 := params[0].(Commit)
			ctx, ok2 := params[1].(Context)
			status, ok3 := params[2].(Status)
			if ok1 && ok2 && ok3 {
				return ResponseMessage{Commit: commit, Context: ctx, Status: status}
			}
		}
	case MessageKey:
		if len(params) == 3 {
			keycode, ok1 := params[0].(int)
			mods, ok2 := params[1].(int)
			unicode, ok3 := params[2].(int)
			if ok1 && ok2 && ok3 {
				return KeyMessage{Keycode: keycode, Modifiers: mods, Unicode: unicode}
			}
		}
	}
	return UnknownMessage{Params: params}
}

func stringParam(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	s, ok := params[i].(string)
	return s, ok
}
