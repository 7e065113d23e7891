package dialogue

// State is a node in the per-identity conversation state machine.
type State int

const (
	StateIdle State = iota
	StateTopicMenu
	StateAwaitingNewTopicName
	StateAwaitingTopicChoice
	StateAwaitingTopicDeleteChoice
	StateModelMenu
	StateAwaitingModelChoice
	StateChatting
	StateAwaitingImagePrompt
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTopicMenu:
		return "topic_menu"
	case StateAwaitingNewTopicName:
		return "awaiting_new_topic_name"
	case StateAwaitingTopicChoice:
		return "awaiting_topic_choice"
	case StateAwaitingTopicDeleteChoice:
		return "awaiting_topic_delete_choice"
	case StateModelMenu:
		return "model_menu"
	case StateAwaitingModelChoice:
		return "awaiting_model_choice"
	case StateChatting:
		return "chatting"
	case StateAwaitingImagePrompt:
		return "awaiting_image_prompt"
	default:
		return "unknown"
	}
}

// Session is the transient per-identity conversation state. It never
// survives a restart; every machine starts back at idle.
type Session struct {
	State State
}

func (s *Session) reset() {
	s.State = StateIdle
}
