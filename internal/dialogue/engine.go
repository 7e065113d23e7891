package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mfroehner/topicgpt/internal/config"
	"github.com/mfroehner/topicgpt/internal/genai"
	"github.com/mfroehner/topicgpt/internal/i18n"
	"github.com/mfroehner/topicgpt/internal/profile"
	"github.com/mfroehner/topicgpt/internal/prompt"
	"github.com/mfroehner/topicgpt/internal/store"
	"github.com/mfroehner/topicgpt/internal/transport"
)

// ProfileStore is the persistence surface the engine needs. *store.Store
// satisfies it.
type ProfileStore interface {
	Load(identity int64) (*profile.Profile, error)
	Create(identity int64, displayName, language string) (*profile.Profile, error)
	Persist(p *profile.Profile) error
}

// Engine routes each inbound message through the owner's dialogue session.
// One session exists per authorized identity; unauthorized identities get
// a fixed denial and never enter a stateful flow.
type Engine struct {
	users    map[int64]config.User
	store    ProfileStore
	provider genai.Provider
	catalog  *genai.Catalog
	builder  *prompt.Builder

	mu       sync.Mutex
	sessions map[int64]*Session
}

// New creates the dialogue engine.
func New(users map[int64]config.User, st ProfileStore, provider genai.Provider, catalog *genai.Catalog, builder *prompt.Builder) *Engine {
	return &Engine{
		users:    users,
		store:    st,
		provider: provider,
		catalog:  catalog,
		builder:  builder,
		sessions: make(map[int64]*Session),
	}
}

// HandleMessage processes one inbound message and returns the outbound
// reply. An empty reply text means nothing is sent.
func (e *Engine) HandleMessage(ctx context.Context, identity int64, text string) transport.Reply {
	user, ok := e.users[identity]
	if !ok {
		return transport.Reply{Text: i18n.T("en", "not_authorized")}
	}

	sess := e.session(identity)
	prof, err := e.loadOrCreate(identity, user)
	if err != nil {
		log.Error().Err(err).Int64("identity", identity).Msg("failed to load profile")
		return transport.Reply{Text: i18n.T(user.Language, "storage_error")}
	}
	lang := prof.Language
	text = strings.TrimSpace(text)

	// /cancel aborts any interaction, including a chat session.
	if text == "/cancel" {
		sess.reset()
		return transport.Reply{Text: i18n.T(lang, "ok")}
	}

	switch sess.State {
	case StateIdle:
		return e.handleIdle(ctx, sess, prof, lang, text)
	case StateTopicMenu:
		return e.handleTopicMenu(sess, prof, lang, text)
	case StateAwaitingNewTopicName:
		return e.handleNewTopicName(sess, prof, lang, text)
	case StateAwaitingTopicChoice:
		return e.handleTopicChoice(sess, prof, lang, text)
	case StateAwaitingTopicDeleteChoice:
		return e.handleTopicDeleteChoice(sess, prof, lang, text)
	case StateModelMenu:
		return e.handleModelMenu(ctx, sess, prof, lang, text)
	case StateAwaitingModelChoice:
		return e.handleModelChoice(ctx, sess, prof, lang, text)
	case StateChatting:
		return e.handleChatting(ctx, prof, lang, text)
	case StateAwaitingImagePrompt:
		return e.handleImagePrompt(ctx, sess, prof, lang, text)
	default:
		sess.reset()
		return transport.Reply{}
	}
}

func (e *Engine) handleIdle(ctx context.Context, sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	switch text {
	case "/start", "/help", "/h":
		return transport.Reply{Text: i18n.T(lang, "welcome")}
	case "/topic":
		sess.State = StateTopicMenu
		return topicMenuReply(lang)
	case "/model":
		sess.State = StateModelMenu
		return modelMenuReply(lang)
	case "/chat":
		sess.State = StateChatting
		return transport.Reply{Text: i18n.T(lang, "chat_started")}
	case "/image":
		sess.State = StateAwaitingImagePrompt
		return transport.Reply{Text: i18n.T(lang, "image_prompt")}
	}
	if text == "" || strings.HasPrefix(text, "/") {
		// Empty input and unknown commands are ignored.
		return transport.Reply{}
	}
	// Free text enters chat implicitly and is answered right away.
	sess.State = StateChatting
	return e.chatRoundTrip(ctx, prof, lang, text)
}

func (e *Engine) handleTopicMenu(sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	switch text {
	case i18n.T(lang, "menu_new_topic"):
		sess.State = StateAwaitingNewTopicName
		return transport.Reply{Text: i18n.T(lang, "ask_topic_name")}

	case i18n.T(lang, "menu_existing_topic"):
		names := prof.TopicNames()
		if len(names) == 0 {
			sess.reset()
			return transport.Reply{Text: i18n.T(lang, "no_topics")}
		}
		sess.State = StateAwaitingTopicChoice
		return transport.Reply{Text: i18n.T(lang, "your_topics"), Choices: names}

	case i18n.T(lang, "menu_no_topic"):
		sess.reset()
		prof.ClearActiveTopic()
		return e.withSaveWarning(prof, lang, i18n.T(lang, "ok"))

	case i18n.T(lang, "menu_show_topic"):
		sess.reset()
		if prof.HasActiveTopic() {
			return transport.Reply{Text: fmt.Sprintf(i18n.T(lang, "current_topic"), prof.ActiveTopic)}
		}
		return transport.Reply{Text: i18n.T(lang, "no_current_topic")}

	case i18n.T(lang, "menu_delete_topic"):
		names := prof.TopicNames()
		if len(names) == 0 {
			sess.reset()
			return transport.Reply{Text: i18n.T(lang, "no_topics")}
		}
		sess.State = StateAwaitingTopicDeleteChoice
		return transport.Reply{Text: i18n.T(lang, "your_topics"), Choices: names}

	case i18n.T(lang, "menu_cancel"):
		sess.reset()
		return transport.Reply{Text: i18n.T(lang, "ok")}
	}
	// Anything else re-prompts the menu.
	return topicMenuReply(lang)
}

func (e *Engine) handleNewTopicName(sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	sess.reset()
	outcome, err := prof.CreateTopic(text)
	if err != nil {
		return transport.Reply{Text: i18n.T(lang, "invalid_topic_name")}
	}
	key := "topic_created"
	if outcome == profile.TopicReactivated {
		key = "topic_reactivated"
	}
	return e.withSaveWarning(prof, lang, i18n.T(lang, key))
}

func (e *Engine) handleTopicChoice(sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	sess.reset()
	if err := prof.ActivateTopic(text); err != nil {
		return transport.Reply{Text: fmt.Sprintf(i18n.T(lang, "topic_not_found"), text)}
	}
	return e.withSaveWarning(prof, lang, i18n.T(lang, "ok"))
}

func (e *Engine) handleTopicDeleteChoice(sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	sess.reset()
	if err := prof.DeleteTopic(text); err != nil {
		return transport.Reply{Text: fmt.Sprintf(i18n.T(lang, "topic_not_found"), text)}
	}
	return e.withSaveWarning(prof, lang, i18n.T(lang, "ok"))
}

func (e *Engine) handleModelMenu(ctx context.Context, sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	switch text {
	case i18n.T(lang, "menu_show_model"):
		sess.reset()
		return transport.Reply{Text: fmt.Sprintf(i18n.T(lang, "current_model"), e.catalog.Current())}

	case i18n.T(lang, "menu_choose_model"):
		models, err := e.provider.AvailableModels(ctx)
		if err != nil {
			sess.reset()
			return transport.Reply{Text: err.Error()}
		}
		if len(models) == 0 {
			sess.reset()
			return transport.Reply{Text: i18n.T(lang, "no_models")}
		}
		sess.State = StateAwaitingModelChoice
		return transport.Reply{Text: i18n.T(lang, "choose_model"), Choices: models}

	case i18n.T(lang, "menu_cancel"):
		sess.reset()
		return transport.Reply{Text: i18n.T(lang, "ok")}
	}
	return modelMenuReply(lang)
}

func (e *Engine) handleModelChoice(ctx context.Context, sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	sess.reset()

	models, err := e.provider.AvailableModels(ctx)
	if err != nil {
		return transport.Reply{Text: err.Error()}
	}
	if err := e.catalog.SetModel(text, models); err != nil {
		if errors.Is(err, genai.ErrModelNotAllowed) {
			return transport.Reply{Text: fmt.Sprintf(i18n.T(lang, "model_rejected"), text)}
		}
		log.Error().Err(err).Str("model", text).Msg("failed to persist model selection")
		return transport.Reply{Text: err.Error()}
	}

	prof.PreferredModel = text
	return e.withSaveWarning(prof, lang, fmt.Sprintf(i18n.T(lang, "model_set"), text))
}

func (e *Engine) handleChatting(ctx context.Context, prof *profile.Profile, lang, text string) transport.Reply {
	if text == "" || strings.HasPrefix(text, "/") {
		// Chat sessions are sticky: other commands are swallowed here.
		return transport.Reply{}
	}
	return e.chatRoundTrip(ctx, prof, lang, text)
}

func (e *Engine) handleImagePrompt(ctx context.Context, sess *Session, prof *profile.Profile, lang, text string) transport.Reply {
	sess.reset()

	requestID := uuid.NewString()
	log.Debug().
		Str("request_id", requestID).
		Int64("identity", prof.Identity).
		Msg("image round trip")

	url, err := e.provider.GenerateImage(ctx, text)
	if err != nil {
		log.Warn().Str("request_id", requestID).Err(err).Msg("image generation failed")
		return transport.Reply{Text: err.Error()}
	}
	return transport.Reply{Text: url}
}

// chatRoundTrip runs one generation exchange. With an active topic the
// exchange is appended to its history and persisted; without one the chat
// is context-free and nothing is stored. On a generation error the error
// message itself is the reply and no history entry is written.
func (e *Engine) chatRoundTrip(ctx context.Context, prof *profile.Profile, lang, text string) transport.Reply {
	payload := e.builder.Build(prof.HistoryOf(prof.ActiveTopic), text)
	model := prof.PreferredModel
	if model == "" {
		model = e.catalog.Current()
	}

	requestID := uuid.NewString()
	log.Debug().
		Str("request_id", requestID).
		Int64("identity", prof.Identity).
		Str("model", model).
		Str("topic", prof.ActiveTopic).
		Msg("generation round trip")

	answer, err := e.provider.GenerateText(ctx, model, payload)
	if err != nil {
		log.Warn().Str("request_id", requestID).Err(err).Msg("generation failed")
		return transport.Reply{Text: err.Error()}
	}

	if prof.HasActiveTopic() {
		topicName := prof.ActiveTopic
		if err := prof.AppendAndTruncate(topicName, text); err == nil {
			_ = prof.AppendAndTruncate(topicName, answer)
		}
		return e.withSaveWarning(prof, lang, answer)
	}
	return transport.Reply{Text: answer}
}

// withSaveWarning persists the profile, retrying once, and appends a
// warning to the reply when the write still failed, so a lost change
// never goes unnoticed.
func (e *Engine) withSaveWarning(prof *profile.Profile, lang, replyText string) transport.Reply {
	if err := e.store.Persist(prof); err != nil {
		log.Warn().Err(err).Int64("identity", prof.Identity).Msg("persist failed, retrying once")
		if err := e.store.Persist(prof); err != nil {
			log.Error().Err(err).Int64("identity", prof.Identity).Msg("persist retry failed")
			return transport.Reply{Text: replyText + "\n\n" + i18n.T(lang, "save_warning")}
		}
	}
	return transport.Reply{Text: replyText}
}

func (e *Engine) session(identity int64) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[identity]
	if !ok {
		sess = &Session{State: StateIdle}
		e.sessions[identity] = sess
	}
	return sess
}

func (e *Engine) loadOrCreate(identity int64, user config.User) (*profile.Profile, error) {
	prof, err := e.store.Load(identity)
	if errors.Is(err, store.ErrNotFound) {
		return e.store.Create(identity, user.DisplayName, user.Language)
	}
	return prof, err
}

func topicMenuReply(lang string) transport.Reply {
	return transport.Reply{
		Text: i18n.T(lang, "topic_menu"),
		Choices: []string{
			i18n.T(lang, "menu_new_topic"),
			i18n.T(lang, "menu_existing_topic"),
			i18n.T(lang, "menu_no_topic"),
			i18n.T(lang, "menu_show_topic"),
			i18n.T(lang, "menu_delete_topic"),
			i18n.T(lang, "menu_cancel"),
		},
	}
}

func modelMenuReply(lang string) transport.Reply {
	return transport.Reply{
		Text: i18n.T(lang, "model_menu"),
		Choices: []string{
			i18n.T(lang, "menu_show_model"),
			i18n.T(lang, "menu_choose_model"),
			i18n.T(lang, "menu_cancel"),
		},
	}
}
