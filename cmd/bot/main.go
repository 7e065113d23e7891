package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mfroehner/topicgpt/internal/config"
	"github.com/mfroehner/topicgpt/internal/dialogue"
	"github.com/mfroehner/topicgpt/internal/genai"
	"github.com/mfroehner/topicgpt/internal/prompt"
	"github.com/mfroehner/topicgpt/internal/store"
	"github.com/mfroehner/topicgpt/internal/telegram"
	"github.com/mfroehner/topicgpt/internal/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("TOPICGPT_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfgPath := os.Getenv("TOPICGPT_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	if err := store.InitSchema(db); err != nil {
		log.Fatal().Err(err).Msg("failed to init schema")
	}
	st := &store.Store{DB: db, MaxExchanges: cfg.MaxExchanges}

	catalog := genai.NewCatalog(cfg.AllowedModels, cfg.CurrentModel, cfg.SetCurrentModel)
	provider, err := newProvider(cfg, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init generation provider")
	}

	tg := telegram.NewClient(
		"https://api.telegram.org/bot"+cfg.TelegramToken,
		time.Duration(cfg.PollTimeoutSeconds+20)*time.Second,
	)

	engine := dialogue.New(cfg.AuthorizedUsers(), st, provider, catalog, &prompt.Builder{})
	disp := newDispatcher(engine, tg)

	log.Info().
		Str("provider", cfg.Provider).
		Str("model", catalog.Current()).
		Int("users", len(cfg.AuthorizedUsers())).
		Msg("bot started")

	var offset int64
	for {
		updates, err := tg.GetUpdates(offset, cfg.PollTimeoutSeconds)
		if err != nil {
			log.Warn().Err(err).Msg("poll failed")
			time.Sleep(3 * time.Second)
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == nil {
				continue
			}
			disp.dispatch(u.Message.Chat.ID, *u.Message.Text)
		}
	}
}

func newProvider(cfg *config.Config, catalog *genai.Catalog) (genai.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return genai.NewOpenAIClient(
			cfg.OpenAIKey, catalog,
			time.Duration(cfg.GenTimeoutSeconds)*time.Second,
			int64(cfg.MaxInFlight),
		), nil
	case "dummy":
		return &genai.Dummy{Catalog: catalog}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

type inbound struct {
	identity int64
	text     string
}

// dispatcher gives every identity its own worker goroutine so one user's
// slow generation never delays another user, while messages from the same
// identity stay strictly ordered.
type dispatcher struct {
	engine *dialogue.Engine
	tg     transport.Transport

	mu     sync.Mutex
	queues map[int64]chan inbound
}

func newDispatcher(engine *dialogue.Engine, tg transport.Transport) *dispatcher {
	return &dispatcher{engine: engine, tg: tg, queues: make(map[int64]chan inbound)}
}

func (d *dispatcher) dispatch(identity int64, text string) {
	d.mu.Lock()
	q, ok := d.queues[identity]
	if !ok {
		q = make(chan inbound, 16)
		d.queues[identity] = q
		go d.run(q)
	}
	d.mu.Unlock()

	select {
	case q <- inbound{identity: identity, text: text}:
	default:
		log.Warn().Int64("identity", identity).Msg("inbound queue full, message dropped")
	}
}

func (d *dispatcher) run(q chan inbound) {
	for msg := range q {
		reply := d.engine.HandleMessage(context.Background(), msg.identity, msg.text)
		if reply.Text == "" {
			continue
		}
		if err := d.tg.Send(msg.identity, reply); err != nil {
			log.Warn().Err(err).Int64("identity", msg.identity).Msg("send failed")
		}
	}
}
