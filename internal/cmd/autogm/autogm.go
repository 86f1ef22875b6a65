// Package autogm parses the session runner's flags and launches it.
package autogm

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/lorekeep/autogm/internal/ai"
	"github.com/lorekeep/autogm/internal/autogm/service"
	"github.com/lorekeep/autogm/internal/platform/config"
	"github.com/lorekeep/autogm/internal/platform/otel"
	"github.com/lorekeep/autogm/internal/platform/timeouts"
	"github.com/lorekeep/autogm/internal/storage/sqlite"
)

// Actions the runner can execute against a party.
const (
	ActionAdvance = "advance"
	ActionCombat  = "combat"
	ActionNext    = "next"
	ActionEnd     = "end"
)

// Config holds session runner configuration.
type Config struct {
	DBPath        string `env:"AUTOGM_DB_PATH" envDefault:"data/autogm.db"`
	OpenAIKey     string `env:"AUTOGM_OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"AUTOGM_OPENAI_BASE_URL"`
	Model         string `env:"AUTOGM_OPENAI_MODEL"`
	ImageModel    string `env:"AUTOGM_OPENAI_IMAGE_MODEL"`
	SpeechModel   string `env:"AUTOGM_OPENAI_SPEECH_MODEL"`
	Voice         string `env:"AUTOGM_VOICE" envDefault:"alloy"`
	// Interval between turns when looping; zero runs the action once.
	Interval time.Duration `env:"AUTOGM_TURN_INTERVAL" envDefault:"0s"`

	PartyID string
	Action  string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.Voice, "voice", cfg.Voice, "Default narration voice")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Delay between turns; 0 runs once")
	fs.StringVar(&cfg.PartyID, "party", cfg.PartyID, "The party to drive")
	fs.StringVar(&cfg.Action, "action", ActionAdvance, "Turn action: advance, combat, next, or end")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.PartyID == "" {
		return Config{}, fmt.Errorf("a party id is required")
	}
	switch cfg.Action {
	case ActionAdvance, ActionCombat, ActionNext, ActionEnd:
	default:
		return Config{}, fmt.Errorf("unknown action %q", cfg.Action)
	}
	return cfg, nil
}

// Run starts the session runner: it opens the store, wires the AI client,
// and drives the configured action until the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "autogm")
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("telemetry shutdown err=%v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.Model,
		ImageModel:  cfg.ImageModel,
		SpeechModel: cfg.SpeechModel,
	})
	if err != nil {
		return fmt.Errorf("init ai client: %w", err)
	}

	svc, err := service.New(service.Config{
		Stores: store.Stores(),
		Client: client,
		Voice:  cfg.Voice,
	})
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	if cfg.Interval <= 0 {
		return runAction(ctx, svc, cfg)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		if err := runAction(ctx, svc, cfg); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func runAction(ctx context.Context, svc *service.Service, cfg Config) error {
	switch cfg.Action {
	case ActionAdvance:
		return svc.Advance(ctx, cfg.PartyID)
	case ActionCombat:
		return svc.RunCombatRound(ctx, cfg.PartyID)
	case ActionNext:
		scene, err := svc.GetNextScene(ctx, cfg.PartyID, true)
		if err != nil {
			return err
		}
		log.Printf("pending scene party_id=%s scene_id=%s mode=%s", cfg.PartyID, scene.ID, scene.Mode)
		return nil
	case ActionEnd:
		return svc.EndSession(ctx, cfg.PartyID)
	}
	return fmt.Errorf("unknown action %q", cfg.Action)
}
