package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/extract"
	"cv-reviewer/internal/llm"
	"cv-reviewer/internal/llm/gemini"
	openai "cv-reviewer/internal/llm/openai"
	"cv-reviewer/internal/reviewer"
	"cv-reviewer/internal/reviews"
	"cv-reviewer/internal/services/health"
	"cv-reviewer/internal/shared/config"
	"cv-reviewer/internal/shared/server"
)

// App holds the constructed dependencies of one process.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	LLM           llm.Client
	Extractor     *extract.Pool
	Generator     *reviewer.Generator
	ReviewService *reviews.Service
	ReviewHandler *reviews.Handler
	Health        *health.Service
}

// Build constructs the provider client from cfg and wires the application.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	client, err := NewLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	return BuildWithLLM(cfg, client), nil
}

// BuildWithLLM wires the application around an existing model client.
func BuildWithLLM(cfg config.Config, client llm.Client) *App {
	pool := extract.NewPool(cfg.ExtractConcurrency)
	gen := reviewer.NewGenerator(client, reviewer.Config{
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		MaxTokens:     cfg.LLM.MaxTokens,
		Timeout:       cfg.LLM.Timeout,
		MaxInputChars: cfg.LLM.MaxInputChars,
	})
	svc := reviews.NewService(pool, gen)
	handler := reviews.NewHandler(svc, cfg.MaxUploadBytes)
	healthSvc := health.NewService(cfg.LLM.Provider, cfg.LLM.Model)

	return &App{
		Config:        cfg,
		LLM:           client,
		Extractor:     pool,
		Generator:     gen,
		ReviewService: svc,
		ReviewHandler: handler,
		Health:        healthSvc,
		Router: server.NewRouter(server.RouterDeps{
			Config:        cfg,
			ReviewHandler: handler,
			Health:        healthSvc,
		}),
	}
}

// NewLLMClient returns the provider client named by cfg.Provider.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == config.ProviderOpenAI {
			baseURL = openai.DefaultOpenAIBaseURL
		}
		client, err := openai.NewClient(openai.Config{Name: cfg.Provider, APIKey: cfg.APIKey, BaseURL: baseURL})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.Provider)
	}
}
