package cli

import (
	"context"
	"fmt"
	"time"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/conversation"
	"ragchat/internal/document"
	"ragchat/internal/domain"
	embedopenai "ragchat/internal/embedding/openai"
	"ragchat/internal/index"
	llmopenai "ragchat/internal/llm/openai"
	"ragchat/internal/metrics"
	"ragchat/internal/summarizer"
)

// Backend constructors, replaced in tests.
var (
	newEmbedder  = defaultEmbedder
	newChatModel = defaultChatModel
)

func defaultEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "openai", "ollama":
		return embedopenai.NewClient(embedopenai.Config{
			BaseURL:   cfg.Embedder.BaseURL,
			APIKeyEnv: cfg.Embedder.APIKeyEnv,
			Model:     cfg.Embedder.Model,
			Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
			BatchSize: cfg.Embedder.BatchSize,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func defaultChatModel(cfg *config.AppConfig) (domain.ChatModel, error) {
	switch cfg.LLM.Type {
	case "openai", "ollama":
		return llmopenai.NewClient(llmopenai.Config{
			BaseURL:   cfg.LLM.BaseURL,
			APIKeyEnv: cfg.LLM.APIKeyEnv,
			Model:     cfg.LLM.Model,
			Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", cfg.LLM.Type)
	}
}

func newManager(emb domain.Embedder) *index.Manager {
	return index.NewManager(
		index.Config{
			DocumentPath:    appCfg.Document.Path,
			FingerprintPath: appCfg.Document.FingerprintPath,
			Dir:             appCfg.Index.Dir,
		},
		chunker.NewRecursiveChunker(appCfg.Index.ChunkSize, appCfg.Index.ChunkOverlap),
		emb,
		appLog.Logger,
	)
}

// startHandle builds or loads the index and wraps it in a conversation
// handle. Any failure here is a startup failure.
func startHandle(ctx context.Context, m *metrics.Metrics) (*conversation.Handle, error) {
	emb, err := newEmbedder(appCfg)
	if err != nil {
		return nil, err
	}
	idx, err := newManager(emb).BuildOrLoad(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare index: %w", err)
	}
	model, err := newChatModel(appCfg)
	if err != nil {
		return nil, err
	}

	deps := conversation.Deps{
		Index:        idx,
		Embedder:     emb,
		Model:        model,
		DocumentPath: appCfg.Document.Path,
		K:            appCfg.Retriever.K,
		FetchK:       appCfg.Retriever.FetchK,
		Lambda:       appCfg.Retriever.Lambda,
		Logger:       appLog.Logger,
	}
	if m != nil {
		m.ObserveIndex(idx.Rebuilt, idx.Chunks)
		deps.Observer = m
	}
	return conversation.Build(deps)
}

// documentSummary is a short extract of the knowledge file, empty when it
// cannot be read.
func documentSummary() string {
	doc, err := document.Load(appCfg.Document.Path)
	if err != nil {
		return ""
	}
	return summarizer.NewFrequency().Summarize(doc.Content, summarizer.DefaultSentences)
}
