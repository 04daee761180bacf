package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"think41-chat/api"
	"think41-chat/chat"
	"think41-chat/llm"
	"think41-chat/utils"
)

const mockReply = "This is a mock reply. Unset LLM_USE_MOCK and set GROQ_API_KEY to talk to the model."

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting think41-chat v%s", version)

	provider, err := newProvider(rt.cfg.LLM, rt.logger)
	if err != nil {
		return err
	}

	chatService := chat.NewService(rt.db, provider, rt.logger, chat.Config{
		DefaultUsername: rt.cfg.Chat.DefaultUsername,
		HistoryLimit:    rt.cfg.Chat.HistoryLimit,
	})
	server := api.New(rt.cfg.Server, rt.logger, chatService, rt.db)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		return err
	}
	rt.logger.Info("Application stopped")
	return nil
}

// newProvider builds the completion provider. A missing API key is only
// logged: every call then fails with an auth error and turns into an apology.
func newProvider(cfg utils.LLMConfig, logger *utils.Logger) (llm.Provider, error) {
	if cfg.UseMock {
		logger.Warn("Using mock completion provider")
		return llm.NewMockProvider(mockReply), nil
	}

	provider, err := llm.NewOpenAIProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateConfig(); err != nil {
		logger.Warn("%s provider: %v; completion calls will fail until GROQ_API_KEY is set", provider.Name(), err)
	}
	logger.Info("Completion provider %s, model %s", provider.Name(), provider.Model())
	return provider, nil
}
