// Copyright (c) Microsoft. All rights reserved.

// Command dialchat is an interactive chat console for an Azure OpenAI
// chat-completions deployment.
//
// Configuration comes from flags, DIAL_* environment variables, an
// optional .env file and an optional config file:
//
//	export DIAL_ENDPOINT=https://<resource>.openai.azure.com
//	export DIAL_API_KEY=<your-key>        # omit to use DefaultAzureCredential
//	export DIAL_DEPLOYMENT=gpt-4o
//	go run ./cmd/dialchat --transport raw
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dialkit/dialchat/chat"
	"github.com/dialkit/dialchat/dial"
	"github.com/dialkit/dialchat/internal/config"
	"github.com/dialkit/dialchat/internal/repl"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "v0.0.0-dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:          "dialchat",
		Short:        "Chat with an Azure OpenAI deployment",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "path to a config file (yaml, json or toml)")
	flags.String("transport", config.TransportManaged, "client variant: managed or raw")
	flags.Bool("stream", true, "stream responses as they arrive")
	flags.String("deployment", "", "deployment name")
	bindFlags(v, root, "transport", "stream", "deployment")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		// Only an explicitly set flag overrides the environment.
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	client, err := newClient(cfg, out, logger)
	if err != nil {
		return err
	}

	conv := chat.NewConversation()
	logger.Info("session started",
		"conversation_id", conv.ID(),
		"transport", cfg.Transport,
		"deployment", cfg.Deployment,
		"stream", cfg.Stream,
	)

	session := &repl.Session{
		Client:              chat.NewLoggingClient(client, logger),
		Conversation:        conv,
		Stream:              cfg.Stream,
		DefaultSystemPrompt: cfg.SystemPrompt,
		In:                  in,
		Out:                 out,
		Logger:              logger,
	}
	return session.Run(ctx)
}

// newClient builds the configured client variant. Without an API key it
// authenticates with DefaultAzureCredential.
func newClient(cfg *config.Config, out io.Writer, logger *slog.Logger) (chat.Client, error) {
	opts := []dial.Option{
		dial.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		dial.WithOutput(out),
		dial.WithLogger(logger),
	}
	if cfg.APIVersion != "" {
		opts = append(opts, dial.WithAPIVersion(cfg.APIVersion))
	}
	if cfg.APIKey == "" {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("create azure credential: %w", err)
		}
		logger.Info("using Azure AD authentication")
		opts = append(opts, dial.WithAzureCredential(cred))
	}

	switch cfg.Transport {
	case config.TransportRaw:
		return dial.NewRaw(cfg.Endpoint, cfg.APIKey, cfg.Deployment, opts...), nil
	default:
		return dial.NewManaged(cfg.Endpoint, cfg.APIKey, cfg.Deployment, opts...), nil
	}
}

func newLogger(c config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelWarn
	}
	hopts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}
