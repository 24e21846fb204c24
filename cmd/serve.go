package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup("serve")
	if config.Server == nil {
		config.Server = &server.Config{}
	}

	scorer, err := newScorer(config.Scoring, logger)
	if err != nil {
		logger.Fatal("creating a scorer", zap.Error(err))
	}

	p, model, err := newParser(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating a cv parser", zap.Error(err))
	}

	srv, err := server.New(*config.Server, server.Deps{
		Parser: p,
		Scorer: scorer,
		Model:  model,
	}, logger)
	if err != nil {
		logger.Fatal("creating a server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
	logger.Info("server stopped")
}
