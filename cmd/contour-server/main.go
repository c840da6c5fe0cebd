package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/contourhq/contour/internal/config"
	"github.com/contourhq/contour/internal/guide"
	"github.com/contourhq/contour/internal/ingest"
	"github.com/contourhq/contour/internal/logging"
	"github.com/contourhq/contour/internal/server"
	"github.com/contourhq/contour/internal/services"
	"github.com/contourhq/contour/internal/texture"
	"github.com/contourhq/contour/internal/vision"
)

type Options struct {
	Logger logging.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
}

func main() {
	// Local development keys live in .env; absence is fine.
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	enc, err := texture.NewEncoder(cfg.Texture.Format, cfg.Texture.Quality)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build texture encoder")
	}
	proc := texture.NewProcessor(cfg.Texture.MaxDimension, enc)
	pipeline := ingest.NewPipeline(proc, cfg.Texture.Parallelism)

	store, err := server.NewUploadStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare uploads directory")
	}

	aiCfg := vision.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: time.Duration(cfg.AI.Timeout),
	}
	inf := vision.New(aiCfg, log.Logger)
	g := guide.New(aiCfg, log.Logger)
	if inf == nil {
		log.Warn().Msg("No AI key configured, bounds inference and narration disabled")
	}

	srv := server.New(pipeline, store, inf, g, services.NewClient(), log.Logger)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("texture_format", cfg.Texture.Format).
		Bool("ai", inf != nil).
		Msg("Web server started")

	if err := srv.Router().Run(listenAddr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
