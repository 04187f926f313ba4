package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"picbridge/internal/adapters/file"
	"picbridge/internal/adapters/handler"
	"picbridge/internal/adapters/ipc"
	"picbridge/internal/adapters/process"
	"picbridge/internal/adapters/sender"
	"picbridge/internal/core/domain/action"
	"picbridge/internal/core/domain/command"
	"picbridge/internal/core/port"
	"picbridge/internal/core/service"
	"strings"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const usage = `usage: picbridge [flags] [shell|telegram|worker]

  shell     interactive console (default)
  telegram  serve the Telegram bot
  worker    run the image worker on stdin/stdout

flags:
`

func main() {
	flags := pflag.NewFlagSet("picbridge", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	flags.String("config", "", "path to the config file (default ./config.toml)")
	flags.String("log-level", "info", "log level: debug, info or warn")
	flags.String("timeout", "30s", "per-request worker timeout")
	_ = flags.Parse(os.Args[1:])

	mode := flags.Arg(0)
	if mode == "" {
		mode = "shell"
	}

	setupLogging(mode, os.Getenv("PICBRIDGE_APP_LOG_LEVEL"))

	if err := loadConfig(flags); err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	setupLogging(mode, viper.GetString("app.log_level"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch mode {
	case "worker":
		err = runWorker(ctx)
	case "shell":
		err = runShell(ctx)
	case "telegram":
		err = runTelegram(ctx)
	default:
		flags.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Str("mode", mode).Msg("picbridge stopped")
	}
}

func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("worker.command", "")
	viper.SetDefault("worker.args", []string{})
	viper.SetDefault("worker.timeout", "30s")
	viper.SetDefault("worker.stop_grace", "2s")
	viper.SetDefault("worker.handshake", true)
	viper.SetDefault("preview.max_size", 1024)
	viper.SetDefault("preview.jpeg_quality", 75)
	viper.SetDefault("console.preview_dir", "")
	viper.SetDefault("handler.timeout", "60s")
	viper.SetDefault("telegram.allowed_chat_ids", []int64{})
}

func loadConfig(flags *pflag.FlagSet) error {
	setDefaults()

	viper.SetEnvPrefix("PICBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlag("app.log_level", flags.Lookup("log-level")); err != nil {
		return err
	}
	if err := viper.BindPFlag("worker.timeout", flags.Lookup("timeout")); err != nil {
		return err
	}

	if path, _ := flags.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		return viper.ReadInConfig()
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Debug().Msg("no config file, using defaults")
		return nil
	}
	return err
}

// setupLogging makes the worker log JSON lines to stderr, where the parent picks them up. The other modes log
// human-readable output.
func setupLogging(mode, level string) {
	if mode == "worker" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	var logLevel zerolog.Level

	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
}

func duration(key string) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil {
		log.Fatal().Err(err).Str("key", key).Msg("invalid duration in config")
	}
	return d
}

func newCodec() *file.Codec {
	return file.NewCodec(viper.GetInt("preview.max_size"), viper.GetInt("preview.jpeg_quality"))
}

func runWorker(ctx context.Context) error {
	workerID := os.Getenv(process.WorkerIDEnv)
	log.Logger = log.With().Str("worker", workerID).Logger()
	log.Info().Int("pid", os.Getpid()).Msg("worker started")

	registry := action.NewRegistry(action.NewWorkspace(newCodec(), workerID))

	// the parent stops the worker by closing stdin; ctx only reaches the running action
	return ipc.NewServer(registry).Serve(ctx, os.Stdin, os.Stdout)
}

// bridge is the parent side: the router, the worker lifecycle and the client on top.
type bridge struct {
	router  *service.Router
	manager *service.WorkerManager
	client  *service.ImageClient
}

func startBridge(ctx context.Context) *bridge {
	runtime := process.ResolveRuntime(viper.GetString("worker.command"), viper.GetStringSlice("worker.args"))

	launcher := process.NewExecLauncher(runtime,
		"PICBRIDGE_APP_LOG_LEVEL="+viper.GetString("app.log_level"),
		fmt.Sprintf("PICBRIDGE_PREVIEW_MAX_SIZE=%d", viper.GetInt("preview.max_size")),
		fmt.Sprintf("PICBRIDGE_PREVIEW_JPEG_QUALITY=%d", viper.GetInt("preview.jpeg_quality")),
	)

	router := service.NewRouter(duration("worker.timeout"))
	manager := service.NewWorkerManager(launcher, router, viper.GetBool("worker.handshake"),
		duration("worker.stop_grace"))

	b := &bridge{router: router, manager: manager, client: service.NewImageClient(router)}

	if err := manager.EnsureReady(ctx); err != nil {
		// not fatal, /restart retries
		log.Error().Err(err).Msg("worker failed to start")
	}

	return b
}

func (b *bridge) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), duration("worker.stop_grace")+time.Second)
	defer cancel()

	if err := b.manager.Stop(ctx); err != nil {
		log.Warn().Err(err).Msg("error stopping worker")
	}
}

func registerCommands(registry *command.Registry, b *bridge, text port.TextSender, images port.ImageSender,
	fetcher port.FileFetcher, auth service.Authorizer) {
	presenter := command.NewPresenter(text, images)

	for _, c := range command.ActionCommands(b.client, presenter, auth) {
		registry.Register(c)
	}

	registry.Register(command.NewLoad(b.client, fetcher, presenter, auth, "/load"))
	registry.Register(command.NewSave(b.client, presenter, auth, "/save"))
	registry.Register(command.NewBatch(b.client, presenter, auth, "/batch"))
	registry.Register(command.NewActions(b.client, presenter, auth, "/actions"))
	registry.Register(command.NewSimple(b.client.Reset, presenter, auth, "/reset"))
	registry.Register(command.NewSimple(b.client.GetInfo, presenter, auth, "/info"))
	registry.Register(command.NewSimple(b.client.Clear, presenter, auth, "/clear"))
	registry.Register(command.NewSimple(b.client.Ping, presenter, auth, "/ping"))
	registry.Register(command.NewRestart(b.manager, b.router, text, auth, "/restart"))
	registry.Register(command.NewDebug(text, b.router, "/debug"))
	registry.Register(command.NewHelp(registry, text, "/help"))
}

func runShell(ctx context.Context) error {
	b := startBridge(ctx)
	defer b.stop()

	console := sender.NewConsole(os.Stdout, viper.GetString("console.preview_dir"))

	registry := &command.Registry{}
	registerCommands(registry, b, console, console, file.Downloader{}, service.OpenAuthorizer{})

	log.Info().Str("worker", b.router.WorkerID()).Msg("shell ready, type /help")

	return handler.NewConsole(registry, console, duration("handler.timeout")).Run(ctx, os.Stdin, os.Stdout)
}

func runTelegram(ctx context.Context) error {
	token := viper.GetString("telegram.bot_token")
	if token == "" {
		return errors.New("telegram.bot_token is not set")
	}

	tg, err := bot.New(token, bot.WithDefaultHandler(noOpHandler))
	if err != nil {
		return fmt.Errorf("failed initializing telegram bot: %w", err)
	}

	s := sender.NewTelegram(tg)

	auth, err := service.NewAuthorizer(s)
	if err != nil {
		return err
	}

	b := startBridge(ctx)
	defer b.stop()

	registry := &command.Registry{}
	registerCommands(registry, b, s, s, file.Downloader{}, auth)

	commandHandler := handler.NewCommand(registry, s, duration("handler.timeout"))

	tg.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	tg.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	tg.Start(ctx)

	return nil
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
