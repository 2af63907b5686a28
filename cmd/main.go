package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"panelsound/internal/audio"
	"panelsound/internal/config"
	"panelsound/internal/dispatcher"
	"panelsound/internal/emitter"
	"panelsound/internal/handlers"
	"panelsound/internal/logger"
	"panelsound/internal/mapper"
	"panelsound/internal/models"
	"panelsound/internal/panel"
	"panelsound/internal/queue"
	"panelsound/internal/repository"
	"panelsound/internal/repository/db"
	"panelsound/internal/serialport"
	"panelsound/internal/server"
	"panelsound/internal/service"
)

const (
	httpSourceName  = "http"
	shutdownTimeout = 10 * time.Second
)

// @title                       Panel Sound API
// @version                     1.0
// @description                 Control panel event routing: live state, routing journal and event injection.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.String("config", "", "path to config file (default: configs/config.yml)")
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for auth.password_hash and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := service.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// storage
	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()
	repos := repository.NewRepository(conn)

	// optional MQTT fan-out
	var (
		mq        *emitter.MQTTEmitter
		publisher service.Publisher
	)
	if cfg.MQTT.Enabled {
		mq = emitter.NewMQTTEmitter(emitter.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		}, log.Named("mqtt"))
		if err := mq.Connect(context.Background()); err != nil {
			// auto-reconnect keeps trying; publishing fails until then
			log.Warnw("mqtt_connect_failed", "broker", cfg.MQTT.Broker, "err", err)
		}
		publisher = mq
	}

	// operator events enter through a virtual source polled like any port
	httpSource := dispatcher.NewQueueSource(httpSourceName)
	services := service.NewService(repos, service.Deps{
		Controllers: cfg.Panel.Controllers,
		Sink:        httpSource,
		Publisher:   publisher,
		Auth: service.AuthConfig{
			Secret:       cfg.Auth.Secret,
			PasswordHash: cfg.Auth.PasswordHash,
			TokenTTL:     cfg.Auth.TokenTTL,
		},
		Log: log,
	})

	// routing
	state := panel.NewState(cfg.Panel.Controllers, log.Named("panel"))
	router, err := mapper.New(state, cfg.Routes, cfg.Panel.OfflineSound, log.Named("mapper"))
	if err != nil {
		log.Fatalw("invalid routing table", "err", err)
	}

	// the stored snapshot belongs to the previous run
	if err := services.Recorder.Reset(context.Background(), state.Snapshot()); err != nil {
		log.Fatalw("failed to reset panel state", "err", err)
	}

	channels, err := openChannels(cfg.Serial, log)
	if err != nil {
		log.Fatalw("failed to open serial ports", "err", err)
	}
	sources := make([]dispatcher.Source, 0, len(channels)+1)
	ports := make([]string, 0, len(channels))
	for _, ch := range channels {
		sources = append(sources, ch.Source())
		ports = append(ports, ch.Path())
	}
	sources = append(sources, httpSource)

	// audio
	controller, closeAudio, err := newAudioController(cfg.Audio, log.Named("audio"))
	if err != nil {
		log.Fatalw("failed to init audio", "err", err)
	}
	defer closeAudio()

	audioQueue := queue.New[models.AudioCommand]()
	worker := audio.NewWorker(audioQueue, controller, log.Named("audio"))
	disp := dispatcher.New(sources, router, audioQueue, cfg.Dispatch.PollInterval, log.Named("dispatcher"))
	disp.SetObserver(services.Recorder)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	defer stopRecorder()

	var (
		readers   sync.WaitGroup
		dispDone  = make(chan struct{})
		audioDone = make(chan struct{})
		recDone   = make(chan struct{})
	)
	for _, ch := range channels {
		readers.Add(1)
		go func(ch *serialport.Channel) {
			defer readers.Done()
			ch.Run(ctx)
		}(ch)
	}
	go func() {
		defer close(dispDone)
		disp.Run(ctx)
	}()
	go func() {
		defer close(audioDone)
		// stopped by end_thread, not by ctx, so queued sounds still play
		if err := worker.Run(context.Background()); err != nil {
			log.Errorw("audio worker stopped", "err", err)
		}
	}()
	go func() {
		defer close(recDone)
		services.Recorder.Run(recorderCtx)
	}()

	var srv *server.Server
	if cfg.HTTP.Enabled {
		srv = &server.Server{}
		runHTTPServer(srv, cfg.HTTP.Port, handlers.NewHandler(services, log.Named("http")), log)
	}

	log.Infow("panel_started",
		"ports", ports,
		"controllers", cfg.Panel.Controllers,
		"audio_driver", cfg.Audio.Driver,
		"http", cfg.HTTP.Enabled,
		"mqtt", cfg.MQTT.Enabled,
	)

	waitForSignal(log)

	// stop order: readers, dispatcher, audio, recorder, http, mqtt
	cancel()
	readers.Wait()
	httpSource.Close()
	<-dispDone
	if err := audioQueue.Push(models.EndThread()); err != nil {
		log.Warnw("audio_end_thread_failed", "err", err)
	}
	<-audioDone
	stopRecorder()
	<-recDone

	if srv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Errorw("server forced to shutdown", "err", err)
		}
	}
	if mq != nil {
		mq.Disconnect()
	}
	log.Infow("panel_stopped")
}

// openDB initializes the SQLite database.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	log.Infow("db_open", "path", path)
	return db.InitDB(path)
}

// openChannels resolves the serial ports to read and opens all of them.
func openChannels(cfg config.Serial, log *logger.Logger) ([]*serialport.Channel, error) {
	paths, err := serialport.Resolve(cfg.Ports, cfg.Discover, cfg.Patterns)
	if err != nil {
		return nil, err
	}
	channels := make([]*serialport.Channel, 0, len(paths))
	for _, p := range paths {
		ch, err := serialport.Open(p, cfg.Baud, log.Named("serial"))
		if err != nil {
			for _, opened := range channels {
				opened.Close()
			}
			return nil, fmt.Errorf("open %s: %w", p, err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// newAudioController builds the configured driver. The returned func
// releases the output device.
func newAudioController(cfg config.Audio, log *logger.Logger) (audio.Controller, func(), error) {
	catalog, err := audio.BuildCatalog(cfg.Sources())
	if err != nil {
		return nil, nil, err
	}
	switch cfg.Driver {
	case config.DriverLog:
		return audio.NewLogPlayer(catalog, log), func() {}, nil
	case config.DriverBeep:
		p, err := audio.NewBeepPlayer(catalog, cfg.SampleRate, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, errors.New("unknown audio driver " + cfg.Driver)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForSignal blocks until SIGINT or SIGTERM.
func waitForSignal(log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("shutting down", "signal", sig.String())
}
