package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finvault/finvault/auth"
	"github.com/finvault/finvault/captcha"
	"github.com/finvault/finvault/internal/config"
	"github.com/finvault/finvault/internal/migrations"
	"github.com/finvault/finvault/mailer"
	"github.com/finvault/finvault/server"
	"github.com/finvault/finvault/token"
	transactionrepo "github.com/finvault/finvault/transactions/postgres"
	userrepo "github.com/finvault/finvault/users/postgres"
	"github.com/finvault/finvault/verification"
	"github.com/finvault/finvault/verification/redisstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.New()
	if err != nil {
		return err
	}

	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	displayAppname(cfg.AppName)

	srv, cleanup, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(cfg *config.Config) (*server.Server, func(), error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, errors.Wrap(err, "[buildServer] open database")
	}
	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cleanup := func() {
		_ = redisClient.Close()
		_ = db.Close()
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPAccount, cfg.SMTPPassword)
	engine, err := verification.NewEngine(
		redisstore.New(redisClient),
		smtpMailer,
		verification.WithTTL(cfg.CodeTTL),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tokens := token.New(token.NewHMACSigner(cfg.SessionSecret))
	authService, err := auth.NewService(
		userrepo.NewRepo(db),
		engine,
		tokens,
		captcha.NewReCaptcha(cfg.CaptchaSecret),
		auth.WithSessionTTLs(cfg.SessionTTL, cfg.Pending2FATTL),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	srv, err := server.New(cfg, authService, tokens, transactionrepo.NewRepo(db))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return srv, cleanup, nil
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
