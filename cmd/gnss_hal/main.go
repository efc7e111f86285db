// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/config"
	"github.com/ahmedammar/platform-hardware-imx/internal/gnss"
	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
	"github.com/ahmedammar/platform-hardware-imx/internal/pool"
	"github.com/ahmedammar/platform-hardware-imx/internal/publish"
	"github.com/ahmedammar/platform-hardware-imx/internal/server"
)

func usage() {
	flag.CommandLine.Usage()
}

func main() {
	var confFile string
	flag.StringVar(&confFile, "c", config.DefaultPath, "Configuration file to use.")
	var help bool
	flag.BoolVar(&help, "h", false, "Print help and quit.")

	flag.Usage = func() {
		fmt.Println("usage: gnss_hal [OPTION...]")
		fmt.Println("Runs the GPS session and shares it over a unix socket, websocket and MQTT.")
		fmt.Println("Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if help {
		usage()
		return
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	conf, err := config.Parse(confFile)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}

	level, err := zerolog.ParseLevel(conf.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", conf.LogLevel).Msg("invalid log level")
	}
	log = log.Level(level)

	if err := run(conf, log); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newSession(conf *config.Config, log zerolog.Logger) (*gps.Session, *gnss.Control, error) {
	path := conf.DevicePath
	if path == "" {
		detected, err := gnss.DetectPort()
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("port", detected).Msg("using detected serial port")
		path = detected
	}

	baud := conf.BaudRate
	if baud == 0 {
		baud = gnss.DefaultBaud(conf.Driver)
	}

	open, err := gnss.NewOpener(conf.Transport, path, baud)
	if err != nil {
		return nil, nil, err
	}

	driver, err := gnss.NewDriver(conf.Driver, conf.CachePath)
	if err != nil {
		return nil, nil, err
	}

	control := &gnss.Control{
		Driver: driver,
		Hooks:  gnss.Hooks{Dir: conf.HooksPath},
		Log:    log.With().Str("driver", conf.Driver).Logger(),
	}
	if conf.Power.Chip != "" {
		control.Power, err = gnss.OpenPowerLine(conf.Power.Chip, conf.Power.Line)
		if err != nil {
			return nil, nil, err
		}
	}

	return gps.NewSession(open, control, log.With().Str("device", path).Logger()), control, nil
}

func run(conf *config.Config, log zerolog.Logger) error {
	session, control, err := newSession(conf, log)
	if err != nil {
		return fmt.Errorf("run(): %w", err)
	}
	// released after the session is cleaned up
	defer func() {
		if err := control.Close(); err != nil {
			log.Error().Err(err).Msg("could not release power line")
		}
	}()

	connPool := pool.New(log)

	var pub *publish.Publisher
	if conf.MQTT.Broker != "" {
		pub = publish.New(publish.NewClient(conf.MQTT.Broker, conf.MQTT.ClientID), conf.MQTT.Topic, conf.MQTT.QoS, log)
		if err := pub.Connect(); err != nil {
			return fmt.Errorf("run(): %w", err)
		}
		defer pub.Close()
	}

	// callbacks run with the fix lock held, nothing below may block
	callbacks := gps.Callbacks{
		Location: func(l gps.Location) {
			if msg, err := server.LocationMessage(l); err == nil {
				connPool.Broadcast(pool.KindLocation, msg)
			}
			if pub != nil {
				pub.Location(l)
			}
		},
		SvStatus: func(s gps.SvStatus) {
			if msg, err := server.SatellitesMessage(s); err == nil {
				connPool.Broadcast(pool.KindSatellites, msg)
			}
			if pub != nil {
				pub.Satellites(s)
			}
		},
		Status: func(s gps.Status) {
			log.Info().Stringer("status", s).Msg("gps status")
		},
		Nmea: func(timestamp int64, line []byte) {
			connPool.Broadcast(pool.KindNmea, line)
		},
	}

	if err := session.Init(callbacks); err != nil {
		return fmt.Errorf("run(): %w", err)
	}
	defer session.Cleanup()

	if conf.FixInterval > 0 {
		session.SetFixFrequency(conf.FixInterval)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(conf.Socket, conf.OwnerGroup, connPool, log)
	sock, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("run(): %w", err)
	}
	errCh := make(chan error, 2)
	go func() { errCh <- srv.Serve(ctx, sock) }()

	if conf.HTTP.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", server.NewStream(connPool, log))
		httpSrv := &http.Server{Addr: conf.HTTP.Listen, Handler: mux}
		go func() {
			log.Info().Str("listen", conf.HTTP.Listen).Msg("serving websocket stream")
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
	}

	for {
		select {
		case active := <-connPool.Demand():
			if active {
				err = session.Start()
			} else {
				err = session.Stop()
			}
			if err != nil {
				return fmt.Errorf("run(): %w", err)
			}
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("run(): %w", err)
			}
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return nil
		}
	}
}
