// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
	"github.com/ahmedammar/platform-hardware-imx/internal/server"
)

func usage() {
	flag.CommandLine.Usage()
}

func main() {
	var validate bool
	flag.BoolVar(&validate, "validate", false, "Check every sentence checksum and report failures on stderr.")
	var interval time.Duration
	flag.DurationVar(&interval, "i", 0, "Delay between lines, to replay a capture in real time.")
	var debug bool
	flag.BoolVar(&debug, "d", false, "Log parser debug output.")
	var help bool
	flag.BoolVar(&help, "h", false, "Print help and quit.")

	flag.Usage = func() {
		fmt.Println("usage: nmeacat [OPTION...] FILE|-")
		fmt.Println("Feeds an NMEA capture through the sentence reader and prints fixes and satellite status as JSON.")
		fmt.Println("Options:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if help || flag.NArg() != 1 {
		usage()
		return
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	in := os.Stdin
	if name := flag.Arg(0); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		defer f.Close()
		in = f
	}

	c := &cat{out: os.Stdout, errOut: os.Stderr, validate: validate}
	if err := c.run(in, interval, log); err != nil {
		log.Fatal().Err(err).Send()
	}
	if c.bad > 0 {
		os.Exit(1)
	}
}

type cat struct {
	out      io.Writer
	errOut   io.Writer
	validate bool
	bad      int
}

func (c *cat) run(in io.Reader, interval time.Duration, log zerolog.Logger) error {
	r := gps.NewReader(nil, log)
	r.OnSentence = c.checkSentence
	r.OnParsed = c.print

	lines := bufio.NewReader(in)
	for {
		line, err := lines.ReadBytes('\n')
		r.Feed(line)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("nmeacat: %w", err)
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

func (c *cat) checkSentence(timestamp int64, line []byte) {
	if !c.validate {
		return
	}
	raw := string(bytes.TrimSpace(line))
	if _, err := gonmea.Parse(raw); err != nil {
		// go-nmea rejects types it has no parser for; only checksum and
		// framing problems count
		var unsupported *gonmea.NotSupportedError
		if !errors.As(err, &unsupported) {
			c.bad++
			fmt.Fprintf(c.errOut, "invalid sentence %q: %s\n", raw, err)
		}
	}
}

func (c *cat) print(r *gps.Reader) {
	if fix := r.Fix(); fix.Flags&gps.HasLatLong != 0 {
		if msg, err := server.LocationMessage(fix); err == nil {
			fmt.Fprintln(c.out, string(msg))
		}
		r.ClearFix()
	}
	if sv, changed := r.SvStatus(); changed {
		if msg, err := server.SatellitesMessage(sv); err == nil {
			fmt.Fprintln(c.out, string(msg))
		}
		r.ClearSvStatusChanged()
	}
}
