// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package gnss

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmedammar/platform-hardware-imx/internal/nmea"
)

var (
	stmSuspend = nmea.Sentence{Type: "PSTMGPSSUSPEND"}
	stmRestart = nmea.Sentence{Type: "PSTMGPSRESTART"}
)

// Stm drives ST Teseo receivers. The engine is suspended while no session
// runs.
type Stm struct {
	// CacheDir holds ephemerides.txt and almanac.txt as dumped by the
	// module (PSTMDUMPEPHEMS, PSTMDUMPALMANAC). When present they are sent
	// to the module at Init.
	CacheDir string
}

func (s *Stm) Init(w io.Writer) (err error) {
	if s.CacheDir == "" {
		return nil
	}

	var lines [][]byte
	for _, name := range []string{"ephemerides.txt", "almanac.txt"} {
		l, err := readCache(filepath.Join(s.CacheDir, name))
		if err != nil {
			return fmt.Errorf("gnss/Stm.Init: %w", err)
		}
		lines = append(lines, l...)
	}
	if len(lines) == 0 {
		return nil
	}

	cmds := append([][]byte{stmSuspend.Bytes()}, lines...)
	cmds = append(cmds, stmRestart.Bytes())
	if err = write(w, cmds...); err != nil {
		return fmt.Errorf("gnss/Stm.Init: %w", err)
	}
	return
}

func (s *Stm) Start(w io.Writer) error {
	if err := write(w, stmRestart.Bytes()); err != nil {
		return fmt.Errorf("gnss/Stm.Start: %w", err)
	}
	return nil
}

func (s *Stm) Stop(w io.Writer) error {
	if err := write(w, stmSuspend.Bytes()); err != nil {
		return fmt.Errorf("gnss/Stm.Stop: %w", err)
	}
	return nil
}

func (s *Stm) Deinit(w io.Writer) error {
	return nil
}

// readCache returns the PSTM sentences stored in path, CRLF terminated. A
// missing file is not an error.
func readCache(path string) (lines [][]byte, err error) {
	fd, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$PSTM") {
			continue
		}
		lines = append(lines, []byte(line+"\r\n"))
	}
	err = scanner.Err()
	return
}
