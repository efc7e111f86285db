// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/pool"
)

// Server shares raw NMEA sentences with clients on a unix socket. Clients
// register with the pool, so the first one to connect creates demand for a
// session and the last one to leave drops it.
type Server struct {
	socket    string
	sockGroup string
	connPool  *pool.Pool
	log       zerolog.Logger
}

func New(socket string, sockGroup string, connPool *pool.Pool, logger zerolog.Logger) (s *Server) {
	s = &Server{
		socket:    socket,
		sockGroup: sockGroup,
		connPool:  connPool,
		log:       logger,
	}

	return
}

// Listen creates the socket, owned by the configured group.
func (s *Server) Listen() (sock net.Listener, err error) {
	if err = os.RemoveAll(s.socket); err != nil {
		return nil, fmt.Errorf("server.Listen(): %w", err)
	}

	sock, err = net.Listen("unix", s.socket)
	if err != nil {
		return nil, fmt.Errorf("server.Listen(): %w", err)
	}

	if err = s.setOwner(); err != nil {
		sock.Close()
		return nil, fmt.Errorf("server.Listen(): %w", err)
	}
	return sock, nil
}

func (s *Server) setOwner() error {
	if err := os.Chmod(s.socket, 0660); err != nil {
		return err
	}
	if s.sockGroup == "" {
		return nil
	}

	group, err := user.LookupGroup(s.sockGroup)
	if err != nil {
		return err
	}

	gid, err := strconv.ParseInt(group.Gid, 10, 32)
	if err != nil {
		return err
	}

	return os.Chown(s.socket, -1, int(gid))
}

// Serve accepts clients on sock until ctx is done.
func (s *Server) Serve(ctx context.Context, sock net.Listener) error {
	go func() {
		<-ctx.Done()
		sock.Close()
	}()

	s.log.Info().Str("socket", s.socket).Msg("accepting NMEA clients")
	for {
		conn, err := sock.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("server.Serve: %w", err)
		}

		client := s.connPool.Add(pool.KindNmea)
		go s.clientConnection(conn, client)
	}
}

// Routine run for each client connection
func (s *Server) clientConnection(conn net.Conn, c *pool.Client) {
	defer func() {
		s.connPool.Remove(c)
		conn.Close()
	}()

	// clients only listen; a read returning means they hung up
	hangup := make(chan struct{})
	go func() {
		_, err := io.Copy(io.Discard, conn)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Debug().Err(err).Str("client", c.ID).Msg("client read failed")
		}
		close(hangup)
	}()

	for {
		select {
		case msg := <-c.Send:
			if _, err := conn.Write(terminate(msg)); err != nil {
				return
			}
		case <-hangup:
			return
		case <-c.Done:
			return
		}
	}
}

// terminate makes sure msg ends with a newline.
func terminate(msg []byte) []byte {
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		return msg
	}
	out := make([]byte, len(msg), len(msg)+1)
	copy(out, msg)
	return append(out, '\n')
}
