package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/parchis/game/gateway"
	"github.com/wricardo/parchis/game/protocol"
)

// Time allowed to write a frame to the peer.
const writeWait = 10 * time.Second

// Server accepts raw TCP players speaking newline-delimited JSON
type Server struct {
	hub *gateway.Hub
	log *logrus.Entry

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(hub *gateway.Hub, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		hub:   hub,
		log:   logger.WithField("component", "tcp"),
		conns: make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on ln until ctx is done. Open connections are
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.WithField("addr", ln.Addr().String()).Info("TCP listener started")

	var err error
	for {
		var conn net.Conn
		conn, err = ln.Accept()
		if err != nil {
			break
		}
		s.track(conn, true)
		s.wg.Add(1)
		go s.serveConn(conn)
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.track(conn, false)

	peer := s.hub.Register(conn.RemoteAddr().String())
	log := s.log.WithField("peer", peer.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		writeLoop(conn, peer, log)
	}()

	frames := protocol.NewFrameReader(conn)
	for {
		frame, err := frames.Next()
		if err != nil {
			if errors.Is(err, protocol.ErrFrameTooLarge) {
				log.Warn("Closing connection after oversized frame")
				s.hub.Send(peer.ID, protocol.ErrorWithCode(protocol.CodeProtocol, "frame too large"))
			} else if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.WithError(err).Debug("TCP read error")
			}
			break
		}
		s.hub.Receive(peer, frame)
	}

	s.hub.ConnectionLost(peer.ID)
	<-done
	conn.Close()
}

// writeLoop drains the peer queue. It returns once the hub closes the
// queue, closing the connection so the reader stops too.
func writeLoop(conn net.Conn, peer *gateway.Peer, log *logrus.Entry) {
	defer conn.Close()
	for message := range peer.Outbound() {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := protocol.WriteFrame(conn, message); err != nil {
			log.WithError(err).Debug("TCP write failed")
			return
		}
	}
}
