// This file is part of livecheck.
//
// livecheck is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// livecheck is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with livecheck.  If not, see <https://www.gnu.org/licenses/>.

// Package ipc is the local control server the dashboard and cli talk to.
//
// net/rpc over http serves commands, /events streams transitions over a
// websocket and /metrics serves prometheus.
package ipc

import (
	"context"
	"net"
	"net/http"
	"net/rpc"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobbytrapz/livecheck/notify"
	"github.com/bobbytrapz/livecheck/poll"
	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/queue"
	"github.com/bobbytrapz/livecheck/stream"
	"github.com/bobbytrapz/livecheck/track"
)

var logger = loggo.GetLogger("livecheck.ipc")

// ErrAddressInUse when another livecheck is already listening
const ErrAddressInUse = errors.ConstError("address already in use")

// Config for the control server
type Config struct {
	Registry *track.Registry
	Group    *poll.Group
	Queue    *queue.Queue
	Updaters map[stream.Kind]provider.Updater
	// optional
	Feed     *notify.Feed
	Launcher *track.Launcher
	Gatherer prometheus.Gatherer
	// bounds a manual refresh
	RequestTimeout func() time.Duration
}

// Server answers the dashboard and cli
type Server struct {
	cfg Config
	ctx context.Context

	mu        sync.Mutex
	selectURL string
}

// NewServer that is not yet listening
func NewServer(ctx context.Context, cfg Config) *Server {
	if cfg.RequestTimeout == nil {
		cfg.RequestTimeout = func() time.Duration { return 10 * time.Second }
	}
	return &Server{cfg: cfg, ctx: ctx}
}

// Handler with every endpoint
func (s *Server) Handler() (http.Handler, error) {
	rs := rpc.NewServer()
	if err := rs.RegisterName("Command", &Command{s: s}); err != nil {
		return nil, errors.Annotate(err, "ipc.Handler")
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, rs)
	if s.cfg.Feed != nil {
		mux.HandleFunc("/events", s.events)
	}
	if s.cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux, nil
}

// Start serving on addr until ctx is done
func (s *Server) Start(addr string) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if op, ok := err.(*net.OpError); ok && op.Op == "listen" {
			// assume we failed to bind
			return errors.Annotatef(ErrAddressInUse, "%s", addr)
		}
		return errors.Annotate(err, "ipc.Start")
	}

	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// clean shutdown
	go func() {
		<-s.ctx.Done()
		logger.Debugf("ipc: finishing...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		logger.Debugf("ipc: done")
	}()

	go func() {
		logger.Infof("listening on %s", ln.Addr())
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Errorf("ipc.Start: %s", err)
		}
	}()

	return nil
}
