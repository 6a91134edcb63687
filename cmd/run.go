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

package cmd

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bobbytrapz/livecheck/ipc"
	"github.com/bobbytrapz/livecheck/kick"
	"github.com/bobbytrapz/livecheck/metrics"
	"github.com/bobbytrapz/livecheck/notify"
	"github.com/bobbytrapz/livecheck/options"
	"github.com/bobbytrapz/livecheck/picarto"
	"github.com/bobbytrapz/livecheck/poll"
	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/queue"
	"github.com/bobbytrapz/livecheck/showroom"
	"github.com/bobbytrapz/livecheck/stream"
	"github.com/bobbytrapz/livecheck/track"
	"github.com/bobbytrapz/livecheck/twitch"
)

var logger = loggo.GetLogger("livecheck.cmd")

// setup loads credentials, options and log levels
func setup() error {
	// credentials may live next to the config or in the working directory
	for _, p := range []string{filepath.Join(options.ConfigPath, ".env"), ".env"} {
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			logger.Warningf("setup: %s: %s", p, err)
		}
	}

	if err := options.Load(); err != nil {
		return err
	}
	configureLogging()

	return nil
}

func configureLogging() {
	level := strings.ToUpper(options.Get("log_level"))
	if err := loggo.ConfigureLoggers("<root>=" + level); err != nil {
		logger.Warningf("log_level %q: %s", level, err)
	}
}

func header(kind stream.Kind) func() http.Header {
	return func() http.Header {
		return options.Header(string(kind))
	}
}

// newClient shared by every provider
func newClient() *provider.Client {
	return provider.NewClient(
		provider.WithUserAgent(func() string { return options.Get("user_agent") }),
		provider.WithTimeout(func() time.Duration { return options.GetDuration("request_timeout") }),
	)
}

func newTwitchQuerier(client *provider.Client) (provider.Querier, error) {
	if options.Get("twitch.api") != "helix" {
		return twitch.NewGQL(client, header(twitch.Kind)), nil
	}
	return twitch.NewHelix(twitch.HelixConfig{
		ClientID: options.Get("twitch.client_id"),
		AppToken: options.Get("twitch.app_token"),
		Client:   client,
	})
}

// providers gives every module and its updater
// the renderer is nil unless showroom.render is on
func providers(client *provider.Client) ([]provider.Module, map[stream.Kind]provider.Updater, *showroom.Renderer, error) {
	var renderer *showroom.Renderer
	if options.GetBool("showroom.render") {
		renderer = showroom.NewRenderer()
	}

	q, err := newTwitchQuerier(client)
	if err != nil {
		return nil, nil, nil, err
	}
	maxPerRequest := twitch.DefaultMaxPerRequest
	if options.Get("twitch.api") == "helix" {
		maxPerRequest = twitch.HelixMaxPerRequest
	}

	updaters := map[stream.Kind]provider.Updater{
		twitch.Kind: twitch.NewUpdater(twitch.Config{
			Querier: q,
			MaxPerRequest: func() int {
				if n := options.MaxPerRequest(string(twitch.Kind)); n > 0 && n <= maxPerRequest {
					return n
				}
				return maxPerRequest
			},
			ExcludeGames: func() []string { return options.GetStringSlice("twitch.exclude_games") },
			Delay:        func() time.Duration { return options.GetDuration("batch_delay") },
		}),
		kick.Kind: kick.NewUpdater(kick.Config{
			Client: client,
			Header: header(kick.Kind),
		}),
		picarto.Kind: picarto.NewUpdater(picarto.Config{
			Client: client,
			Field:  func() string { return options.Get("picarto.marker") },
			Header: header(picarto.Kind),
		}),
		showroom.Kind: showroom.NewUpdater(showroom.Config{
			Client:   client,
			Header:   header(showroom.Kind),
			Renderer: renderer,
		}),
	}

	modules := []provider.Module{twitch.Module, kick.Module, picarto.Module, showroom.Module}
	return modules, updaters, renderer, nil
}

func newNotifier(ctx context.Context, feed *notify.Feed) (notify.Multi, *notify.Redis) {
	n := notify.Multi{notify.Log{}, feed}

	rawURL := options.Get("redis_url")
	if rawURL == "" {
		return n, nil
	}
	r, _, err := notify.NewRedis(ctx, rawURL, os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		logger.Errorf("redis notifications are off: %s", err)
		return n, nil
	}
	logger.Infof("publishing transitions on redis channel %s", r.Channel())
	return append(n, r), r
}

// run the engine until ctx is done
func run(ctx context.Context) error {
	client := newClient()
	modules, updaters, renderer, err := providers(client)
	if err != nil {
		return err
	}
	if renderer != nil {
		defer renderer.Close()
	}

	factory, err := track.NewFactory(modules...)
	if err != nil {
		return err
	}
	factory.CommentMarker = func() string { return options.Get("comment_marker") }

	reg := track.NewRegistry()
	q := queue.New()
	feed := notify.NewFeed(64)
	notifier, rdb := newNotifier(ctx, feed)

	rec := metrics.NewRecorder()
	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(rec, collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	listPath := options.TrackListPath()
	if _, err := os.Stat(listPath); os.IsNotExist(err) {
		if err := os.WriteFile(listPath, []byte("# one stream link per line\n"), 0600); err != nil {
			return errors.Annotate(err, "cannot create the track list")
		}
	}

	load := func() {
		_, removed, err := track.LoadList(listPath, factory, reg)
		if err != nil {
			logger.Errorf("%s", err)
			return
		}
		rec.Tracked(reg.ByKind())
		if rdb != nil && len(removed) > 0 {
			keys := make([]string, 0, len(removed))
			for _, s := range removed {
				keys = append(keys, string(s.Key()))
			}
			if err := rdb.Forget(ctx, keys...); err != nil {
				logger.Warningf("redis: %s", err)
			}
		}
	}
	load()

	grace := func() time.Duration { return options.GetDuration("shutdown_grace") }

	var schedulers []*poll.Scheduler
	for _, m := range modules {
		kind := m.Kind
		schedulers = append(schedulers, poll.New(poll.Config{
			Updater:    updaters[kind],
			Streams:    func() []stream.Stream { return reg.Of(kind) },
			Sink:       q,
			Interval:   func() time.Duration { return options.CheckEvery(string(kind)) },
			StartDelay: func() time.Duration { return options.GetDuration("start_delay") },
			Grace:      grace,
			Metrics:    rec,
		}))
	}
	group := poll.NewGroup(schedulers...)

	launcher := track.NewLauncher(
		func() string { return options.Get("open_with") },
		func() []string { return options.GetStringSlice("open_args") },
	)

	// the consumer outlives the schedulers so late rounds are still applied
	consumerCtx, stopConsumer := context.WithCancel(context.WithoutCancel(ctx))
	defer stopConsumer()
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		track.NewConsumer(reg, q, notifier).Run(consumerCtx)
	}()

	server := ipc.NewServer(ctx, ipc.Config{
		Registry:       reg,
		Group:          group,
		Queue:          q,
		Updaters:       updaters,
		Feed:           feed,
		Launcher:       launcher,
		Gatherer:       gatherer,
		RequestTimeout: func() time.Duration { return options.GetDuration("request_timeout") },
	})
	if err := server.Start(options.Get("listen_on")); err != nil {
		return err
	}

	group.Start(ctx)

	go func() {
		if err := track.WatchList(ctx, clock.WallClock, listPath, func([]string) { load() }); err != nil {
			logger.Errorf("%s", err)
		}
	}()

	options.Watch(configureLogging)

	<-ctx.Done()
	logger.Infof("finishing...")

	// rounds in flight get their grace period plus a little to hand off
	waitCtx, cancel := context.WithTimeout(context.Background(), grace()+time.Second)
	defer cancel()
	if !group.Wait(waitCtx) {
		logger.Warningf("force shutdown")
	}
	stopConsumer()
	<-consumerDone
	launcher.Wait()
	logger.Infof("done")

	return nil
}
