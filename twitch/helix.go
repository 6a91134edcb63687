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

package twitch

import (
	"context"
	"net/http"
	"strings"

	"github.com/juju/errors"
	"github.com/nicklaw5/helix/v2"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

// HelixMaxPerRequest is the most logins helix takes at once
const HelixMaxPerRequest = 100

// HelixConfig for NewHelix
type HelixConfig struct {
	ClientID string
	AppToken string
	// shares its transport and timeout
	Client *provider.Client
	// empty for the real api
	BaseURL string
}

// Helix asks the official api
// one chunk costs a users request and a streams request
type Helix struct {
	opts   helix.Options
	client *provider.Client
}

// NewHelix querier
func NewHelix(cfg HelixConfig) (*Helix, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.NotValidf("empty twitch client id")
	}
	if cfg.Client == nil {
		cfg.Client = provider.NewClient()
	}

	opts := helix.Options{
		ClientID:       cfg.ClientID,
		AppAccessToken: cfg.AppToken,
		APIBaseURL:     cfg.BaseURL,
	}

	return &Helix{opts: opts, client: cfg.Client}, nil
}

// clientFor builds a helix client whose requests carry ctx
// and the request timeout in force right now
func (h *Helix) clientFor(ctx context.Context) (*helix.Client, error) {
	opts := h.opts
	hc := h.client.HTTP()
	opts.HTTPClient = &http.Client{
		Transport: hc.Transport,
		Jar:       hc.Jar,
		Timeout:   h.client.Timeout(),
	}

	client, err := helix.NewClientWithContext(ctx, &opts)
	if err != nil {
		return nil, errors.Annotate(err, "twitch.Helix")
	}
	return client, nil
}

func helixError(call string, res helix.ResponseCommon) error {
	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}
	return errors.Annotatef(provider.StatusError{Code: res.StatusCode}, "helix %s: %s", call, res.ErrorMessage)
}

// Query users then the streams of the users that exist
func (h *Helix) Query(ctx context.Context, names []string) ([]provider.Entry, int, error) {
	if len(names) > HelixMaxPerRequest {
		return nil, 0, errors.NotValidf("%d logins in one helix request", len(names))
	}
	logins := make([]string, len(names))
	for ndx, n := range names {
		logins[ndx] = strings.ToLower(n)
	}

	client, err := h.clientFor(ctx)
	if err != nil {
		return nil, 0, err
	}
	users, err := client.GetUsers(&helix.UsersParams{Logins: logins})
	if err != nil {
		return nil, 0, errors.Annotate(err, "helix users")
	}
	if err := helixError("users", users.ResponseCommon); err != nil {
		return nil, users.StatusCode, err
	}

	byLogin := make(map[string]*provider.Entry, len(users.Data.Users))
	found := make([]string, 0, len(users.Data.Users))
	for _, u := range users.Data.Users {
		login := strings.ToLower(u.Login)
		byLogin[login] = &provider.Entry{
			Name:        u.Login,
			DisplayName: u.DisplayName,
			Status:      stream.Offline,
		}
		found = append(found, login)
	}

	code := users.StatusCode
	if len(found) > 0 {
		streams, err := client.GetStreams(&helix.StreamsParams{
			UserLogins: found,
			First:      HelixMaxPerRequest,
		})
		if err != nil {
			return nil, code, errors.Annotate(err, "helix streams")
		}
		if err := helixError("streams", streams.ResponseCommon); err != nil {
			return nil, streams.StatusCode, err
		}
		code = streams.StatusCode

		for _, s := range streams.Data.Streams {
			e, ok := byLogin[strings.ToLower(s.UserLogin)]
			if !ok {
				continue
			}
			e.Status = stream.Public
			e.Viewers = stream.Viewers(s.ViewerCount)
			e.Category = s.GameID
			e.CategoryName = s.GameName
		}
	}

	entries := make([]provider.Entry, 0, len(byLogin))
	for _, login := range found {
		entries = append(entries, *byLogin[login])
	}

	return entries, code, nil
}

// ResolveCategories through the games endpoint
func (h *Helix) ResolveCategories(ctx context.Context, ids []string) (map[string]string, error) {
	client, err := h.clientFor(ctx)
	if err != nil {
		return nil, err
	}
	games, err := client.GetGames(&helix.GamesParams{IDs: ids})
	if err != nil {
		return nil, errors.Annotate(err, "helix games")
	}
	if err := helixError("games", games.ResponseCommon); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(games.Data.Games))
	for _, g := range games.Data.Games {
		names[g.ID] = g.Name
	}
	return names, nil
}
