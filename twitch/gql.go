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
	"encoding/json"
	"net/http"
	"strings"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

const (
	// DefaultEndpoint for gql requests
	DefaultEndpoint = "https://gql.twitch.tv/gql"
	// DefaultClientID is the id the website itself sends
	DefaultClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	// DefaultMaxPerRequest operations in one gql request
	DefaultMaxPerRequest = 30
)

const streamStatusQuery = `query StreamStatus($login: String!) {
  user(login: $login) {
    login
    displayName
    stream {
      type
      viewersCount
      game { id }
    }
  }
}`

const gameNameQuery = `query GameName($id: ID!) {
  game(id: $id) {
    id
    displayName
  }
}`

// GQL asks the website endpoint about many channels in one request
type GQL struct {
	Client   *provider.Client
	Endpoint string
	// headers for every request, read each time
	Header func() http.Header
}

// NewGQL querier
func NewGQL(client *provider.Client, header func() http.Header) *GQL {
	if client == nil {
		client = provider.NewClient()
	}
	if header == nil {
		header = func() http.Header { return nil }
	}
	return &GQL{
		Client:   client,
		Endpoint: DefaultEndpoint,
		Header:   header,
	}
}

type gqlOperation struct {
	OperationName string                 `json:"operationName"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlStatusResult struct {
	Data *struct {
		User *struct {
			Login       string `json:"login"`
			DisplayName string `json:"displayName"`
			Stream      *struct {
				Type         string `json:"type"`
				ViewersCount *int   `json:"viewersCount"`
				Game         *struct {
					ID string `json:"id"`
				} `json:"game"`
			} `json:"stream"`
		} `json:"user"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type gqlGameResult struct {
	Data *struct {
		Game *struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"game"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

func (q *GQL) post(ctx context.Context, ops []gqlOperation, into interface{}) (int, error) {
	body, err := json.Marshal(ops)
	if err != nil {
		return 0, errors.Trace(err)
	}

	header := http.Header{}
	header.Set("Client-Id", DefaultClientID)
	header.Set("Content-Type", "text/plain;charset=UTF-8")
	header.Set("Origin", "https://www.twitch.tv")
	header.Set("Referer", "https://www.twitch.tv/")
	for k, vs := range q.Header() {
		header[http.CanonicalHeaderKey(k)] = vs
	}

	res, err := q.Client.Post(ctx, q.Endpoint, body, header)
	if err != nil {
		return res.Code, err
	}

	if err := json.Unmarshal(res.Body, into); err != nil {
		return res.Code, provider.Malformed(err, "twitch gql")
	}

	return res.Code, nil
}

// Query one operation per login
func (q *GQL) Query(ctx context.Context, names []string) ([]provider.Entry, int, error) {
	ops := make([]gqlOperation, len(names))
	for ndx, name := range names {
		ops[ndx] = gqlOperation{
			OperationName: "StreamStatus",
			Query:         streamStatusQuery,
			Variables:     map[string]interface{}{"login": strings.ToLower(name)},
		}
	}

	var results []gqlStatusResult
	code, err := q.post(ctx, ops, &results)
	if err != nil {
		return nil, code, err
	}
	if len(results) != len(ops) {
		return nil, code, provider.Malformed(nil, "twitch gql: %d results for %d operations", len(results), len(ops))
	}

	entries := make([]provider.Entry, 0, len(results))
	for ndx, r := range results {
		if r.Data == nil {
			if len(r.Errors) > 0 {
				return nil, code, errors.Errorf("twitch gql: %s: %s", names[ndx], r.Errors[0].Message)
			}
			return nil, code, provider.Malformed(nil, "twitch gql: %s: no data", names[ndx])
		}

		u := r.Data.User
		if u == nil {
			continue
		}

		e := provider.Entry{
			Name:        u.Login,
			DisplayName: u.DisplayName,
			Status:      stream.Offline,
		}
		if s := u.Stream; s != nil {
			e.Status = stream.Public
			if s.Type == "rerun" {
				e.Status = stream.Rerun
			}
			e.Viewers = s.ViewersCount
			if s.Game != nil {
				e.Category = s.Game.ID
			}
		}

		entries = append(entries, e)
	}

	return entries, code, nil
}

// ResolveCategories names game ids in one request
func (q *GQL) ResolveCategories(ctx context.Context, ids []string) (map[string]string, error) {
	ops := make([]gqlOperation, len(ids))
	for ndx, id := range ids {
		ops[ndx] = gqlOperation{
			OperationName: "GameName",
			Query:         gameNameQuery,
			Variables:     map[string]interface{}{"id": id},
		}
	}

	var results []gqlGameResult
	if _, err := q.post(ctx, ops, &results); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(results))
	for _, r := range results {
		if r.Data == nil || r.Data.Game == nil {
			continue
		}
		names[r.Data.Game.ID] = r.Data.Game.DisplayName
	}

	return names, nil
}
