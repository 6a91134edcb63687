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

package ipc

import (
	"net/rpc"

	"github.com/juju/errors"
)

// Client of a running livecheck
type Client struct {
	rpc *rpc.Client
}

// Dial the control server
func Dial(addr string) (*Client, error) {
	c, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "livecheck is not running on %s", addr)
	}
	return &Client{rpc: c}, nil
}

// Status with the shared selection
// pass "?" to leave the selection alone
func (c *Client) Status(selectURL string) (res Dashboard, err error) {
	err = c.rpc.Call("Command.Status", &Dashboard{SelectURL: selectURL}, &res)
	return
}

// CheckNow wakes every scheduler
func (c *Client) CheckNow(selectURL string) (res Dashboard, err error) {
	err = c.rpc.Call("Command.CheckNow", &Dashboard{SelectURL: selectURL}, &res)
	return
}

// Refresh one stream
func (c *Client) Refresh(link string) (res Refreshed, err error) {
	err = c.rpc.Call("Command.Refresh", link, &res)
	return
}

// Open a stream in the player
func (c *Client) Open(link string) error {
	return c.rpc.Call("Command.Open", link, &Opened{})
}

// Close the connection
func (c *Client) Close() error {
	return c.rpc.Close()
}
