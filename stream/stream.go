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

// Package stream holds the tracked account model shared by every provider.
//
// Streams are identified by their normalized link only. Every other
// attribute is mutable and is changed by applying an Outcome, never by a
// provider directly.
package stream

import (
	"net/url"
)

// Kind tells which provider owns a stream
type Kind string

// KindUnsupported is given to links no provider recognizes
const KindUnsupported Kind = "unsupported"

// Stream is one tracked account
type Stream interface {
	// identity
	Key() Key
	// url string
	Link() string
	// provider that owns this stream
	Kind() Kind
	// account name taken from the link
	Name() string
	// for display; Name until a provider gives a better one
	DisplayName() string
	Status() Status
	// only present while Public
	Viewers() (int, bool)
	// provider label for display
	ServiceName() string
	// an external launcher can open this stream
	HasBatchSupport() bool

	base() *Base
}

// Base is the data every stream kind carries
// concrete kinds embed it and add their own fields
type Base struct {
	key         Key
	link        string
	kind        Kind
	name        string
	displayName string
	status      Status
	viewers     int
	hasViewers  bool
	service     string
	launchable  bool
}

// Info needed to create a Base
type Info struct {
	Link        *url.URL
	Kind        Kind
	Name        string
	ServiceName string
	// launcher capability
	HasBatchSupport bool
}

// NewBase for a stream kind
// Name defaults to the last path segment
func NewBase(info Info) *Base {
	name := info.Name
	if name == "" {
		name = NameFromLink(info.Link)
	}
	if name == "" {
		name = info.Link.Hostname()
	}

	key := KeyOf(info.Link)

	return &Base{
		key:        key,
		link:       string(key),
		kind:       info.Kind,
		name:       name,
		service:    info.ServiceName,
		launchable: info.HasBatchSupport,
	}
}

func (b *Base) base() *Base { return b }

// Key is the identity
func (b *Base) Key() Key { return b.key }

// Link is the normalized url string
func (b *Base) Link() string { return b.link }

// Kind of provider
func (b *Base) Kind() Kind { return b.kind }

// Name from the link
func (b *Base) Name() string { return b.name }

// DisplayName falls back to Name
func (b *Base) DisplayName() string {
	if b.displayName == "" {
		return b.name
	}
	return b.displayName
}

// Status last applied
func (b *Base) Status() Status { return b.status }

// Viewers while public
func (b *Base) Viewers() (int, bool) { return b.viewers, b.hasViewers }

// ServiceName is the provider label
func (b *Base) ServiceName() string { return b.service }

// HasBatchSupport tells if a launcher exists for this provider
func (b *Base) HasBatchSupport() bool { return b.launchable }

// Equal streams have the same identity
func Equal(a, b Stream) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// unsupported is a stream on a host we do not know
type unsupported struct {
	*Base
}

// NewUnsupported stream for a link no provider handles
func NewUnsupported(u *url.URL) Stream {
	s := unsupported{
		Base: NewBase(Info{
			Link:        u,
			Kind:        KindUnsupported,
			ServiceName: "Unsupported",
		}),
	}
	s.status = Unsupported
	return s
}
