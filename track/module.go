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

package track

import (
	"strings"
	"sync"

	"github.com/juju/errors"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/stream"
)

// ErrUnsupported is given for links no provider handles
const ErrUnsupported = errors.ConstError("unsupported host")

// DefaultCommentMarker starts a line the list reader skips
const DefaultCommentMarker = "#"

// Factory makes streams from track list lines
type Factory struct {
	mu      sync.RWMutex
	modules map[string]provider.Module
	kinds   []stream.Kind
	// lines starting with this are skipped
	CommentMarker func() string
}

// NewFactory with the given provider modules
func NewFactory(modules ...provider.Module) (*Factory, error) {
	f := &Factory{
		modules:       make(map[string]provider.Module),
		CommentMarker: func() string { return DefaultCommentMarker },
	}
	for _, m := range modules {
		if err := f.Register(m); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Register a provider module for its hostnames
func (f *Factory) Register(m provider.Module) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m.NewStream == nil {
		return errors.NotValidf("module %q without a stream constructor", m.Kind)
	}
	for _, host := range m.Hosts {
		if _, ok := f.modules[strings.ToLower(host)]; ok {
			return errors.AlreadyExistsf("module for %q", host)
		}
	}
	for _, host := range m.Hosts {
		f.modules[strings.ToLower(host)] = m
	}
	f.kinds = append(f.kinds, m.Kind)

	return nil
}

// Kinds of every registered provider in registration order
func (f *Factory) Kinds() []stream.Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]stream.Kind(nil), f.kinds...)
}

// Find the module for a hostname
func (f *Factory) Find(host string) (provider.Module, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.modules[strings.ToLower(host)]
	return m, ok
}

// New stream from one track list line
// a blank or comment line gives nil without an error
// an unknown host gives an Unsupported stream along with ErrUnsupported
func (f *Factory) New(line string) (stream.Stream, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if marker := f.CommentMarker(); marker != "" && strings.HasPrefix(line, marker) {
		return nil, nil
	}

	u, err := stream.ParseLink(line)
	if err != nil {
		return nil, err
	}

	m, ok := f.Find(u.Hostname())
	if !ok {
		return stream.NewUnsupported(u), errors.Annotatef(ErrUnsupported, "%s", u.Hostname())
	}

	s, err := m.NewStream(u)
	if err != nil {
		return nil, errors.Annotatef(err, "track.New: %s", line)
	}
	return s, nil
}

// Parse every line
// bad lines are reported and skipped, unsupported hosts are kept
func (f *Factory) Parse(lines []string) (streams []stream.Stream, problems []error) {
	for _, line := range lines {
		s, err := f.New(line)
		if err != nil {
			problems = append(problems, err)
		}
		if s != nil {
			streams = append(streams, s)
		}
	}
	return
}
