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

package showroom

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/juju/errors"
)

// MaxNumberPages open at once in the browser
const MaxNumberPages = 8

// Renderer loads room pages in a headless browser
// some rooms only carry their metadata after scripts run
type Renderer struct {
	once     sync.Once
	err      error
	launch   *launcher.Launcher
	browser  *rod.Browser
	pagePool rod.PagePool
}

// NewRenderer that starts the browser on first use
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) start() error {
	r.once.Do(func() {
		r.launch = launcher.New().Headless(true)
		u, err := r.launch.Launch()
		if err != nil {
			r.err = errors.Annotate(err, "showroom.Renderer: launch")
			return
		}
		r.browser = rod.New().ControlURL(u)
		if err := r.browser.Connect(); err != nil {
			r.err = errors.Annotate(err, "showroom.Renderer: connect")
			return
		}
		r.pagePool = rod.NewPagePool(MaxNumberPages)
		logger.Infof("showroom.Renderer: browser ready")
	})
	return r.err
}

// Render a page and give back its html
func (r *Renderer) Render(ctx context.Context, link string, timeout time.Duration) (string, error) {
	if err := r.start(); err != nil {
		return "", err
	}

	var createErr error
	page := r.pagePool.Get(func() *rod.Page {
		p, err := r.browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			createErr = err
			return nil
		}
		return p
	})
	if page == nil {
		// let the pool hand out a fresh page next time
		r.pagePool.Put(nil)
		return "", errors.Annotatef(createErr, "showroom.Render: %s", link)
	}
	defer r.pagePool.Put(page)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := page.Context(ctx)
	if err := p.Navigate(link); err != nil {
		return "", renderError(ctx, link, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", renderError(ctx, link, err)
	}
	doc, err := p.HTML()
	if err != nil {
		return "", renderError(ctx, link, err)
	}

	return doc, nil
}

func renderError(ctx context.Context, link string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Timeoutf("rendering %s", link)
	}
	var evalErr *rod.ErrEval
	if errors.As(err, &evalErr) {
		return errors.Annotatef(err, "showroom.Render: eval %s", link)
	}
	return errors.Annotatef(err, "showroom.Render: %s", link)
}

// Close the browser
func (r *Renderer) Close() {
	if r.browser == nil {
		return
	}
	r.pagePool.Cleanup(func(p *rod.Page) {
		if p != nil {
			p.Close()
		}
	})
	r.browser.Close()
	r.launch.Cleanup()
	logger.Infof("showroom.Renderer: browser closed")
}
