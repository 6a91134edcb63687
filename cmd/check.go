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
	"fmt"
	"os"
	"os/signal"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/bobbytrapz/livecheck/provider"
	"github.com/bobbytrapz/livecheck/track"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <link>...",
	Short: "Check streams once without the background process",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		modules, updaters, renderer, err := providers(newClient())
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

		var failed int
		for _, link := range args {
			s, err := factory.New(link)
			if err != nil {
				fmt.Printf("%s: %s\n", link, err)
				failed++
				continue
			}
			if s == nil {
				continue
			}

			o := provider.One(ctx, updaters[s.Kind()], s)
			// nobody else holds this stream
			o.Change.Apply(s)

			info := track.InfoOf(s)
			line := fmt.Sprintf("%-12s %s (%s)", info.Status, info.DisplayName, info.Service)
			if info.HasViewers {
				line += fmt.Sprintf(" %d watching", info.Viewers)
			}
			if info.Game != "" {
				line += " " + info.Game
			}
			if !o.OK() {
				line += fmt.Sprintf(" [%d %s]", o.Code, o.Message())
				failed++
			}
			fmt.Println(line)
		}

		if failed > 0 {
			return errors.Errorf("%d of %d checks failed", failed, len(args))
		}
		return nil
	},
}

