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

package backoff

import (
	"testing"
	"time"
)

func TestJitter(t *testing.T) {
	if d := Jitter(0); d != 0 {
		t.Error("want 0 got", d)
	}
	for i := 0; i < 100; i++ {
		if d := Jitter(time.Second); d < 0 || d >= time.Second {
			t.Fatal("want [0, 1s) got", d)
		}
	}
}
