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

package options

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/viper"

	"github.com/bobbytrapz/livecheck/homedir"
)

var logger = loggo.GetLogger("livecheck.options")

var m sync.RWMutex

// Get an option
func Get(k string) string {
	m.RLock()
	defer m.RUnlock()

	return checkedString(k, v.GetString(k))
}

// GetDuration an option
func GetDuration(k string) time.Duration {
	m.RLock()
	defer m.RUnlock()

	return checkedDuration(k, v.GetDuration(k))
}

// GetInt an option
func GetInt(k string) int {
	m.RLock()
	defer m.RUnlock()

	return v.GetInt(k)
}

// GetBool an option
func GetBool(k string) bool {
	m.RLock()
	defer m.RUnlock()

	return v.GetBool(k)
}

// GetStringSlice an option
func GetStringSlice(k string) []string {
	m.RLock()
	defer m.RUnlock()

	return v.GetStringSlice(k)
}

// Set an option until the next reload
func Set(k string, value interface{}) {
	m.Lock()
	defer m.Unlock()

	v.Set(k, value)
}

// CheckEvery gives the poll interval of a provider
// <kind>.check_every wins over check_every
func CheckEvery(kind string) time.Duration {
	m.RLock()
	defer m.RUnlock()

	if k := kind + ".check_every"; v.IsSet(k) {
		if d := v.GetDuration(k); d >= minPollRate {
			return d
		}
	}
	return checkedDuration("check_every", v.GetDuration("check_every"))
}

// MaxPerRequest of a batch provider
func MaxPerRequest(kind string) int {
	return GetInt(kind + ".max_per_request")
}

// Header gives the static request headers of a provider
// user_agent is always set
func Header(kind string) http.Header {
	m.RLock()
	defer m.RUnlock()

	h := make(http.Header)
	h.Set("User-Agent", v.GetString("user_agent"))
	for name, value := range v.GetStringMapString(kind + ".headers") {
		h.Set(name, value)
	}
	return h
}

const (
	// Filename for config file
	Filename = "livecheck"
	// Format for config file
	Format = "toml"
	// EnvPrefix for environment overrides such as LIVECHECK_CHECK_EVERY
	EnvPrefix = "livecheck"
	// TrackListFileName inside ConfigPath
	TrackListFileName = "track.list"

	configPathWindows     = `~\AppData\Roaming\livecheck\`
	configPathUnix        = "~/.config/livecheck/"
	defaultUserAgent      = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`
	defaultPlayer         = "streamlink"
	defaultListenAddr     = "127.0.0.1:4846"
	defaultPollRate       = 120 * time.Second
	minPollRate           = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultShutdownGrace  = 5 * time.Second
	defaultStartDelay     = 10 * time.Second
	defaultBatchDelay     = 1 * time.Second
	defaultSelectFGColor  = "black"
	defaultSelectBGColor  = "white"
)

// ConfigPath is the path where track list and config file are kept
var ConfigPath string

var v = viper.New()

func init() {
	// set defaults
	v.SetDefault("check_every", defaultPollRate)
	v.SetDefault("request_timeout", defaultRequestTimeout)
	v.SetDefault("shutdown_grace", defaultShutdownGrace)
	v.SetDefault("start_delay", defaultStartDelay)
	v.SetDefault("batch_delay", defaultBatchDelay)
	v.SetDefault("comment_marker", "#")
	v.SetDefault("user_agent", defaultUserAgent)
	v.SetDefault("open_with", defaultPlayer)
	v.SetDefault("open_args", []string{})
	v.SetDefault("listen_on", defaultListenAddr)
	v.SetDefault("redis_url", "")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("select_fg_color", defaultSelectFGColor)
	v.SetDefault("select_bg_color", defaultSelectBGColor)

	v.SetDefault("twitch.api", "gql")
	v.SetDefault("twitch.max_per_request", 30)
	v.SetDefault("twitch.exclude_games", []string{})
	v.SetDefault("twitch.client_id", "")
	v.SetDefault("twitch.app_token", "")
	v.SetDefault("picarto.marker", `"status"`)
	v.SetDefault("showroom.render", false)

	v.SetConfigType(Format)
	v.SetConfigName(Filename)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var err error
	if runtime.GOOS == "windows" {
		ConfigPath, err = homedir.Expand(configPathWindows)
	} else {
		ConfigPath, err = homedir.Expand(configPathUnix)
	}
	if err != nil {
		logger.Errorf("options.init: %s", err)
		ConfigPath = filepath.Join(os.TempDir(), "livecheck")
	}
}

// ConfigFile is the full path of the config file
func ConfigFile() string {
	return filepath.Join(ConfigPath, Filename+"."+Format)
}

// TrackListPath is the full path of the track list
func TrackListPath() string {
	return filepath.Join(ConfigPath, TrackListFileName)
}

// Load the config file, writing a new one if there is none
func Load() error {
	m.Lock()
	defer m.Unlock()

	if err := os.MkdirAll(ConfigPath, 0700); err != nil {
		return errors.Annotate(err, "options.Load")
	}

	v.AddConfigPath(ConfigPath)
	if err := v.ReadInConfig(); err != nil {
		if err := v.WriteConfigAs(ConfigFile()); err != nil {
			return errors.Annotate(err, "options.Load: cannot write config")
		}
		logger.Infof("wrote new config file: %s", ConfigFile())
	}

	if err := validate(); err != nil {
		logger.Warningf("options.Load: %s: using the default", err)
	}

	return nil
}

// Watch the config file and call fn after each valid change
func Watch(fn func()) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		m.Lock()
		err := validate()
		m.Unlock()
		if err != nil {
			logger.Warningf("options.Watch: %s: using the default", err)
		}
		logger.Infof("config file changed: %s", e.Name)
		if fn != nil {
			fn()
		}
	})
}

var errInvalidPollRate = errors.NotValidf("check_every below %s", minPollRate)

// checkedDuration reads a bad value as its default
// the value in the file is left alone so fixing it takes effect
func checkedDuration(k string, d time.Duration) time.Duration {
	switch k {
	case "check_every":
		if d < minPollRate {
			return defaultPollRate
		}
	case "request_timeout":
		if d <= 0 {
			return defaultRequestTimeout
		}
	}
	return d
}

func checkedString(k, value string) string {
	if k == "twitch.api" && value != "gql" && value != "helix" {
		return "gql"
	}
	return value
}

// validate reports options that would hurt the platforms we poll
// the caller holds the lock
func validate() error {
	if v.GetDuration("check_every") < minPollRate {
		return errInvalidPollRate
	}
	if v.GetDuration("request_timeout") <= 0 {
		return errors.NotValidf("request_timeout")
	}
	if api := v.GetString("twitch.api"); api != "gql" && api != "helix" {
		return errors.NotValidf("twitch.api %q", api)
	}
	return nil
}

// AreValid is true if the options are valid
func AreValid() (ok bool, err error) {
	m.RLock()
	defer m.RUnlock()

	if err = validate(); err != nil {
		return false, err
	}
	return true, nil
}
