package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultMaxIterations = 10 // greedy driver gives up after 10 sweeps
	_DefaultMaxRewrites   = 0  // no cap on applied rewrites
)

var (
	MaxIterations = parseOrDefault("WARPSYNC_MAX_ITERATIONS", _DefaultMaxIterations, 1)
	MaxRewrites   = parseOrDefault("WARPSYNC_MAX_REWRITES", _DefaultMaxRewrites, 0)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 32); err != nil {
		panic("warpsync: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("warpsync: value too small for " + key)
	} else {
		return ret
	}
}
