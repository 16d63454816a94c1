package opts

// Options bounds a greedy rewrite run.
type Options struct {
	MaxIterations int
	MaxRewrites   int
}

// CanIterate reports whether iteration n (zero-based) may run.
func (self *Options) CanIterate(n int) bool {
	return self.MaxIterations > n || self.MaxIterations == 0
}

// CanRewrite reports whether n applied rewrites are within the limit.
func (self *Options) CanRewrite(n int) bool {
	return self.MaxRewrites >= n || self.MaxRewrites == 0
}

func GetDefaultOptions() Options {
	return Options{
		MaxIterations: MaxIterations,
		MaxRewrites:   MaxRewrites,
	}
}
