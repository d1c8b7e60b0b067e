package scheduler

import "errors"

// ErrJobNotFound is returned by RunByName for an unregistered job.
var ErrJobNotFound = errors.New("job not found")
