// Copyright 2021 The partx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package partx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gogama/partx/retry"
	"github.com/gogama/partx/timeout"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by the errors LoadConfig returns for a
// document which parses but does not make sense.
var ErrInvalidConfig = errors.New("partx: invalid config")

// A Config is the file form of a Client's settings. Zero fields mean
// the Client default.
//
//	workers: 8
//	part_size: 16777216
//	max_requests: 32
//	timeout:
//	  usual: 10s
//	  after: [30s, 2m]
//	  per_mib: 1s
//	retry:
//	  times: 4
//	  status_codes: [500, 503]
//	  base: 100ms
//	  max: 5s
//	  retry_after: 30s
type Config struct {
	Workers     int           `yaml:"workers"`
	PartSize    int           `yaml:"part_size"`
	MaxRequests int           `yaml:"max_requests"`
	Timeout     TimeoutConfig `yaml:"timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// A TimeoutConfig describes a timeout.Policy.
type TimeoutConfig struct {
	// Usual is the timeout of an attempt not preceded by a timeout.
	Usual time.Duration `yaml:"usual"`
	// After lists the timeouts used after the first, second, and
	// later attempt timeouts, as in timeout.Adaptive.
	After []time.Duration `yaml:"after"`
	// PerMiB extends every timeout by this much per mebibyte of
	// request body, as in timeout.Sized.
	PerMiB time.Duration `yaml:"per_mib"`
}

// A RetryConfig describes a retry.Policy.
type RetryConfig struct {
	// Disabled turns retries off.
	Disabled bool `yaml:"disabled"`
	// Times is the maximum number of retries.
	Times int `yaml:"times"`
	// StatusCodes are the response status codes which are retried.
	// Transient errors are always retried.
	StatusCodes []int `yaml:"status_codes"`
	// Base and Max bound the exponential backoff between retries.
	Base time.Duration `yaml:"base"`
	Max  time.Duration `yaml:"max"`
	// RetryAfter, if positive, honors Retry-After headers up to this
	// long.
	RetryAfter time.Duration `yaml:"retry_after"`
}

// LoadConfig decodes a YAML document from r. Unknown keys are an error.
func LoadConfig(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("partx: decoding config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReadConfigFile loads the configuration stored in the file at path.
func ReadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadConfig(f)
}

func (c *Config) validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: negative workers", ErrInvalidConfig)
	case c.PartSize < 0:
		return fmt.Errorf("%w: negative part_size", ErrInvalidConfig)
	case c.MaxRequests < 0:
		return fmt.Errorf("%w: negative max_requests", ErrInvalidConfig)
	case c.Timeout.Usual < 0 || c.Timeout.PerMiB < 0:
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	case c.Retry.Times < 0:
		return fmt.Errorf("%w: negative retry times", ErrInvalidConfig)
	case c.Retry.Base < 0 || c.Retry.Max < 0 || c.Retry.RetryAfter < 0:
		return fmt.Errorf("%w: negative retry wait", ErrInvalidConfig)
	case c.Retry.Base > 0 && c.Retry.Max > 0 && c.Retry.Max < c.Retry.Base:
		return fmt.Errorf("%w: retry max below base", ErrInvalidConfig)
	}
	for _, d := range c.Timeout.After {
		if d <= 0 {
			return fmt.Errorf("%w: non-positive timeout in after", ErrInvalidConfig)
		}
	}
	if len(c.Timeout.After) > 0 && c.Timeout.Usual == 0 {
		return fmt.Errorf("%w: timeout after requires usual", ErrInvalidConfig)
	}
	return nil
}

// NewClient returns a Client configured by c, sending with doer and
// logging to logger. Either may be nil.
func (c *Config) NewClient(doer HTTPDoer, logger *zap.Logger) *Client {
	return &Client{
		HTTPDoer:      doer,
		RetryPolicy:   c.Retry.policy(),
		TimeoutPolicy: c.Timeout.policy(),
		Logger:        logger,
		Workers:       c.Workers,
		PartSize:      c.PartSize,
		MaxRequests:   c.MaxRequests,
	}
}

func (tc *TimeoutConfig) policy() timeout.Policy {
	var p timeout.Policy
	if tc.Usual > 0 {
		p = timeout.Adaptive(tc.Usual, tc.After...)
	}
	if tc.PerMiB > 0 {
		if p == nil {
			p = timeout.DefaultPolicy
		}
		p = timeout.Sized(p, tc.PerMiB)
	}
	return p
}

var defaultRetryStatusCodes = []int{429, 500, 502, 503, 504}

func (rc *RetryConfig) policy() retry.Policy {
	if rc.Disabled {
		return retry.Never
	}
	if rc.Times == 0 && len(rc.StatusCodes) == 0 && rc.Base == 0 && rc.Max == 0 && rc.RetryAfter == 0 {
		return nil
	}
	times := rc.Times
	if times == 0 {
		times = retry.DefaultTimes
	}
	codes := rc.StatusCodes
	if len(codes) == 0 {
		codes = defaultRetryStatusCodes
	}
	d := retry.Times(times).And(retry.StatusCode(codes...).Or(retry.TransientErr))
	var w retry.Waiter = retry.DefaultWaiter
	if rc.Base > 0 || rc.Max > 0 {
		base, max := rc.Base, rc.Max
		if base == 0 {
			base = 50 * time.Millisecond
		}
		if max < base {
			max = base
		}
		w = retry.NewExpWaiter(base, max, time.Now())
	}
	if rc.RetryAfter > 0 {
		w = retry.RetryAfter(rc.RetryAfter, w)
	}
	return retry.NewPolicy(d, w)
}
