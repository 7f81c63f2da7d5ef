// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package oggopus

import (
	"fmt"

	"github.com/pion/logging"
)

// DefaultMaxCommentHeaderSize bounds the assembled comment header. It matches
// the 120 MiB limit the Ogg Opus format places on the comment packet.
const DefaultMaxCommentHeaderSize = 120 * 1024 * 1024

const loggerScope = "oggopus"

type config struct {
	doChecksum           bool
	maxCommentHeaderSize int
	loggerFactory        logging.LoggerFactory
}

func newConfig(options ...Option) (*config, error) {
	cfg := &config{
		maxCommentHeaderSize: DefaultMaxCommentHeaderSize,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.loggerFactory == nil {
		cfg.loggerFactory = logging.NewDefaultLoggerFactory()
	}

	return cfg, nil
}

func (c *config) logger() logging.LeveledLogger {
	return c.loggerFactory.NewLogger(loggerScope)
}

// Option configures a PageReader or Reader.
type Option func(*config) error

// WithChecksum enables CRC verification of every page.
// Default is false: the checksum field is read but not checked.
func WithChecksum(doChecksum bool) Option {
	return func(c *config) error {
		c.doChecksum = doChecksum

		return nil
	}
}

// WithMaxCommentHeaderSize sets the ceiling for the assembled comment header.
func WithMaxCommentHeaderSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return fmt.Errorf("%w: comment header size must be positive, got %d", ErrInvalidOption, size)
		}
		c.maxCommentHeaderSize = size

		return nil
	}
}

// WithLoggerFactory sets the factory used to create the parser's logger.
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(c *config) error {
		if factory == nil {
			return fmt.Errorf("%w: logger factory is nil", ErrInvalidOption)
		}
		c.loggerFactory = factory

		return nil
	}
}
