package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/wtsi-npg/npg-notifications/internal/config"
	"github.com/wtsi-npg/npg-notifications/internal/logging"
	"github.com/wtsi-npg/npg-notifications/internal/ontevent"
	"github.com/wtsi-npg/npg-notifications/internal/porch"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) client() (*porch.Client[ontevent.ContactEmail], *config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := c.ensureLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := ontevent.NewClient(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return client, cfg, log, nil
}
