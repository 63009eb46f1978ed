package main

import (
	"strings"
	"sync"

	"slugline/internal/api"
	"slugline/internal/config"
	"slugline/internal/jobs"
	"slugline/internal/quota"
	"slugline/internal/scripts"
)

// commandContext lazily loads configuration and stores shared by the CLI
// commands. Stores are opened on first use and closed by closeStores after
// the command finishes.
type commandContext struct {
	configFlag *string
	userFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu      sync.Mutex
	scripts *scripts.Store
	jobs    *jobs.Store
	ledger  *quota.Ledger
}

func newCommandContext(configFlag, userFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) userID() string {
	if c.userFlag == nil {
		return "local"
	}
	if id := strings.TrimSpace(*c.userFlag); id != "" {
		return id
	}
	return "local"
}

// service opens the stores behind a fresh api.Service facade.
func (c *commandContext) service() (*api.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scripts == nil {
		if c.scripts, err = scripts.Open(cfg); err != nil {
			return nil, err
		}
	}
	if c.jobs == nil {
		if c.jobs, err = jobs.Open(cfg); err != nil {
			return nil, err
		}
	}
	if c.ledger == nil {
		if c.ledger, err = quota.Open(cfg); err != nil {
			return nil, err
		}
	}

	return api.NewService(cfg, c.scripts, c.jobs, c.ledger, nil), nil
}

func (c *commandContext) closeStores() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scripts != nil {
		_ = c.scripts.Close()
		c.scripts = nil
	}
	if c.jobs != nil {
		_ = c.jobs.Close()
		c.jobs = nil
	}
	if c.ledger != nil {
		_ = c.ledger.Close()
		c.ledger = nil
	}
}
