package config

import (
	"errors"
	"fmt"

	"reelqueue/internal/tasktype"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.Concurrency < 1 {
		return errors.New("scheduler.concurrency must be at least 1")
	}
	if c.Scheduler.PollIntervalMS < 1 {
		return errors.New("scheduler.poll_interval_ms must be positive")
	}
	if c.Scheduler.PersistDelayMS < 0 {
		return errors.New("scheduler.persist_delay_ms must not be negative")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if !c.Ingest.Enabled {
		return nil
	}
	if c.Paths.InboxDir == "" {
		return errors.New("paths.inbox_dir must be set when ingest.enabled is true")
	}
	for _, raw := range c.Ingest.FollowUps {
		if _, ok := tasktype.Parse(raw); !ok {
			return fmt.Errorf("ingest.follow_ups: unknown task type %q", raw)
		}
	}
	if len(c.Ingest.VideoExtensions) == 0 {
		return errors.New("ingest.video_extensions must not be empty when ingest.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// FollowUpTypes returns the parsed ingest follow-up task types.
func (c *Config) FollowUpTypes() []tasktype.Type {
	types := make([]tasktype.Type, 0, len(c.Ingest.FollowUps))
	for _, raw := range c.Ingest.FollowUps {
		if t, ok := tasktype.Parse(raw); ok {
			types = append(types, t)
		}
	}
	return types
}
