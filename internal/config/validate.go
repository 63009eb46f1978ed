package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would break the daemon.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must not be empty")
	}
	if c.Parsing.PreviewSceneLimit < 1 {
		problems = append(problems, "parsing.preview_scene_limit must be at least 1")
	}
	if c.Parsing.WordsPerPage < 1 {
		problems = append(problems, "parsing.words_per_page must be at least 1")
	}
	if c.Parsing.MaxUploadMiB < 1 {
		problems = append(problems, "parsing.max_upload_mib must be at least 1")
	}
	if c.Workflow.QueuePollInterval < 1 {
		problems = append(problems, "workflow.queue_poll_interval must be at least 1 second")
	}
	if c.Workflow.ErrorRetryInterval < 1 {
		problems = append(problems, "workflow.error_retry_interval must be at least 1 second")
	}
	if c.Workflow.WorkerCount < 1 {
		problems = append(problems, "workflow.worker_count must be at least 1")
	}
	if c.Workflow.ProcessingTimeout < 1 {
		problems = append(problems, "workflow.processing_timeout must be at least 1 second")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
