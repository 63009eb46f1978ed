package config

const (
	defaultDataDir            = "~/.local/share/slugline"
	defaultLogDir             = "~/.local/share/slugline/logs"
	defaultAPIBind            = "127.0.0.1:8347"
	defaultFreeTierPages      = 10
	defaultPremiumTierPages   = 0 // unlimited
	defaultPreviewSceneLimit  = 3
	defaultWordsPerPage       = 250
	defaultMaxUploadMiB       = 10
	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 5
	defaultWorkerCount        = 4
	defaultProcessingTimeout  = 300
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Quota: Quota{
			FreeTierPages:    defaultFreeTierPages,
			PremiumTierPages: defaultPremiumTierPages,
		},
		Parsing: Parsing{
			PreviewSceneLimit: defaultPreviewSceneLimit,
			WordsPerPage:      defaultWordsPerPage,
			MaxUploadMiB:      defaultMaxUploadMiB,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			WorkerCount:        defaultWorkerCount,
			ProcessingTimeout:  defaultProcessingTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
