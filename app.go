package main

// app wires the collaborators every subcommand needs
type app struct {
	config    *Config
	log       Logger
	metrics   *Metrics
	client    *ContentfulClient
	publisher *Publisher
	processor *SubmissionProcessor
	admin     *Admin
}

func newApp() (*app, error) {
	config, err := NewConfig(configOverrides())
	if err != nil {
		return nil, err
	}

	log, err := newLogger(config.Settings.Logging)
	if err != nil {
		return nil, err
	}

	settings := config.Settings
	client, err := NewContentfulClient(ContentfulConfig{
		APIURL:      settings.APIURL,
		UploadURL:   settings.UploadURL,
		Token:       config.Credentials.ManagementToken,
		SpaceID:     config.Credentials.SpaceID,
		Environment: settings.Environment,
		Locale:      settings.Locale,
	})
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	publisher := NewPublisher(client, settings, log, metrics)
	processor := NewSubmissionProcessor(publisher, log, metrics)
	processor.SetDryRun(dryRun)
	processor.SetStrict(strict)

	return &app{
		config:    config,
		log:       log,
		metrics:   metrics,
		client:    client,
		publisher: publisher,
		processor: processor,
		admin:     NewAdmin(client, log, metrics),
	}, nil
}

// writeMetrics flushes the run counters to the configured textfile
func (a *app) writeMetrics() {
	if err := a.metrics.WriteTextfile(a.config.Settings.MetricsFile); err != nil {
		a.log.Warningf("%v", err)
	}
}
