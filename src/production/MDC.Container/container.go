package container

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jonboulle/clockwork"
	config "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Config"
	client "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.DashboardService/client"
	logger "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Logger"
	publisher "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Publisher"
	report "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Report"
	runner "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.ReportService/runner"
	storage "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Storage"
)

// ReportContainer manages dependencies for the report command
type ReportContainer struct {
	config *config.Config
	logger *logger.Logger
	clock  clockwork.Clock

	dashboard *client.DashboardClient
	writer    *storage.JSONWriter
	publisher *publisher.MQTTPublisher

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions
	cleanupFuncs []func() error
}

// NewReportContainer loads configuration from the environment and builds a
// container around it.
func NewReportContainer() (*ReportContainer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logging)

	return NewReportContainerFromConfig(cfg, log), nil
}

// NewReportContainerFromConfig builds a container from an already loaded
// configuration. A nil logger is created from cfg.Logging.
func NewReportContainerFromConfig(cfg *config.Config, log *logger.Logger) *ReportContainer {
	if log == nil {
		log = logger.NewLogger(&cfg.Logging)
	}
	c := &ReportContainer{
		config: cfg,
		logger: log,
		clock:  clockwork.NewRealClock(),
	}
	// registered first so it runs last and other cleanups can still log
	c.cleanupFuncs = append(c.cleanupFuncs, log.Close)
	return c
}

// GetLogger returns the logger
func (c *ReportContainer) GetLogger() *logger.Logger {
	return c.logger
}

// SetClock replaces the clock used to stamp reports.
func (c *ReportContainer) SetClock(clock clockwork.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

// GetDashboardClient returns the dashboard API client
func (c *ReportContainer) GetDashboardClient() *client.DashboardClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dashboard == nil {
		c.dashboard = client.New(c.config.Dashboard, c.logger)
	}
	return c.dashboard
}

// GetJSONWriter returns the writer for report files
func (c *ReportContainer) GetJSONWriter() *storage.JSONWriter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		c.writer = storage.NewJSONWriter(c.config.Output.Dir, c.logger)
	}
	return c.writer
}

// GetPublisher returns the MQTT publisher, or nil when no broker is
// configured.
func (c *ReportContainer) GetPublisher() (*publisher.MQTTPublisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.config.MQTT.Enabled() {
		return nil, nil
	}
	if c.publisher == nil {
		p, err := publisher.NewMQTTPublisher(c.config.MQTT, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create mqtt publisher: %w", err)
		}
		c.publisher = p
		c.cleanupFuncs = append(c.cleanupFuncs, func() error {
			p.Close()
			return nil
		})
	}
	return c.publisher, nil
}

// Runner wires a report runner that prints progress to out.
func (c *ReportContainer) Runner(out io.Writer) (*runner.Runner, error) {
	pub, err := c.GetPublisher()
	if err != nil {
		return nil, err
	}

	writer := c.GetJSONWriter()
	if err := writer.EnsureDir(); err != nil {
		c.logger.WithField("dir", c.config.Output.Dir).WithError(err).Warn("Output directory unavailable")
	}

	c.mu.Lock()
	builder := report.NewBuilder(c.clock)
	c.mu.Unlock()

	var p runner.Publisher
	if pub != nil {
		p = pub
	}
	return runner.New(c.GetDashboardClient(), writer, builder, p, out, c.logger), nil
}

// AddCleanupFunc adds a cleanup function
func (c *ReportContainer) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown releases everything the container opened
func (c *ReportContainer) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	c.logger.Debug("Shutting down container")

	// Execute cleanup functions in reverse order
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := funcs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}
	return nil
}
