package config

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/the-paperwork-must-flow/internal/common"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// DefaultSchedule runs a full cycle every morning at 08:00.
const DefaultSchedule = "0 8 * * *"

// DaemonConfig holds the scheduler and metrics endpoint settings.
// CertDir holds the self-signed certificate served when MetricsTLS is set.
type DaemonConfig struct {
	Schedule       string
	MetricsAddress string
	CertDir        string
	MetricsHosts   []string
	MetricsTLS     bool
	RunOnStart     bool
}

// LoadDaemonConfig loads daemon settings and checks the cron expression.
func LoadDaemonConfig() (*DaemonConfig, error) {
	config := &DaemonConfig{
		Schedule:       DefaultSchedule,
		MetricsAddress: viper.GetString("metrics.address"),
		RunOnStart:     viper.GetBool("daemon.run_on_start"),
		MetricsTLS:     viper.GetBool("metrics.tls"),
		MetricsHosts:   viper.GetStringSlice("metrics.tls_hosts"),
		CertDir:        filepath.Join(Dir(), "certs"),
	}
	if v := viper.GetString("metrics.cert_dir"); v != "" {
		config.CertDir = ExpandPath(v)
	}
	if v := viper.GetString("daemon.schedule"); v != "" {
		config.Schedule = v
	}

	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("%w: daemon.schedule %q: %v", common.ErrInvalidConfig, config.Schedule, err)
	}
	if config.MetricsTLS && config.MetricsAddress == "" {
		return nil, fmt.Errorf("%w: metrics.tls requires metrics.address", common.ErrInvalidConfig)
	}
	return config, nil
}
