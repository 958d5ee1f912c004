package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/adapters/socketcan"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/alert"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/decode"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"
	"github.com/UAlberta-EcoCar/Sally-Dashboard/internal/ports"
)

// Duration wraps time.Duration so YAML can say "500ms" instead of raw
// nanosecond counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		dur, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(dur)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\" or nanoseconds")
	}
	*d = Duration(time.Duration(n))
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the dashboard's single configuration document: the signal table,
// alert rules, task cadences, and queue policy. Staleness windows, dwell
// times, and escalation timings are vehicle calibration values, so all of
// them live here rather than in code.
type Config struct {
	Policy   ports.Policy             `yaml:"policy"`
	Bus      BusConfig                `yaml:"bus"`
	Signals  map[string]SignalConfig  `yaml:"signals"`
	Layout   []string                 `yaml:"layout"`
	Alerts   AlertsConfig             `yaml:"alerts"`
	Schedule ScheduleConfig           `yaml:"schedule"`
	Metrics  MetricsConfig            `yaml:"metrics"`
}

type BusConfig struct {
	Source    string           `yaml:"source"` // "socketcan" or "sim"
	SocketCAN socketcan.Config `yaml:"socketcan"`
	SimPeriod Duration         `yaml:"sim_period"`
}

// SignalConfig is one row of the externally supplied signal table.
type SignalConfig struct {
	FrameID   uint32   `yaml:"frame_id"`
	BitOffset uint     `yaml:"bit_offset"`
	BitWidth  uint     `yaml:"bit_width"`
	Scale     float64  `yaml:"scale"`
	Offset    float64  `yaml:"offset"`
	Signed    bool     `yaml:"signed"`
	BigEndian bool     `yaml:"big_endian"`
	Staleness Duration `yaml:"staleness_window"`
	Unit      string   `yaml:"unit"`
}

type AlertsConfig struct {
	ClearDwell     Duration     `yaml:"clear_dwell"`
	StaleSeverity  string       `yaml:"stale_severity"`
	DecodeSeverity string       `yaml:"decode_severity"`
	Rules          []RuleConfig `yaml:"rules"`
}

type RuleConfig struct {
	Code          string   `yaml:"code"`
	Signal        string   `yaml:"signal"`
	When          string   `yaml:"when"`
	Value         float64  `yaml:"value"`
	Severity      string   `yaml:"severity"`
	Message       string   `yaml:"message"`
	EscalateAfter Duration `yaml:"escalate_after"`
	EscalateTo    string   `yaml:"escalate_to"`
}

type ScheduleConfig struct {
	MonitorPeriod Duration `yaml:"monitor_period"`
	AlertPeriod   Duration `yaml:"alert_period"`
	RenderPeriod  Duration `yaml:"render_period"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 256
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 32
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = ports.OverflowDropOldest
	}
	if c.Bus.Source == "" {
		c.Bus.Source = "socketcan"
	}
	if c.Bus.SimPeriod == 0 {
		c.Bus.SimPeriod = Duration(100 * time.Millisecond)
	}
	c.Bus.SocketCAN.ApplyDefaults()
	if c.Schedule.MonitorPeriod == 0 {
		c.Schedule.MonitorPeriod = Duration(100 * time.Millisecond)
	}
	if c.Schedule.AlertPeriod == 0 {
		c.Schedule.AlertPeriod = Duration(250 * time.Millisecond)
	}
	if c.Schedule.RenderPeriod == 0 {
		c.Schedule.RenderPeriod = Duration(50 * time.Millisecond)
	}
	if c.Alerts.ClearDwell == 0 {
		c.Alerts.ClearDwell = Duration(2 * time.Second)
	}
	if c.Alerts.StaleSeverity == "" {
		c.Alerts.StaleSeverity = "warning"
	}
	if c.Alerts.DecodeSeverity == "" {
		c.Alerts.DecodeSeverity = "warning"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if len(c.Layout) == 0 {
		for _, name := range sortedSignalNames(c.Signals) {
			c.Layout = append(c.Layout, name)
		}
	}
}

func (c *Config) validate() error {
	if len(c.Signals) == 0 {
		return fmt.Errorf("signals: at least one signal must be defined")
	}
	switch c.Bus.Source {
	case "socketcan":
		if err := c.Bus.SocketCAN.Validate(); err != nil {
			return fmt.Errorf("bus.socketcan: %w", err)
		}
	case "sim":
	default:
		return fmt.Errorf("bus.source: unknown source %q", c.Bus.Source)
	}
	switch c.Policy.OnQueueFull {
	case ports.OverflowDropOldest, ports.OverflowDropNewest:
	default:
		return fmt.Errorf("policy.on_queue_full: unknown policy %q", c.Policy.OnQueueFull)
	}
	for _, name := range c.Layout {
		if _, ok := c.Signals[name]; !ok {
			return fmt.Errorf("layout: unknown signal %q", name)
		}
	}
	for _, r := range c.Alerts.Rules {
		if _, ok := c.Signals[r.Signal]; !ok {
			return fmt.Errorf("alert rule %q: unknown signal %q", r.Code, r.Signal)
		}
	}

	// Table and rule construction perform their own validation; running them
	// here means `dashboard validate` catches everything before launch.
	if _, err := c.SignalSpecs(); err != nil {
		return err
	}
	if _, err := c.AlertConfig(); err != nil {
		return err
	}
	return nil
}

// SignalSpecs converts the signal map into validated table rows, ordered by
// name for deterministic iteration.
func (c *Config) SignalSpecs() ([]decode.SignalSpec, error) {
	specs := make([]decode.SignalSpec, 0, len(c.Signals))
	for _, name := range sortedSignalNames(c.Signals) {
		sc := c.Signals[name]
		specs = append(specs, decode.SignalSpec{
			ID:        domain.SignalID(name),
			FrameID:   sc.FrameID,
			BitOffset: sc.BitOffset,
			BitWidth:  sc.BitWidth,
			Scale:     sc.Scale,
			Offset:    sc.Offset,
			Signed:    sc.Signed,
			BigEndian: sc.BigEndian,
			Staleness: sc.Staleness.Std(),
			Unit:      sc.Unit,
		})
	}
	if _, err := decode.NewTable(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// AlertConfig converts the alert section into an engine configuration.
func (c *Config) AlertConfig() (alert.Config, error) {
	staleSev, err := ParseSeverity(c.Alerts.StaleSeverity)
	if err != nil {
		return alert.Config{}, fmt.Errorf("alerts.stale_severity: %w", err)
	}
	decodeSev, err := ParseSeverity(c.Alerts.DecodeSeverity)
	if err != nil {
		return alert.Config{}, fmt.Errorf("alerts.decode_severity: %w", err)
	}

	rules := make([]alert.ThresholdRule, 0, len(c.Alerts.Rules))
	for _, r := range c.Alerts.Rules {
		sev, err := ParseSeverity(r.Severity)
		if err != nil {
			return alert.Config{}, fmt.Errorf("alert rule %q: %w", r.Code, err)
		}
		rule := alert.ThresholdRule{
			Code:          r.Code,
			Signal:        domain.SignalID(r.Signal),
			When:          alert.Op(r.When),
			Value:         r.Value,
			Severity:      sev,
			Message:       r.Message,
			EscalateAfter: r.EscalateAfter.Std(),
		}
		if r.EscalateTo != "" {
			esc, err := ParseSeverity(r.EscalateTo)
			if err != nil {
				return alert.Config{}, fmt.Errorf("alert rule %q: %w", r.Code, err)
			}
			rule.EscalateTo = esc
		}
		if err := rule.Validate(); err != nil {
			return alert.Config{}, err
		}
		rules = append(rules, rule)
	}

	return alert.Config{
		Rules:      rules,
		ClearDwell: c.Alerts.ClearDwell.Std(),
		FaultSeverity: map[domain.FaultKind]domain.Severity{
			domain.FaultStaleSignal: staleSev,
			domain.FaultDecode:      decodeSev,
		},
	}, nil
}

// LayoutIDs returns the display layout as signal ids.
func (c *Config) LayoutIDs() []domain.SignalID {
	out := make([]domain.SignalID, len(c.Layout))
	for i, name := range c.Layout {
		out[i] = domain.SignalID(name)
	}
	return out
}

// ParseSeverity maps the config spelling onto a severity level.
func ParseSeverity(s string) (domain.Severity, error) {
	switch s {
	case "info":
		return domain.SeverityInfo, nil
	case "warning":
		return domain.SeverityWarning, nil
	case "critical":
		return domain.SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

func sortedSignalNames(signals map[string]SignalConfig) []string {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
