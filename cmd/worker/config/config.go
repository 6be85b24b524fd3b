package config

type BaseCronJobConfig struct {
	CronExpr string `yaml:"cronExpr" mapstructure:"cronExpr"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"` // 单位: 毫秒
}

type StalledJobRecovererConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`
}

func (StalledJobRecovererConfig) Key() string {
	return "stalledJobRecoverer"
}

type StuckSubmissionJanitorConfig struct {
	BaseCronJobConfig `yaml:",inline" mapstructure:",squash"`

	StuckAfter int `yaml:"stuckAfter" mapstructure:"stuckAfter"` // 单位: 分钟
}

func (StuckSubmissionJanitorConfig) Key() string {
	return "stuckSubmissionJanitor"
}
