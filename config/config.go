package config

type GinConfig struct {
	Addr             string   `yaml:"addr" mapstructure:"addr"`
	AllowOrigins     []string `yaml:"allowOrigins" mapstructure:"allowOrigins"`
	AllowMethods     []string `yaml:"allowMethods" mapstructure:"allowMethods"`
	AllowHeaders     []string `yaml:"allowHeaders" mapstructure:"allowHeaders"`
	ExposeHeaders    []string `yaml:"exposeHeaders" mapstructure:"exposeHeaders"`
	AllowCredentials bool     `yaml:"allowCredentials" mapstructure:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge" mapstructure:"maxAge"` // 单位: 秒
	IgnorePaths      []string `yaml:"ignorePaths" mapstructure:"ignorePaths"`
}

func (GinConfig) Key() string {
	return "gin"
}

type MySQLConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

func (MySQLConfig) Key() string {
	return "mysql"
}

type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" mapstructure:"brokers"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

type JWTConfig struct {
	JwtKey            string `yaml:"jwtKey" mapstructure:"jwtKey"`
	RefreshKey        string `yaml:"refreshKey" mapstructure:"refreshKey"`
	JwtExpiration     int    `yaml:"jwtExpiration" mapstructure:"jwtExpiration"`         // 单位: 分钟
	RefreshExpiration int    `yaml:"refreshExpiration" mapstructure:"refreshExpiration"` // 单位: 小时
}

func (JWTConfig) Key() string {
	return "jwt"
}

type Judge0Config struct {
	BaseURL      string `yaml:"baseUrl" mapstructure:"baseUrl"`
	APIKey       string `yaml:"apiKey" mapstructure:"apiKey"`
	APIHost      string `yaml:"apiHost" mapstructure:"apiHost"`
	PollInterval int    `yaml:"pollInterval" mapstructure:"pollInterval"` // 单位: 毫秒
	MaxWait      int    `yaml:"maxWait" mapstructure:"maxWait"`           // 单位: 毫秒
}

func (Judge0Config) Key() string {
	return "judge0"
}

type QueueConfig struct {
	Name             string `yaml:"name" mapstructure:"name"`
	MaxAttempts      int    `yaml:"maxAttempts" mapstructure:"maxAttempts"`
	JobTimeout       int    `yaml:"jobTimeout" mapstructure:"jobTimeout"` // 单位: 毫秒
	MaxJobsPerSecond int    `yaml:"maxJobsPerSecond" mapstructure:"maxJobsPerSecond"`
	KeepCompleted    int    `yaml:"keepCompleted" mapstructure:"keepCompleted"`
	KeepFailed       int    `yaml:"keepFailed" mapstructure:"keepFailed"`
	StallTimeout     int    `yaml:"stallTimeout" mapstructure:"stallTimeout"` // 单位: 毫秒
	RetentionTTL     int    `yaml:"retentionTTL" mapstructure:"retentionTTL"` // 单位: 分钟
}

func (QueueConfig) Key() string {
	return "queue"
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

func (WorkerConfig) Key() string {
	return "worker"
}

type LoggerConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

func (LoggerConfig) Key() string {
	return "logger"
}
