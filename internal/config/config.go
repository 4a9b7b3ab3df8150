package config

import (
	"io/ioutil"

	"gopkg.in/yaml.v3"
)

// 主配置结构 - 简化命名
type Config struct {
	App       App       `yaml:"app"`
	Server    Server    `yaml:"server"`
	Database  DB        `yaml:"database"`
	Cache     Cache     `yaml:"cache"`
	Analytics Analytics `yaml:"analytics"`
	Log       Log       `yaml:"log"`
	RateLimit Limit     `yaml:"rate_limit"`
}

// 应用配置
type App struct {
	Name    string `yaml:"name"`
	Mode    string `yaml:"mode"`
	Version string `yaml:"version"`
	BaseURL string `yaml:"base_url"`
}

// 服务器配置
type Server struct {
	Port         int `yaml:"port"`
	ReadTimeout  int `yaml:"read_timeout"`
	WriteTimeout int `yaml:"write_timeout"`
}

// 数据库配置
type DB struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

// 缓存配置（Redis）
type Cache struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// 分析配置（点击记录与统计）
type Analytics struct {
	Workers    int    `yaml:"workers"`     // 点击记录工作协程数量
	QueueSize  int    `yaml:"queue_size"`  // 点击事件队列容量
	EventCap   int    `yaml:"event_cap"`   // 统计接口返回的点击详情上限
	GeoDBPath  string `yaml:"geo_db_path"` // MaxMind mmdb 文件路径，可为空
	RecentSize int    `yaml:"recent_size"` // 最近链接列表长度
}

// 日志配置
type Log struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// 限流配置
type Limit struct {
	Enabled   bool     `yaml:"enabled"`
	Requests  int64    `yaml:"requests_per_minute"`
	Burst     int64    `yaml:"burst"`
	SkipPaths []string `yaml:"skip_paths"`
}

// 加载配置
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 补齐默认值，避免零值带来的意外行为
	if cfg.Analytics.Workers <= 0 {
		cfg.Analytics.Workers = 4
	}
	if cfg.Analytics.QueueSize <= 0 {
		cfg.Analytics.QueueSize = 1024
	}
	if cfg.Analytics.EventCap <= 0 {
		cfg.Analytics.EventCap = 100
	}
	if cfg.Analytics.RecentSize <= 0 {
		cfg.Analytics.RecentSize = 10
	}

	return &cfg, nil
}
