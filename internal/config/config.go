package config

// Config 应用静态配置
type Config struct {
	Version string `yaml:"version"`
	Sqlite  struct {
		Db     string `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`
	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
	} `yaml:"log"`
	Core struct {
		// ControllerURL 运行内核的外部控制接口地址
		ControllerURL string `yaml:"controllerUrl"`
		// Secret 控制接口的访问令牌，空表示不鉴权
		Secret string `yaml:"secret"`
	} `yaml:"core"`
	Service struct {
		// ProbeURL 后台服务健康检查地址
		ProbeURL string `yaml:"probeUrl"`
	} `yaml:"service"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "0.4.0"}
	cfg.Sqlite.Db = "proxydesk.db"
	cfg.Sqlite.Prefix = "proxydesk_"
	cfg.Log.Level = "debug"
	// file 需要在 console 之前，打包后控制台日志可能无法写入
	cfg.Log.Writer = []string{"file", "console"}
	cfg.Core.ControllerURL = "http://127.0.0.1:9090"
	cfg.Service.ProbeURL = "http://127.0.0.1:33211/health"
	return cfg
}
