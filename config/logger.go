package config

// LoggerConfig 日志配置。
// Encoding 支持 json/console，OutputPaths 为空时输出到 stdout。
type LoggerConfig struct {
	Level            string   `json:"level" yaml:"level" env:"LEVEL"`                                       // debug/info/warn/error
	Encoding         string   `json:"encoding" yaml:"encoding" env:"ENCODING"`                              // json/console
	EnableColor      bool     `json:"enableColor" yaml:"enableColor" env:"ENABLE_COLOR"`                    // console 模式下是否彩色输出
	Development      bool     `json:"development" yaml:"development" env:"DEVELOPMENT"`                     // 开发模式（error 级别带堆栈）
	OutputPaths      []string `json:"outputPaths" yaml:"outputPaths" env:"OUTPUT_PATHS" envSeparator:","` // 普通日志输出
	ErrorOutputPaths []string `json:"errorOutputPaths" yaml:"errorOutputPaths" env:"ERROR_OUTPUT_PATHS" envSeparator:","`
}

// DefaultLoggerConfig 返回本地开发的默认日志配置。
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:            "info",
		Encoding:         "json",
		EnableColor:      false,
		Development:      false,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
