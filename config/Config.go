package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerSettings HTTP 服务监听配置
type ServerSettings struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
}

// Addr 返回 gin 监听地址
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogSettings 日志配置，File 为空时只输出到 stderr
type LogSettings struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ChainSettings 单条链的原始配置
type ChainSettings struct {
	Currency          string `mapstructure:"currency"`
	EntryPointAddress string `mapstructure:"entrypoint_address"`
	RPCURL            string `mapstructure:"rpc_url"`
	ChainID           int64  `mapstructure:"chain_id"`
}

// SignerSettings bundler 签名账户配置
type SignerSettings struct {
	PrivateKey  string `mapstructure:"private_key"`
	Beneficiary string `mapstructure:"beneficiary"`
	GasLimit    uint64 `mapstructure:"gas_limit"`
}

type MySQLSettings struct {
	DSN string `mapstructure:"dsn"`
}

type MongoSettings struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// Settings 进程级配置，启动时加载一次
type Settings struct {
	Server       ServerSettings           `mapstructure:"server"`
	Log          LogSettings              `mapstructure:"log"`
	CurrentChain string                   `mapstructure:"current_chain"`
	Chains       map[string]ChainSettings `mapstructure:"chains"`
	Signer       SignerSettings           `mapstructure:"signer"`
	MySQL        MySQLSettings            `mapstructure:"mysql"`
	Mongo        MongoSettings            `mapstructure:"mongo"`
}

// envBindings 环境变量到配置项的映射
var envBindings = map[string]string{
	"current_chain":      "CURRENT_CHAIN",
	"server.port":        "SERVER_PORT",
	"log.level":          "LOG_LEVEL",
	"signer.private_key": "PRIVATE_KEY",
	"signer.beneficiary": "BENEFICIARY",
	"mysql.dsn":          "MYSQL_DSN",
	"mongo.uri":          "MONGO_URI",
}

// LoadEnv 加载 .env 文件中的环境变量，文件不存在时忽略
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// Load 读取配置文件并叠加环境变量
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.submit_timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("mongo.database", "bundler")
	v.SetDefault("mongo.collection", "user_operations")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	s.CurrentChain = strings.ToLower(strings.TrimSpace(s.CurrentChain))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 只检查进程级字段，每条链的字段由 chains.NewRegistry 校验
func (s *Settings) Validate() error {
	if s.CurrentChain == "" {
		return errors.New("config: current_chain is required")
	}
	if len(s.Chains) == 0 {
		return errors.New("config: no chains declared")
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", s.Server.Port)
	}
	return nil
}
