package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Host       string `yaml:"host"`       // The domain name of the server, used in email links.
	ServerAddr string `yaml:"serverAddr"` // The address the server endpoint binds to.

	Auth struct {
		AccessTokenSecret      string `yaml:"accessTokenSecret"`
		RefreshTokenSecret     string `yaml:"refreshTokenSecret"`
		AccessTokenExpiryHour  int    `yaml:"accessTokenExpiryHour"`
		RefreshTokenExpiryHour int    `yaml:"refreshTokenExpiryHour"`
	} `yaml:"auth"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		DBName   string `yaml:"dbname"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		SSLMode  string `yaml:"sslmode"`
		TimeZone string `yaml:"timeZone"`
	} `yaml:"postgres"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`

	Notify struct {
		// Cron spec for the outbox sweep, e.g. "@every 30s".
		SweepSpec   string `yaml:"sweepSpec"`
		MaxAttempts int    `yaml:"maxAttempts"`
		BatchSize   int    `yaml:"batchSize"`
	} `yaml:"notify"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// LoadDebugEnvironment loads a local .env file in debug mode so the
// server can run outside the cluster without exported variables.
func LoadDebugEnvironment() error {
	if !IsDebugMode() {
		return nil
	}
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// initConfig reads the configuration file. In debug mode it reads
// ./etc/debug-config.yaml (or METAHUB_DEBUG_CONFIG_PATH); otherwise it
// reads the config mounted at /etc/config/config.yaml.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("METAHUB_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("METAHUB_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	if err := readConfig(configPath, config); err != nil {
		klog.Error("init config: ", err)
		panic(err)
	}
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}
