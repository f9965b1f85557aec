package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FKEYFILE_LICENSE_PATH
// or FKEYFILE_DATABASE_OPTIONS_SQLITE_PATH.
const EnvPrefix = "FKEYFILE"

var Global = &Config{}

type Config struct {
	Port            int             `json:"port" yaml:"port" validate:"min=0,max=65535"`
	AdminSecret     string          `json:"admin_secret" yaml:"admin_secret" split_words:"true"`
	Product         string          `json:"product" yaml:"product" validate:"required"`
	LogLevel        string          `json:"log_level" yaml:"log_level" split_words:"true" validate:"oneof=trace debug info warn warning error fatal panic"`
	RequireLicense  bool            `json:"require_license" yaml:"require_license" split_words:"true"`
	License         License         `json:"license" yaml:"license"`
	ServerOptions   ServerOptions   `json:"server_options" yaml:"server_options" split_words:"true"`
	Database        string          `json:"database" yaml:"database" validate:"oneof=sqlite mongo file"`
	DatabaseOptions DatabaseOptions `json:"database_options" yaml:"database_options" split_words:"true"`
}

type License struct {
	Path          string `json:"path" yaml:"path" validate:"required"`
	OverrideEnv   string `json:"override_env" yaml:"override_env" split_words:"true" validate:"required"`
	Materialize   string `json:"materialize" yaml:"materialize" validate:"oneof=memory tempfile"`
	TempDir       string `json:"temp_dir" yaml:"temp_dir" split_words:"true"`
	Appeal        string `json:"appeal" yaml:"appeal"`
	ExpiredAppeal string `json:"expired_appeal" yaml:"expired_appeal" split_words:"true"`
}

type ServerOptions struct {
	EnableTLS bool   `json:"enable_tls" yaml:"enable_tls"`
	CertFile  string `json:"cert_file" yaml:"cert_file" split_words:"true" validate:"required_if=EnableTLS true"`
	KeyFile   string `json:"key_file" yaml:"key_file" split_words:"true" validate:"required_if=EnableTLS true"`
}

type DatabaseOptions struct {
	SQLite SQLite `json:"sqlite" yaml:"sqlite"`
	Mongo  Mongo  `json:"mongo" yaml:"mongo"`
	File   File   `json:"file" yaml:"file"`
}

type SQLite struct {
	Path string `json:"path" yaml:"path"`
}

type File struct {
	Dir string `json:"dir" yaml:"dir"`
}

type Mongo struct {
	Type     string `json:"type" yaml:"type"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Auth     bool   `json:"auth" yaml:"auth"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbName" yaml:"db_name"`
}

// Load reads filePath (JSON, or YAML for .yaml/.yml), applies environment
// overrides and defaults, then validates the result. A missing file is not an
// error.
func (c *Config) Load(filePath string) error {
	configuration, err := ioutil.ReadFile(filePath)
	switch {
	case os.IsNotExist(err):
		logrus.WithField("path", filePath).Warn("Config file not found, using defaults")
	case err != nil:
		logrus.WithError(err).Error("Couldn't read config file")
		return errors.Wrap(err, "read config")
	default:
		if err := unmarshal(filePath, configuration, c); err != nil {
			logrus.WithError(err).Error("Couldn't unmarshal configuration")
			return errors.Wrap(err, "unmarshal config")
		}
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return errors.Wrap(err, "config from env")
	}

	c.SetDefaults()

	return c.Validate()
}

func unmarshal(filePath string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	default:
		return json.Unmarshal(data, c)
	}
}

// SetDefaults fills every zero field that has a default.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 4242
	}
	if c.Product == "" {
		c.Product = "f-keyfile"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.License.Path == "" {
		c.License.Path = "/etc/f-keyfile-license"
	}
	if c.License.OverrideEnv == "" {
		c.License.OverrideEnv = "LICENSE_DATA_OVERRIDE"
	}
	if c.License.Materialize == "" {
		c.License.Materialize = "memory"
	}
	if c.Database == "" {
		c.Database = "sqlite"
	}
	if c.DatabaseOptions.SQLite.Path == "" {
		c.DatabaseOptions.SQLite.Path = "f-keyfile.db"
	}
	if c.DatabaseOptions.File.Dir == "" {
		c.DatabaseOptions.File.Dir = "checks"
	}

	m := &c.DatabaseOptions.Mongo
	if m.Type == "" {
		m.Type = "mongodb"
	}
	if m.Host == "" {
		m.Host = "localhost"
	}
	if m.Port == 0 {
		m.Port = 27017
	}
	if m.DBName == "" {
		m.DBName = "f-keyfile"
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
