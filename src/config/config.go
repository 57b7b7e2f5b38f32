// Package config provides configuration management for azdo-mcp.
//
// Settings come from an appsettings.json file and from environment
// variables. Environment variables always take precedence over file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Configuration keys, as they appear in appsettings.json.
const (
	KeyURL             = "VSUrl"
	KeyToken           = "VSKey"
	KeyProject         = "VSProject"
	KeyBuildDefinition = "VSBuildDefinition"
	KeyBasePath        = "BasePath"
	KeyMaxItems        = "MaxItems"
	KeyGoodBranch      = "GoodBranch"
	KeyBadBranch       = "BadBranch"
	KeyLogDir          = "LogDir"
	KeyLogLevel        = "LogLevel"
	KeyPostgresDSN     = "PostgresDSN"
	KeyRedpandaBrokers = "RedpandaBrokers"
)

// DefaultFileName is the settings file looked up next to the executable.
const DefaultFileName = "appsettings.json"

const (
	defaultMaxItems   = 10
	defaultGoodBranch = "refs/heads/main"
	defaultBadBranch  = "refs/heads/make-main-fail"
	defaultLogLevel   = "debug"
)

// envBindings maps each key to the environment variables that can set it.
// The appsettings.json key names are accepted alongside the AZDO_* names.
var envBindings = map[string][]string{
	KeyURL:             {"VSUrl", "AZDO_URL"},
	KeyToken:           {"VSKey", "AZDO_PAT"},
	KeyProject:         {"VSProject", "AZDO_PROJECT"},
	KeyBuildDefinition: {"VSBuildDefinition", "AZDO_BUILD_DEFINITION"},
	KeyBasePath:        {"BasePath", "AZDO_BASE_PATH"},
	KeyMaxItems:        {"AZDO_MAX_ITEMS"},
	KeyGoodBranch:      {"AZDO_GOOD_BRANCH"},
	KeyBadBranch:       {"AZDO_BAD_BRANCH"},
	KeyLogDir:          {"AZDO_LOG_DIR"},
	KeyLogLevel:        {"AZDO_LOG_LEVEL"},
	KeyPostgresDSN:     {"POSTGRES_DSN"},
	KeyRedpandaBrokers: {"REDPANDA_BROKERS"},
}

// Config holds the application configuration.
type Config struct {
	// URL is the Azure DevOps organization URL, e.g. https://dev.azure.com/contoso.
	URL string
	// Token is the personal access token used for basic auth.
	Token string
	// Project is the Azure DevOps project name.
	Project string
	// BuildDefinitionID is the numeric id of the pipeline definition to query.
	BuildDefinitionID int
	// BasePath is the root of the on-disk log archive. Optional.
	BasePath string

	MaxItems   int
	GoodBranch string
	BadBranch  string

	LogDir   string
	LogLevel string

	// PostgresDSN enables the Postgres archive index when set.
	PostgresDSN string
	// RedpandaBrokers enables archive events when non-empty.
	RedpandaBrokers []string
}

// DefaultPath returns the appsettings.json path next to the running executable.
func DefaultPath() string {
	return filepath.Join(executableDir(), DefaultFileName)
}

// DefaultLogDir returns the logs directory next to the running executable.
func DefaultLogDir() string {
	return filepath.Join(executableDir(), "logs")
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Load reads configuration from path on fs and applies environment overrides.
// If path is empty, DefaultPath is used and a missing file is not an error.
// A missing file that was named explicitly is an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("json")

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("checking config file %s: %w", path, err)
	}
	switch {
	case exists:
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	v.SetDefault(KeyMaxItems, defaultMaxItems)
	v.SetDefault(KeyGoodBranch, defaultGoodBranch)
	v.SetDefault(KeyBadBranch, defaultBadBranch)
	v.SetDefault(KeyLogDir, DefaultLogDir())
	v.SetDefault(KeyLogLevel, defaultLogLevel)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		URL:         strings.TrimSpace(v.GetString(KeyURL)),
		Token:       strings.TrimSpace(v.GetString(KeyToken)),
		Project:     strings.TrimSpace(v.GetString(KeyProject)),
		BasePath:    v.GetString(KeyBasePath),
		GoodBranch:  v.GetString(KeyGoodBranch),
		BadBranch:   v.GetString(KeyBadBranch),
		LogDir:      v.GetString(KeyLogDir),
		LogLevel:    v.GetString(KeyLogLevel),
		PostgresDSN: v.GetString(KeyPostgresDSN),
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("%s must be set in configuration", KeyURL)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%s must be set in configuration", KeyToken)
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("%s must be set in configuration", KeyProject)
	}

	def, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyBuildDefinition)))
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid integer", KeyBuildDefinition)
	}
	cfg.BuildDefinitionID = def

	cfg.MaxItems = v.GetInt(KeyMaxItems)
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}

	for _, b := range strings.Split(v.GetString(KeyRedpandaBrokers), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.RedpandaBrokers = append(cfg.RedpandaBrokers, b)
		}
	}

	return cfg, nil
}

// Redacted returns the settings as strings with secrets masked, for logging.
func (c *Config) Redacted() map[string]string {
	return map[string]string{
		KeyURL:             c.URL,
		KeyToken:           mask(c.Token),
		KeyProject:         c.Project,
		KeyBuildDefinition: strconv.Itoa(c.BuildDefinitionID),
		KeyBasePath:        c.BasePath,
		KeyMaxItems:        strconv.Itoa(c.MaxItems),
		KeyGoodBranch:      c.GoodBranch,
		KeyBadBranch:       c.BadBranch,
		KeyLogDir:          c.LogDir,
		KeyLogLevel:        c.LogLevel,
		KeyPostgresDSN:     mask(c.PostgresDSN),
		KeyRedpandaBrokers: strings.Join(c.RedpandaBrokers, ","),
	}
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return "****" + secret[len(secret)-4:]
	}
}
