package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/clsasailing/weekly-blast/internal/domain"
)

// Environment gate values. PROD sends the blast, DEV logs a dry run.
const (
	EnvProd = "PROD"
	EnvDev  = "DEV"
)

// Config is the immutable per-run configuration. It is loaded once and passed
// into every component; nothing reads the environment after Load returns.
type Config struct {
	// Wild Apricot API
	APIKey        string
	APIVersion    string
	AccountNumber int64
	BlastGroupID  int64
	PageSize      int

	// Blast content and dispatch
	Environment    string
	Subject        string
	ReplyToName    string
	ReplyToAddress string
	Timezone       string

	ssmClient SSMParameterGetter
}

// SSMParameterGetter is the slice of the SSM client the loader uses.
type SSMParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// settingsFile holds the non-secret values that may be kept in a YAML file
// next to the binary, mirroring the old squidwardSettings.json.
type settingsFile struct {
	APIVersion     string `yaml:"api_version"`
	AccountNumber  int64  `yaml:"account_number"`
	BlastGroupID   int64  `yaml:"blast_group_id"`
	PageSize       int    `yaml:"page_size"`
	Environment    string `yaml:"environment"`
	Subject        string `yaml:"subject"`
	ReplyToName    string `yaml:"reply_to_name"`
	ReplyToAddress string `yaml:"reply_to_address"`
	Timezone       string `yaml:"timezone"`
}

// Load reads configuration for the current environment: SSM-backed when
// running in Lambda, .env/settings-file based locally.
func Load() (*Config, error) {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig()
	}
	return loadLocalConfig()
}

// loadLocalConfig builds the config for local one-shot runs. Values come from
// the optional settings file, then the environment (plus .env) on top.
func loadLocalConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine locally.
		fmt.Printf("Warning: no .env file loaded: %v\n", err)
	}

	cfg := defaults()
	if err := cfg.applySettingsFile(getEnvOrDefault("BLAST_SETTINGS_FILE", "blastSettings.yaml")); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.APIKey = getEnvOrDefault("WA_API_KEY", "")
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: WA_API_KEY is not set", domain.ErrConfiguration)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig builds the config for Lambda runs. Non-secrets come from the
// environment, the API key from SSM Parameter Store.
func loadAWSConfig() (*Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", domain.ErrConfiguration, err)
	}

	cfg := defaults()
	cfg.ssmClient = ssm.NewFromConfig(awsCfg)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	apiKeyParam := getEnvOrDefault("WA_API_KEY_PARAM", "/weekly-blast/wildapricot-api-key")
	apiKey, err := cfg.getParameter(context.TODO(), apiKeyParam, true)
	if err != nil {
		return nil, fmt.Errorf("%w: reading Wild Apricot API key: %v", domain.ErrConfiguration, err)
	}
	cfg.APIKey = apiKey

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIVersion:     "v2.2",
		PageSize:       100,
		Environment:    EnvDev,
		Subject:        "CLSA - Events this week!",
		ReplyToName:    "CLSA",
		ReplyToAddress: "clintonlakesailing@gmail.com",
		Timezone:       "America/Chicago",
	}
}

// applySettingsFile overlays values from the YAML settings file, if present.
func (c *Config) applySettingsFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading settings file %s: %v", domain.ErrConfiguration, path, err)
	}

	var s settingsFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: parsing settings file %s: %v", domain.ErrConfiguration, path, err)
	}

	if s.APIVersion != "" {
		c.APIVersion = s.APIVersion
	}
	if s.AccountNumber != 0 {
		c.AccountNumber = s.AccountNumber
	}
	if s.BlastGroupID != 0 {
		c.BlastGroupID = s.BlastGroupID
	}
	if s.PageSize != 0 {
		c.PageSize = s.PageSize
	}
	if s.Environment != "" {
		c.Environment = s.Environment
	}
	if s.Subject != "" {
		c.Subject = s.Subject
	}
	if s.ReplyToName != "" {
		c.ReplyToName = s.ReplyToName
	}
	if s.ReplyToAddress != "" {
		c.ReplyToAddress = s.ReplyToAddress
	}
	if s.Timezone != "" {
		c.Timezone = s.Timezone
	}
	return nil
}

// applyEnv overlays values from environment variables.
func (c *Config) applyEnv() error {
	c.APIVersion = getEnvOrDefault("WA_API_VERSION", c.APIVersion)
	c.Environment = getEnvOrDefault("BLAST_ENVIRONMENT", c.Environment)
	c.Subject = getEnvOrDefault("BLAST_SUBJECT", c.Subject)
	c.ReplyToName = getEnvOrDefault("BLAST_REPLY_TO_NAME", c.ReplyToName)
	c.ReplyToAddress = getEnvOrDefault("BLAST_REPLY_TO_ADDRESS", c.ReplyToAddress)
	c.Timezone = getEnvOrDefault("TIMEZONE", c.Timezone)

	var err error
	if c.AccountNumber, err = envInt64("WA_ACCOUNT_NUMBER", c.AccountNumber); err != nil {
		return err
	}
	if c.BlastGroupID, err = envInt64("WA_BLAST_GROUP_ID", c.BlastGroupID); err != nil {
		return err
	}
	pageSize, err := envInt64("WA_PAGE_SIZE", int64(c.PageSize))
	if err != nil {
		return err
	}
	c.PageSize = int(pageSize)
	return nil
}

// validate checks required values and normalizes the environment gate.
func (c *Config) validate() error {
	if c.AccountNumber == 0 {
		return fmt.Errorf("%w: WA_ACCOUNT_NUMBER is not set", domain.ErrConfiguration)
	}
	if c.BlastGroupID == 0 {
		return fmt.Errorf("%w: WA_BLAST_GROUP_ID is not set", domain.ErrConfiguration)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("%w: page size must be at least 1, got %d", domain.ErrConfiguration, c.PageSize)
	}

	c.Environment = strings.ToUpper(c.Environment)
	if c.Environment != EnvProd && c.Environment != EnvDev {
		return fmt.Errorf("%w: unknown environment value %q (want %s or %s)",
			domain.ErrConfiguration, c.Environment, EnvProd, EnvDev)
	}
	return nil
}

// getParameter reads one value from SSM Parameter Store.
func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("getting parameter %s: %v", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("parameter %s has an empty value", paramName)
	}
	return *result.Parameter.Value, nil
}

// getEnvOrDefault returns the trimmed environment value, or the default when
// unset or blank.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// envInt64 parses an integer environment variable, keeping the current value
// when the variable is unset.
func envInt64(key string, current int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return current, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrConfiguration, key, raw)
	}
	return value, nil
}
