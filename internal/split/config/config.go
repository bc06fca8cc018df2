package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// SourceConfig declares one upstream list to fetch and merge.
type SourceConfig struct {
	Name string `koanf:"name" validate:"required"`
	URL  string `koanf:"url" validate:"required,source_url"`

	// Format selects the parser: plain, clash, dnsmasq, adblock or gfwlist.
	// Empty means sniff from the URL.
	Format string `koanf:"format" validate:"omitempty,oneof=plain clash dnsmasq adblock gfwlist"`

	// Category is the source's affinity: domestic or foreign.
	Category string `koanf:"category" validate:"required,oneof=domestic foreign"`
}

// FetchConfig controls the HTTP fetch stage.
type FetchConfig struct {
	TimeoutSeconds int    `koanf:"timeout_seconds" validate:"required,gte=1,lte=600"`
	Retries        int    `koanf:"retries" validate:"gte=0,lte=10"`
	UserAgent      string `koanf:"user_agent" validate:"required"`

	// OnError selects the degraded-mode policy: "skip" continues the run
	// without the failed source (using a cached copy when one exists),
	// "abort" fails the whole run on the first fetch error.
	OnError string `koanf:"on_error" validate:"required,oneof=skip abort"`

	// CachePath is the bbolt database holding the last good copy of each
	// source. Empty disables the cache.
	CachePath string `koanf:"cache_path"`
}

// InputFiles are the user-editable newline-delimited input lists.
type InputFiles struct {
	CNDNS         string `koanf:"cn_dns"`
	ForeignDNS    string `koanf:"foreign_dns"`
	CustomCN      string `koanf:"custom_cn"`
	CustomForeign string `koanf:"custom_foreign"`
	CustomDNS     string `koanf:"custom_dns"`
}

// OutputFiles names the generated files inside OutputDir.
type OutputFiles struct {
	Whitelist        string `koanf:"whitelist" validate:"required"`
	WhitelistGrouped string `koanf:"whitelist_grouped" validate:"required"`
	Blacklist        string `koanf:"blacklist" validate:"required"`
	BlacklistGrouped string `koanf:"blacklist_grouped" validate:"required"`
	CNPlain          string `koanf:"cn_plain" validate:"required"`
	ForeignPlain     string `koanf:"foreign_plain" validate:"required"`
	QuanX            string `koanf:"quanx" validate:"required"`
}

// AppConfig holds configuration values parsed from the YAML config file and
// SPLITGEN_-prefixed environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// OutputDir is where generated rule files are written.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// TieBreak decides the category for a pattern that arrives from both
	// affinities without an override: "domestic" or "foreign".
	TieBreak string `koanf:"tie_break" validate:"required,oneof=domestic foreign"`

	// GroupSize caps how many domains share one grouped blacklist rule.
	GroupSize int `koanf:"group_size" validate:"required,gte=1"`

	Fetch   FetchConfig    `koanf:"fetch"`
	Files   InputFiles     `koanf:"files"`
	Outputs OutputFiles    `koanf:"outputs"`
	Sources []SourceConfig `koanf:"sources" validate:"required,min=1,dive"`
}

// DEFAULT_APP_CONFIG defines the default application configuration. Source
// lists have no sane default and must come from the config file.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:       "prod",
	LogLevel:  "info",
	OutputDir: "dist",
	TieBreak:  "domestic",
	GroupSize: 5000,
	Fetch: FetchConfig{
		TimeoutSeconds: 30,
		Retries:        3,
		UserAgent:      "splitgen/1.0",
		OnError:        "skip",
		CachePath:      "cache/lists.db",
	},
	Files: InputFiles{
		CNDNS:         "config/cn_dns.txt",
		ForeignDNS:    "config/foreign_dns.txt",
		CustomCN:      "config/custom_cn_domains.txt",
		CustomForeign: "config/custom_foreign_domains.txt",
		CustomDNS:     "config/custom_domain_dns.txt",
	},
	Outputs: OutputFiles{
		Whitelist:        "gn.txt",
		WhitelistGrouped: "gn_grouped.txt",
		Blacklist:        "gw.txt",
		BlacklistGrouped: "gw_grouped.txt",
		CNPlain:          "cn_domains.txt",
		ForeignPlain:     "foreign_domains.txt",
		QuanX:            "quanx_whitelist.txt",
	},
}

// validSourceURL validates that the field is an absolute http(s) URL.
func validSourceURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// envLoader loads environment variables with the prefix "SPLITGEN_",
// lowercasing keys and mapping "__" to the nesting delimiter. It can be
// mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "SPLITGEN_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "SPLITGEN_"))
			key = strings.ReplaceAll(key, "__", ".")
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads default values using the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// fileLoader loads the YAML config file when it exists. A missing file is not
// an error; defaults plus environment may be a complete configuration.
var fileLoader = func(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// registerValidation wires the custom "source_url" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("source_url", validSourceURL)
}

// Load reads the config file at path, applies defaults and environment
// overrides, and validates the result.
func Load(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := fileLoader(k, path); err != nil {
		return nil, fmt.Errorf("error loading config file %s: %w", path, err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
