package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Marketplace
	WebURL   string
	APIURL   string
	EndPoint string

	// Fetching
	Revalidate  time.Duration // 0 disables the response cache
	HTTPTimeout time.Duration
	MaxPages    int

	// Outputs
	OutPath    string
	ListenAddr string

	// SFTP
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPKnownHosts            string
	SFTPInsecureIgnoreHostKey bool
}

// DefaultRevalidate matches the weekly revalidation of the web app.
const DefaultRevalidate = 7 * 24 * time.Hour

var envKeys = map[string]string{
	"web_url":      "NEXT_PUBLIC_WEB_URL",
	"api_url":      "NEXT_PUBLIC_API_URL",
	"end_point":    "NEXT_PUBLIC_END_POINT",
	"revalidate":   "SITEMAP_REVALIDATE",
	"http_timeout": "SITEMAP_HTTP_TIMEOUT",
	"max_pages":    "SITEMAP_MAX_PAGES",
	"out":          "SITEMAP_OUT",
	"listen_addr":  "SITEMAP_LISTEN_ADDR",

	"sftp.host":                    "SFTP_HOST",
	"sftp.port":                    "SFTP_PORT",
	"sftp.user":                    "SFTP_USER",
	"sftp.pass":                    "SFTP_PASS",
	"sftp.dir":                     "SFTP_DIR",
	"sftp.known_hosts":             "SFTP_KNOWN_HOSTS",
	"sftp.insecure_ignore_hostkey": "SFTP_INSECURE_IGNORE_HOSTKEY",
}

// Load reads sitemap.yaml (from . or ./config, optional) and lets the
// environment override every key.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("sitemap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("end_point", "/api/")
	v.SetDefault("revalidate", DefaultRevalidate.String())
	v.SetDefault("http_timeout", "30s")
	v.SetDefault("max_pages", 1)
	v.SetDefault("out", "public/sitemap.xml")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("sftp.port", 22)
	v.SetDefault("sftp.dir", "/")
	v.SetDefault("sftp.insecure_ignore_hostkey", false)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		WebURL:   v.GetString("web_url"),
		APIURL:   v.GetString("api_url"),
		EndPoint: v.GetString("end_point"),

		Revalidate:  v.GetDuration("revalidate"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		MaxPages:    v.GetInt("max_pages"),

		OutPath:    v.GetString("out"),
		ListenAddr: v.GetString("listen_addr"),

		SFTPHost:                  v.GetString("sftp.host"),
		SFTPPort:                  v.GetInt("sftp.port"),
		SFTPUser:                  v.GetString("sftp.user"),
		SFTPPass:                  v.GetString("sftp.pass"),
		SFTPDir:                   v.GetString("sftp.dir"),
		SFTPKnownHosts:            v.GetString("sftp.known_hosts"),
		SFTPInsecureIgnoreHostKey: v.GetBool("sftp.insecure_ignore_hostkey"),
	}

	if cfg.Revalidate < 0 {
		cfg.Revalidate = DefaultRevalidate
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.SFTPPort <= 0 {
		cfg.SFTPPort = 22
	}
	return cfg
}

// Validate reports missing values every trigger needs.
func (c Config) Validate() error {
	if c.WebURL == "" {
		return errors.New("config: missing env NEXT_PUBLIC_WEB_URL")
	}
	if c.APIURL == "" {
		return errors.New("config: missing env NEXT_PUBLIC_API_URL")
	}
	return nil
}
