package config

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

type config struct {
	Env *AppConfig
}

type Config interface {
	GetEnv() *AppConfig
	GetCatalogApiUrl() string
	GetDefaultWorkDir() string
}

func NewConfig(env *AppConfig) *config {
	return &config{
		Env: env,
	}
}

func (cfg *config) GetEnv() *AppConfig {
	return cfg.Env
}

func (cfg *config) GetCatalogApiUrl() string {
	return strings.TrimSuffix(cfg.Env.CatalogApiUrl, "/")
}

func (cfg *config) GetDefaultWorkDir() string {
	if cfg.Env.Workdir != "" {
		return cfg.Env.Workdir
	}
	return filepath.Join(xdg.DataHome, "softwarehub")
}
