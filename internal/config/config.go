// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns a viper instance into a validated types.Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CITATION_ENGINE_SCOPUS_RATE_LIMIT.
const EnvPrefix = "CITATION_ENGINE"

// SetDefaults registers every key with its default so that AutomaticEnv can
// resolve it and Unmarshal sees a complete tree.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scopus.base_url", "https://api.elsevier.com/content/search/scopus")
	v.SetDefault("scopus.api_key", "")
	v.SetDefault("scopus.timeout", 60*time.Second)
	v.SetDefault("scopus.user_agent", "citation-engine/0.1")
	v.SetDefault("scopus.rate_limit", 9.0)
	v.SetDefault("scopus.burst", 1)
	v.SetDefault("scopus.max_retries", 5)
	v.SetDefault("scopus.progress_every", 100)

	v.SetDefault("catalog.heuristic", "asjc")
	v.SetDefault("catalog.metrics_file", "data/CiteScore_Metrics.csv")
	v.SetDefault("catalog.sources_file", "data/journals.csv")
	v.SetDefault("catalog.field_map_file", "data/fieldmapping.csv")
	v.SetDefault("catalog.mapping_file", "data/journalmapping.csv")
	v.SetDefault("catalog.encoding", "utf-8")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.namespace", "citation_engine")
	v.SetDefault("metrics.textfile", "")

	v.SetDefault("store.path", "citation-engine.db")
}

// BindEnv wires the prefixed environment and the bare SCOPUS_API_KEY used by
// other Elsevier tooling.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("scopus.api_key", EnvPrefix+"_SCOPUS_API_KEY", "SCOPUS_API_KEY")
}

// Load unmarshals v into a Config and validates it. Callers are expected to
// have run SetDefaults and, optionally, ReadInConfig.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports them as one error.
func Validate(cfg types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
