package config

import (
	"fmt"
	"time"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// minPollInterval bounds the source poll loop.
const minPollInterval = 100 * time.Millisecond

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	if err := validatePreview(&cfg.Preview); err != nil {
		return err
	}
	return validateRoles(&cfg.Roles)
}

func validatePreview(p *PreviewConfig) error {
	if p.Port < 1 || p.Port > 65535 {
		return derrors.ConfigError(fmt.Sprintf("preview.port out of range: %d", p.Port)).Build()
	}
	if p.PollInterval < minPollInterval {
		return derrors.ConfigError(fmt.Sprintf("preview.poll_interval must be at least %s", minPollInterval)).Build()
	}
	if len(p.BuildCommand) == 0 {
		return derrors.ConfigError("preview.build_command must not be empty").Build()
	}
	return nil
}

func validateRoles(r *RolesConfig) error {
	for name, repo := range r.Repos {
		if repo.Branch == "" {
			return derrors.ConfigError(fmt.Sprintf("roles.repos.%s.branch must not be empty", name)).Build()
		}
	}
	return nil
}
