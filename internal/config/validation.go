package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate validates the configuration. Sub-structs validate in dependency
// order; the first failure wins.
func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TagsFilename, validation.Required, validation.By(bareMarkdownFilename)),
		validation.Field(&c.TagsFolder, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	if err := c.State.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Source.Validate()
}

// Validate validates the host site settings.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DocsDir, validation.Required),
		validation.Field(&c.SiteDir, validation.Required),
	)
}

// Validate validates the logging settings.
func (c *LoggingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required,
			validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required,
			validation.In("text", "json")),
	)
}

// Validate validates the metrics settings.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Listen, validation.Required),
	)
}

// Validate validates the event publishing settings.
func (c *EventsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.SubjectPrefix, validation.Required),
	)
}

// Validate validates the state store settings.
func (c *StateConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// Validate validates the watch settings.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DebounceMS, validation.Min(0)),
		validation.Field(&c.RescanInterval, validation.By(optionalDuration)),
	)
}

// Validate validates the source settings.
func (c *SourceConfig) Validate() error {
	if c.Git == nil {
		return nil
	}
	return c.Git.Validate()
}

// Validate validates the git source settings. An empty branch normalizes to
// main and an empty path to a checkout dir under .tagindex.
func (c *GitSourceConfig) Validate() error {
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.Path == "" {
		c.Path = filepath.Join(".tagindex", "source")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.Retries, validation.Min(0)),
	)
}

// bareMarkdownFilename requires a filename without path separators carrying
// a markdown extension.
func bareMarkdownFilename(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) {
		return errors.New("must be a bare filename")
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".md", ".markdown":
		return nil
	default:
		return errors.New("must have a markdown extension")
	}
}

// optionalDuration accepts an empty string or a positive Go duration.
func optionalDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("not a duration: %w", err)
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
