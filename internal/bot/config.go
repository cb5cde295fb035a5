package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	coredatabase "github.com/m3rciful/orderbot/core/database"
	"github.com/m3rciful/orderbot/internal/order"
)

// Config is the full configuration of the order bot.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Channel  ChannelConfig       `yaml:"channel"`
	Order    OrderConfig         `yaml:"order"`
	Database coredatabase.Config `yaml:"database"`
}

// ChannelConfig names the broadcast destination: a numeric chat id or a public @handle.
type ChannelConfig struct {
	ID string `yaml:"id" envconfig:"CHANNEL_ID"`
}

// OrderConfig selects the prompt language and the time zone of submission times.
type OrderConfig struct {
	Language string `yaml:"language" envconfig:"ORDER_LANGUAGE"`
	Timezone string `yaml:"timezone" envconfig:"ORDER_TIMEZONE"`

	location *time.Location
}

var channelHandle = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{3,}$`)

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and reports all problems at once.
func (c *Config) Normalize() error {
	var errs []error
	if err := coreconfig.Normalize(&c.Config); err != nil {
		errs = append(errs, err)
	}
	if err := c.Channel.normalize(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Order.normalize(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Database.Normalize(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *ChannelConfig) normalize() error {
	c.ID = strings.TrimSpace(c.ID)
	switch {
	case c.ID == "":
		return coreconfig.Missing("CHANNEL_ID", "channel.id")
	case channelHandle.MatchString(c.ID):
		return nil
	}
	if _, err := strconv.ParseInt(c.ID, 10, 64); err != nil {
		return fmt.Errorf("invalid channel.id %q; want a numeric chat id or an @channel handle", c.ID)
	}
	return nil
}

func (o *OrderConfig) normalize() error {
	var errs []error
	o.Language = strings.ToLower(strings.TrimSpace(o.Language))
	if o.Language == "" {
		o.Language = order.LangPersian
	}
	if _, err := order.CatalogFor(o.Language); err != nil {
		errs = append(errs, fmt.Errorf("invalid order.language: %w", err))
	}

	o.Timezone = strings.TrimSpace(o.Timezone)
	o.location = time.Local
	if o.Timezone != "" {
		loc, err := time.LoadLocation(o.Timezone)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid order.timezone %q: %w", o.Timezone, err))
		} else {
			o.location = loc
		}
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone, time.Local by default.
func (o OrderConfig) Location() *time.Location {
	if o.location == nil {
		return time.Local
	}
	return o.location
}
