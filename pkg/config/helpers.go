package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SetValue sets a configuration value by its yaml key.
// Supported keys:
//   - install_root, config_dir, work_dir, repository_url, user_agent, shell: string
//   - http_timeout: duration (e.g. 90s, 5m)
//   - keep_on_failure, strict_build: bool
//   - log_level: debug, info, warn, error
//   - log_format: text, json
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "install_root":
		c.Settings.InstallRoot = value
	case "config_dir":
		c.Settings.ConfigDir = value
	case "work_dir":
		c.Settings.WorkDir = value
		c.derivedWorkDir = false
	case "repository_url":
		c.Settings.RepositoryURL = value
	case "user_agent":
		c.Settings.UserAgent = value
	case "shell":
		c.Settings.Shell = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		c.Settings.HTTPTimeout = d
	case "keep_on_failure", "strict_build":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		if key == "keep_on_failure" {
			c.Settings.KeepOnFailure = boolVal
		} else {
			c.Settings.StrictBuild = boolVal
		}
	case "log_level":
		c.Settings.LogLevel = value
	case "log_format":
		c.Settings.LogFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the value of a configuration key as a string.
func (c *Config) GetValue(key string) (string, error) {
	value, ok := c.ToMap()[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return value, nil
}

// ToMap returns the settings keyed by their yaml names.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "work_dir,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		if fieldValue.Kind() == reflect.Pointer {
			// credentials are never displayed
			continue
		}
		switch v := fieldValue.Interface().(type) {
		case time.Duration:
			result[yamlKey] = v.String()
		case bool:
			result[yamlKey] = strconv.FormatBool(v)
		default:
			result[yamlKey] = fmt.Sprintf("%v", v)
		}
	}

	return result
}

// Keys returns the sorted list of settable configuration keys.
func (c *Config) Keys() []string {
	m := c.ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
