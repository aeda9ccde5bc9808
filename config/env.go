package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"
)

// ApplyEnv overrides fields of c from the environment variables named by
// their `env` struct tags. Unset or empty variables are ignored.
func (c *Config) ApplyEnv() error {
	return loadFromEnv(reflect.ValueOf(c))
}

// loadFromEnv recursively loads environment variables into a config struct.
func loadFromEnv(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := loadFromEnv(field); err != nil {
				return err
			}
			continue
		}
		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue := os.Getenv(envTag)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue, fieldType.Name, envTag); err != nil {
			return err
		}
	}
	return nil
}

// setFieldValue sets a field value from a string environment variable.
func setFieldValue(field reflect.Value, value, fieldName, envVar string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return &ConfigError{Field: envVar, Message: fmt.Sprintf("invalid duration for %s: %v", fieldName, err)}
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &ConfigError{Field: envVar, Message: fmt.Sprintf("invalid integer for %s: %v", fieldName, err)}
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return &ConfigError{Field: envVar, Message: fmt.Sprintf("invalid boolean for %s: %v", fieldName, err)}
		}
		field.SetBool(b)
	default:
		return &ConfigError{Field: envVar, Message: fmt.Sprintf("unsupported type %s for %s", field.Kind(), fieldName)}
	}
	return nil
}
