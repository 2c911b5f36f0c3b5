package config

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// EnvMapping binds an environment variable to a configuration path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
	Sensitive  bool
}

var (
	envMappings     []EnvMapping
	envMappingsOnce sync.Once
	durationType    = reflect.TypeOf(time.Duration(0))
)

// GenerateEnvMappings walks the env tags of Config once and caches the result.
func GenerateEnvMappings() []EnvMapping {
	envMappingsOnce.Do(func() {
		envMappings = walkEnvTags(reflect.TypeOf(Config{}), "")
	})
	return envMappings
}

func walkEnvTags(t reflect.Type, prefix string) []EnvMapping {
	var out []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("koanf")
		if !field.IsExported() || name == "" || name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if envVar := field.Tag.Get("env"); envVar != "" && envVar != "-" {
			out = append(out, EnvMapping{
				EnvVar:     envVar,
				ConfigPath: path,
				Sensitive:  isSensitiveField(field),
			})
		}
		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			out = append(out, walkEnvTags(field.Type, path)...)
		}
	}
	return out
}

func isSensitiveField(field reflect.StructField) bool {
	return field.Type == reflect.TypeOf(SensitiveString("")) || field.Tag.Get("sensitive") == "true"
}

// GenerateEnvToConfigMap returns env var name to config path.
func GenerateEnvToConfigMap() map[string]string {
	mappings := GenerateEnvMappings()
	out := make(map[string]string, len(mappings))
	for _, m := range mappings {
		out[m.EnvVar] = m.ConfigPath
	}
	return out
}

// GetEnvVarForConfigPath returns the variable bound to path, or "".
func GetEnvVarForConfigPath(path string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == path {
			return m.EnvVar
		}
	}
	return ""
}

// IsSensitiveConfigPath reports whether path holds a secret.
func IsSensitiveConfigPath(path string) bool {
	t := reflect.TypeOf(Config{})
	parts := strings.Split(path, ".")
	for i, part := range parts {
		field, ok := fieldByKoanfTag(t, part)
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			return isSensitiveField(field)
		}
		if field.Type.Kind() != reflect.Struct {
			return false
		}
		t = field.Type
	}
	return false
}

func fieldByKoanfTag(t reflect.Type, tag string) (reflect.StructField, bool) {
	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.Tag.Get("koanf") == tag {
			return f, true
		}
	}
	return reflect.StructField{}, false
}
