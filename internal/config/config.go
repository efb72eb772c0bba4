package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type StaticConfig struct {
	Path         string `yaml:"path"`
	TemplateFile string `yaml:"template_file"`
}

type FileConfig struct {
	MaxNameLength  int         `yaml:"max_name_length"`
	DirPermissions os.FileMode `yaml:"dir_permissions"`
	ChunkSize      int64       `yaml:"chunk_size"`
	HiddenPrefix   string      `yaml:"hidden_prefix"`
	RejectHidden   bool        `yaml:"reject_hidden"`
	DirsFirst      bool        `yaml:"dirs_first"`
}

type RoutesConfig struct {
	Browse         string `yaml:"browse"`
	BrowseAlt      string `yaml:"browse_alt"`
	Download       string `yaml:"download"`
	DownloadFolder string `yaml:"download_folder"`
	Upload         string `yaml:"upload"`
	CreateFolder   string `yaml:"create_folder"`
	Delete         string `yaml:"delete"`
	Rename         string `yaml:"rename"`
	Health         string `yaml:"health"`
}

type Messages struct {
	CannotListDirectory string `yaml:"cannot_list_directory"`
	TemplateError       string `yaml:"template_error"`
	RenderError         string `yaml:"render_error"`
	AccessDenied        string `yaml:"access_denied"`
	NotFound            string `yaml:"not_found"`
	BadRequest          string `yaml:"bad_request"`
	CannotServe         string `yaml:"cannot_serve"`
	CannotDelete        string `yaml:"cannot_delete"`
	InternalError       string `yaml:"internal_error"`
}

type Config struct {
	Server   ServerConfig `yaml:"server"`
	Static   StaticConfig `yaml:"static"`
	File     FileConfig   `yaml:"file"`
	Routes   RoutesConfig `yaml:"routes"`
	Messages Messages     `yaml:"messages"`
}

// Default возвращает рабочую конфигурацию без единого yaml-файла:
// skyhook запускается одной командой, файл — только для тонкой настройки политик.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8000,
			MaxUploadSize: 4 << 30, // 4 GiB
		},
		Static: StaticConfig{
			Path:         "static",
			TemplateFile: "index.html",
		},
		File: FileConfig{
			MaxNameLength:  255,
			DirPermissions: 0o755,
			ChunkSize:      1 << 20, // 1 MiB
			HiddenPrefix:   ".",
			RejectHidden:   true,
			DirsFirst:      true,
		},
		Routes: RoutesConfig{
			Browse:         "/",
			BrowseAlt:      "/browse",
			Download:       "/download",
			DownloadFolder: "/download-folder",
			Upload:         "/upload",
			CreateFolder:   "/mkdir",
			Delete:         "/delete",
			Rename:         "/rename",
			Health:         "/health",
		},
		Messages: Messages{
			CannotListDirectory: "Cannot list directory",
			TemplateError:       "Template error",
			RenderError:         "Render error",
			AccessDenied:        "Access denied",
			NotFound:            "Not found",
			BadRequest:          "Bad request",
			CannotServe:         "Cannot serve file",
			CannotDelete:        "Cannot delete",
			InternalError:       "Internal server error",
		},
	}
}

// Load читает yaml поверх дефолтов. Пустое имя файла — чистые дефолты.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
		}
	}

	if validationErr := validateConfig(cfg); validationErr != nil {
		return nil, validationErr
	}
	return cfg, nil
}

type validationError struct {
	field string
	msg   string
}

func (e validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

func validateConfig(cfg *Config) error {
	type validator func() error

	validators := []validator{
		func() error { return validateRequiredString("static.path", cfg.Static.Path) },
		func() error { return validateRequiredString("static.template_file", cfg.Static.TemplateFile) },
		func() error { return validateRequiredString("routes.browse", cfg.Routes.Browse) },
		func() error { return validateRequiredString("routes.upload", cfg.Routes.Upload) },
		func() error { return validateRequiredString("routes.download", cfg.Routes.Download) },
		func() error { return validatePort(cfg.Server.Port) },
		func() error { return validatePositiveInt64("server.max_upload_size", cfg.Server.MaxUploadSize) },
		func() error { return validatePositiveInt64("file.chunk_size", cfg.File.ChunkSize) },
		func() error { return validatePositiveInt("file.max_name_length", cfg.File.MaxNameLength) },
	}

	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	return nil
}

func validateRequiredString(field, value string) error {
	if value == "" {
		return validationError{field: field, msg: "is required"}
	}
	return nil
}

func validatePositiveInt(field string, value int) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePositiveInt64(field string, value int64) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return validationError{
			field: "server.port",
			msg:   fmt.Sprintf("must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}
