package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/paperdeck-backend/internal/platform/envutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type Paths struct {
	DataDir     string `yaml:"data_dir"`
	UploadDir   string `yaml:"upload_dir"`
	MetadataDir string `yaml:"metadata_dir"`
	FiguresDir  string `yaml:"figures_dir"`
	FormulasDir string `yaml:"formulas_dir"`
	OutputDir   string `yaml:"output_dir"`
	PodcastDir  string `yaml:"podcast_dir"`
	DBPath      string `yaml:"db_path"`
}

type Config struct {
	Port         string
	AllowOrigins []string
	RedisAddr    string
	Concurrency  int
	Paths        Paths
}

// LoadConfig reads env vars, then applies overrides from the optional YAML
// file named by CONFIG_FILE. YAML wins over env for the path layout.
func LoadConfig(log *logger.Logger) Config {
	dataDir := envutil.String("DATA_DIR", "data")
	cfg := Config{
		Port:        envutil.String("PORT", "8000"),
		RedisAddr:   envutil.String("REDIS_ADDR", ""),
		Concurrency: envutil.Int("RENDER_CONCURRENCY", 4),
		Paths: Paths{
			DataDir:     dataDir,
			UploadDir:   filepath.Join(dataDir, "upload"),
			MetadataDir: filepath.Join(dataDir, "metadata"),
			FiguresDir:  filepath.Join(dataDir, "figures"),
			FormulasDir: filepath.Join(dataDir, "formulas"),
			OutputDir:   filepath.Join(dataDir, "output"),
			PodcastDir:  envutil.String("PODCAST_DIR", "podcast"),
			DBPath:      envutil.String("DB_PATH", filepath.Join(dataDir, "paperdeck.db")),
		},
	}
	if origins := envutil.String("ALLOW_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFileOverrides(&cfg, path); err != nil {
			log.Warn("could not apply config file", "path", path, "error", err)
		} else {
			log.Info("applied config file overrides", "path", path)
		}
	}
	return cfg
}

type fileConfig struct {
	Paths Paths `yaml:"paths"`
}

func applyFileOverrides(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	override := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	override(&cfg.Paths.DataDir, fc.Paths.DataDir)
	override(&cfg.Paths.UploadDir, fc.Paths.UploadDir)
	override(&cfg.Paths.MetadataDir, fc.Paths.MetadataDir)
	override(&cfg.Paths.FiguresDir, fc.Paths.FiguresDir)
	override(&cfg.Paths.FormulasDir, fc.Paths.FormulasDir)
	override(&cfg.Paths.OutputDir, fc.Paths.OutputDir)
	override(&cfg.Paths.PodcastDir, fc.Paths.PodcastDir)
	override(&cfg.Paths.DBPath, fc.Paths.DBPath)
	return nil
}

// EnsureDirs creates the working directory tree on startup.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.UploadDir, p.MetadataDir, p.FiguresDir, p.FormulasDir, p.OutputDir, p.PodcastDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
