// Package blob is the entry point for artifact storage. Callers depend on
// Store and open a backend with Open; only this package imports the
// backends under internal/infra/blob.
package blob

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"lineagecore/internal/blob/core"
	"lineagecore/internal/infra/blob/fs"
	"lineagecore/internal/infra/blob/memory"
	"lineagecore/internal/infra/blob/s3"
)

type (
	// Driver identifies a backend.
	Driver = core.Driver
	// PutOptions tunes a write.
	PutOptions = core.PutOptions
	// SignedURLOptions tunes URL signing.
	SignedURLOptions = core.SignedURLOptions
	// Object describes a stored artifact.
	Object = core.Object
	// Store is the artifact store interface.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrUnsupported = core.ErrUnsupported
	ErrInvalidKey  = core.ErrInvalidKey
)

// Config selects and parameterises a backend.
type Config struct {
	Driver    Driver `yaml:"driver" json:"driver"`
	Root      string `yaml:"root" json:"root"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	PathStyle bool   `yaml:"path_style" json:"path_style"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDriver      = "LINEAGECORE_BLOB_DRIVER"
	EnvFSRoot      = "LINEAGECORE_BLOB_FS_ROOT"
	EnvS3Bucket    = "LINEAGECORE_BLOB_S3_BUCKET"
	EnvS3Region    = "LINEAGECORE_BLOB_S3_REGION"
	EnvS3Endpoint  = "LINEAGECORE_BLOB_S3_ENDPOINT"
	EnvS3PathStyle = "LINEAGECORE_BLOB_S3_PATH_STYLE"
)

// ApplyEnv overrides fields of cfg from LINEAGECORE_BLOB_* variables that are set.
func ApplyEnv(cfg Config) (Config, error) {
	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Driver = Driver(v)
	}
	if v := os.Getenv(EnvFSRoot); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv(EnvS3Region); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvS3PathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvS3PathStyle, err)
		}
		cfg.PathStyle = b
	}
	return cfg, nil
}

// Validate checks the driver name and driver-specific requirements.
func (c Config) Validate() error {
	d, err := core.ParseDriver(string(c.Driver))
	if err != nil {
		return err
	}
	if d == DriverS3 && c.Bucket == "" {
		return fmt.Errorf("blob: s3 driver requires a bucket (%s)", EnvS3Bucket)
	}
	return nil
}

// Open returns the backend described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, _ := core.ParseDriver(string(cfg.Driver))
	switch d {
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			PathStyle:       cfg.PathStyle,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		})
	case DriverMemory:
		return memory.New(), nil
	default:
		return fs.New(cfg.Root)
	}
}

// OpenFromEnv opens the backend described by LINEAGECORE_BLOB_* alone.
func OpenFromEnv(ctx context.Context) (Store, error) {
	cfg, err := ApplyEnv(Config{})
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg)
}

// NewMemory returns an in-memory store.
func NewMemory() Store { return memory.New() }

// NewFilesystem returns a store rooted at root.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewFakeS3 returns an S3 store backed by an in-process emulation.
func NewFakeS3(ctx context.Context) (Store, error) { return s3.NewFake(ctx) }
