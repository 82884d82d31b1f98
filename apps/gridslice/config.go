package main

import (
	"os"
	"strconv"

	"github.com/PhantomInTheWire/grid-slicer/pkg/export"
	"github.com/PhantomInTheWire/grid-slicer/pkg/storage"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// exportOptionsFromEnv reads pipeline defaults; flags override them.
func exportOptionsFromEnv() export.Options {
	opts := export.DefaultOptions()
	opts.ResolutionScale = getEnvFloat("GRIDSLICE_RESOLUTION_SCALE", opts.ResolutionScale)
	opts.MaxScale = getEnvFloat("GRIDSLICE_MAX_SCALE", opts.MaxScale)
	opts.MaxPixels = getEnvInt("GRIDSLICE_MAX_PIXELS", opts.MaxPixels)
	opts.Workers = getEnvInt("GRIDSLICE_WORKERS", opts.Workers)
	opts.Strict = getEnvBool("GRIDSLICE_STRICT", opts.Strict)
	return opts
}

// s3ConfigFromEnv mirrors the MinIO defaults used for local development.
func s3ConfigFromEnv() storage.S3Config {
	return storage.S3Config{
		Endpoint:  getEnv("MINIO_ENDPOINT", "http://localhost:9000"),
		Region:    getEnv("MINIO_REGION", "us-east-1"),
		AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		Bucket:    getEnv("MINIO_BUCKET", "grid-exports"),
		Prefix:    getEnv("MINIO_PREFIX", ""),
	}
}
