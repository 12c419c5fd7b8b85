package main

import (
	"fmt"

	"github.com/nao1215/jobharvest/internal/config"
	"github.com/spf13/cobra"
)

// override copies a flag value into dst when the flag was set on the
// command line. Unset flags leave the input file value in place.
func override[T any](cmd *cobra.Command, name string, get func(string) (T, error), dst *T) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// addStorageFlags registers the flags shared by crawl and status that
// locate the database and the run state.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory for the SQLite database and state file")
	cmd.Flags().String("state", config.DefaultStateBackend,
		"Run state backend: sqlite, file, redis or none")
	cmd.Flags().String("state-file", "",
		"JSON state file for the file backend (default: <data-dir>/state.json)")
	cmd.Flags().String("redis-addr", "",
		"Redis address for the redis state backend (e.g., 127.0.0.1:6379)")
	cmd.Flags().String("redis-key", config.DefaultRedisKey,
		"Key prefix for the redis state backend")
	cmd.Flags().Duration("redis-ttl", config.DefaultRedisTTL,
		"Expiry of the run state in Redis")
}

// applyStorageFlags copies the storage flags into cfg.
func applyStorageFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	for _, err := range []error{
		override(cmd, "data-dir", f.GetString, &cfg.DataDir),
		override(cmd, "state", f.GetString, &cfg.StateBackend),
		override(cmd, "state-file", f.GetString, &cfg.StateFile),
		override(cmd, "redis-addr", f.GetString, &cfg.RedisAddr),
		override(cmd, "redis-key", f.GetString, &cfg.RedisKey),
		override(cmd, "redis-ttl", f.GetDuration, &cfg.RedisTTL),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// loadInput reads the input file named by --config, or the first
// .jobharvest.yaml found in the usual places. An explicit path that does
// not exist is an error; a missing default file is not.
func loadInput(cmd *cobra.Command) (*config.Input, string, error) {
	explicit := persistentString(cmd, "config")
	path := config.FindConfigFile(explicit)
	if path == "" {
		if explicit != "" {
			return nil, "", fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
		}
		return config.NewInput(), "", nil
	}

	in, err := config.LoadInputFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load input file %s: %w", path, err)
	}
	return in, path, nil
}
