// Package config loads the INI configuration file spec.md §6 names,
// exposing the server bind address and the sqlite journal path.
//
// Grounded on 0xtitan6-polymarket-mm's use of github.com/spf13/viper for
// settings loading; the original Rust source (original_source/settings.rs)
// used Postgres-shaped keys (prefix/user/pwd/ip/port/db) which this rewrite
// keeps for interface parity even though only `db` feeds the sqlite journal
// path (see SPEC_FULL.md's DOMAIN STACK section).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Server is the [server] section: the HTTP bind address.
type Server struct {
	IP   string
	Port int
}

// Database is the [database] section. Prefix/User/Pwd are carried over from
// the original Postgres-shaped settings file for interface parity; only DB
// drives the sqlite journal's file path in this rewrite.
type Database struct {
	Prefix string
	User   string
	Pwd    string
	IP     string
	Port   int
	DB     string
}

// Config is the fully parsed configuration file.
type Config struct {
	Server   Server
	Database Database
}

// Load reads and parses the INI file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{
		Server: Server{
			IP:   v.GetString("server.ip"),
			Port: v.GetInt("server.port"),
		},
		Database: Database{
			Prefix: v.GetString("database.prefix"),
			User:   v.GetString("database.user"),
			Pwd:    v.GetString("database.pwd"),
			IP:     v.GetString("database.ip"),
			Port:   v.GetInt("database.port"),
			DB:     v.GetString("database.db"),
		},
	}

	if cfg.Server.IP == "" {
		return nil, fmt.Errorf("config %s: missing [server] ip", path)
	}
	if cfg.Server.Port == 0 {
		return nil, fmt.Errorf("config %s: missing [server] port", path)
	}
	if cfg.Database.DB == "" {
		return nil, fmt.Errorf("config %s: missing [database] db", path)
	}

	return cfg, nil
}

// Addr is the HTTP listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.IP, s.Port)
}

// JournalPath is the sqlite journal file path derived from [database] db.
// The original's ip/port/user/pwd/prefix describe a network Postgres
// connection this rewrite has no use for; db alone names the local file.
func (d Database) JournalPath() string {
	return d.DB
}
