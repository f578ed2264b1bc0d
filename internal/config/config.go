// Package config loads the server configuration file (forge.yaml).
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"unrealforge.ai/internal/editor"
)

type Config struct {
	Editor Editor `yaml:"editor"`
	Serve  Serve  `yaml:"serve"`
	Data   Data   `yaml:"data"`
}

// Editor configures the connection to the editor's command socket.
type Editor struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	DialTimeoutMS    int    `yaml:"dial_timeout_ms"`
	IOTimeoutMS      int    `yaml:"io_timeout_ms"`
	ChunkSize        int    `yaml:"chunk_size"`
	SocketBufferSize int    `yaml:"socket_buffer_size"`
	MaxResponseBytes int    `yaml:"max_response_bytes"`
}

// Serve configures the HTTP side: the tool endpoint and the observer feed
// share one listener.
type Serve struct {
	Listen   string `yaml:"listen"`
	Observer bool   `yaml:"observer"`
}

// Data configures the on-disk sinks.
type Data struct {
	Dir        string `yaml:"dir"`
	Transcript bool   `yaml:"transcript"`
	History    bool   `yaml:"history"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("forge.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("forge.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Editor: Editor{
			Host: editor.DefaultHost,
			Port: editor.DefaultPort,
		},
		Serve: Serve{
			Listen:   "127.0.0.1:8911",
			Observer: true,
		},
		Data: Data{
			Dir:        "data",
			Transcript: true,
			History:    true,
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Editor.Host) == "" {
		c.Editor.Host = editor.DefaultHost
	}
	if c.Editor.Port == 0 {
		c.Editor.Port = editor.DefaultPort
	}
	if strings.TrimSpace(c.Serve.Listen) == "" {
		c.Serve.Listen = "127.0.0.1:8911"
	}
	if strings.TrimSpace(c.Data.Dir) == "" {
		c.Data.Dir = "data"
	}
}

func (c Config) Validate() error {
	if c.Editor.Port <= 0 || c.Editor.Port > 65535 {
		return fmt.Errorf("editor port %d out of range", c.Editor.Port)
	}
	if c.Editor.DialTimeoutMS < 0 || c.Editor.IOTimeoutMS < 0 {
		return fmt.Errorf("editor timeouts must be >= 0")
	}
	if c.Editor.ChunkSize < 0 || c.Editor.SocketBufferSize < 0 || c.Editor.MaxResponseBytes < 0 {
		return fmt.Errorf("editor buffer sizes must be >= 0")
	}
	if _, _, err := net.SplitHostPort(c.Serve.Listen); err != nil {
		return fmt.Errorf("serve listen %q: %w", c.Serve.Listen, err)
	}
	return nil
}

// ClientConfig maps the editor section onto the client's configuration.
func (c Config) ClientConfig() editor.Config {
	return editor.Config{
		Host:             c.Editor.Host,
		Port:             c.Editor.Port,
		DialTimeout:      time.Duration(c.Editor.DialTimeoutMS) * time.Millisecond,
		IOTimeout:        time.Duration(c.Editor.IOTimeoutMS) * time.Millisecond,
		ChunkSize:        c.Editor.ChunkSize,
		SocketBufferSize: c.Editor.SocketBufferSize,
		MaxResponseBytes: c.Editor.MaxResponseBytes,
	}
}
