package sqlite

import (
	"strings"
)

type Config struct {
	file    string
	durable bool
}

type ConfigFunc = func(c *Config)

func WithFile(file string) ConfigFunc {
	return func(c *Config) {
		c.File(file)
	}
}

func WithDurable(durable bool) ConfigFunc {
	return func(c *Config) {
		c.Durable(durable)
	}
}

func (c *Config) File(file string) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if strings.Contains(file, "?") {
		panic("file can't contain ?")
	}
	c.file = file
}

// Durable makes every append wait for the data to reach the disk. It has no effect on in-memory
// storages.
func (c *Config) Durable(durable bool) {
	c.durable = durable
}
