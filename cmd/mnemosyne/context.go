package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mnemosyne/internal/client"
	"mnemosyne/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverURL resolves the content server address from the --server flag, then
// the configured upload target, then the local bind address.
func (c *commandContext) serverURL() (string, error) {
	if c.serverFlag != nil {
		if url := strings.TrimSpace(*c.serverFlag); url != "" {
			return url, nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if url := strings.TrimSpace(cfg.Device.ContentServerURL); url != "" {
		// The device config points at the upload endpoint; the client
		// wants the server root.
		return strings.TrimSuffix(strings.TrimRight(url, "/"), "/add_content"), nil
	}
	if bind := strings.TrimSpace(cfg.Server.Bind); bind != "" {
		return "http://" + bind, nil
	}
	return "", fmt.Errorf("no content server configured; pass --server or set device.content_server_url")
}

func (c *commandContext) withClient(fn func(*client.Client) error) error {
	url, err := c.serverURL()
	if err != nil {
		return err
	}
	api, err := client.New(url)
	if err != nil {
		return err
	}
	return fn(api)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
