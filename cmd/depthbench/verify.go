package main

import (
	"fmt"
	"time"

	"github.com/kadirpekel/depthbench/pkg/llm"
)

// VerifyCmd checks the model configuration and endpoint connectivity
// with one minimal chat call.
type VerifyCmd struct {
	ModelFlags
}

func (c *VerifyCmd) Run(cli *CLI) error {
	cfg, err := c.resolveConfig(cli.Config)
	if err != nil {
		return err
	}
	if err := finalizeConfig(cfg); err != nil {
		return err
	}

	provider, err := llm.New(cfg.Model)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Verifying %s (%s)...\n", cfg.Model.Name, cfg.Model.Provider)
	reply, latency, err := llm.Verify(ctx, provider)
	if err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}

	if len(reply) > 80 {
		reply = reply[:80] + "..."
	}
	fmt.Printf("Model:   %s\n", provider.ModelName())
	fmt.Printf("Latency: %s\n", latency.Round(time.Millisecond))
	fmt.Printf("Reply:   %s\n", reply)
	return nil
}
