// Command orderbot runs the Simorgh exchange order intake bot.
package main

import (
	"log"
	"os"

	"github.com/m3rciful/orderbot/core/cmd"
	"github.com/m3rciful/orderbot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := bot.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Printf("orderbot: %v", err)
		os.Exit(1)
	}
}
