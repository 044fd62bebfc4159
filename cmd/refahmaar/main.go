package main

import (
	"log"

	corecmd "github.com/sedalcrazy-create/refahmaar/core/cmd"
	coreconfig "github.com/sedalcrazy-create/refahmaar/core/config"
	"github.com/sedalcrazy-create/refahmaar/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.BaleApp, error) {
			return app.New(cfg), nil
		},
	})
	if err != nil {
		log.Fatalf("refahmaar: %v", err)
	}
}
