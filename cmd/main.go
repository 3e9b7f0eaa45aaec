package main

import (
	"os"

	"github.com/corray333/backend-labs/storefront/internal/app"
	"github.com/corray333/backend-labs/storefront/internal/config"
)

func main() {
	config.MustInit()
	if err := app.MustNewApp().Run(); err != nil {
		os.Exit(1)
	}
}
