package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/qrattend/internal/devserver"
	"github.com/dmitrijs2005/qrattend/internal/devserver/config"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := devserver.NewApp(cfg, logging.New(os.Stdout, "info"))

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
