package main

import (
	"context"
	"log"

	"github.com/momentum-ia/momentum/internal/server"
	"github.com/momentum-ia/momentum/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
