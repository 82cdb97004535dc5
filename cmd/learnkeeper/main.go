package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/learnkeeper/internal/app"
	"github.com/dmitrijs2005/learnkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/learnkeeper/internal/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	a, err := app.NewApp(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
