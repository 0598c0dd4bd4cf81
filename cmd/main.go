package main

import (
	"log"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/config"
	setupHTTP "github.com/Badsnus/festival-booking/internal/adapters/controller/http/setup"
	"github.com/spf13/pflag"

	_ "time/tzdata"
)

func main() {
	pflag.Parse()

	cfg := config.Get()
	a, err := app.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	setupHTTP.Setup(a)

	a.Start()
}
