package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/efls/cmd/efls-bridge/app"
)

func main() {
	app.NewApp().Run()
}
