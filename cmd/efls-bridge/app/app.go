package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/efls/cmd/efls-bridge/app/options"
	"github.com/autopeer-io/efls/pkg/app"
)

const (
	commandName = "efls-bridge"
	commandDesc = `The EFLS bridge connects a vehicle's mission protocol to the Emergency
Forced Landing System. Every tick it reports telemetry to EFLS; when EFLS
publishes a landing plan it downloads the vehicle mission, splices the plan in
at the last DO_LAND_START, uploads the result and jumps the vehicle to it.`
)

func NewApp() *app.App {
	opts := options.NewBridgeOptions()
	application := app.NewApp(
		commandName,
		"Launch the EFLS mission bridge",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithLogOptions(opts.Log),
		app.WithRunFunc(run(opts)),
		app.WithCommands(newSpliceCommand()),
	)
	return application
}

func run(opts *options.BridgeOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		bridge, err := cfg.NewBridge()
		if err != nil {
			return fmt.Errorf("failed to create bridge: %w", err)
		}

		return bridge.Run(ctx)
	}
}
