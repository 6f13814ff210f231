// Package bootstrap orchestrates the relay's lifecycle: typed configuration,
// component registration, startup/shutdown hooks, and signal-driven graceful
// shutdown.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.RegisterComponent(hubComponent)
//	app.RegisterComponent(serverComponent)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Components start in registration order and stop in reverse. The app blocks
// on SIGINT/SIGTERM once everything is up.
package bootstrap
