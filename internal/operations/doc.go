// Package operations runs the loan merge as a sequence of steps.
//
// A Pipeline executes the steps held by a Registry against a shared
// RunState. Each step gets a StepState (pending, active, completed, failed
// or skipped, with timings and row counts), its own span and step metrics.
// The first failing step aborts the run.
//
// The standard merge run is built from configuration:
//
//	fetcher, err := operations.NewFetcher(ctx, cfg.Auxiliary)
//	registry, err := operations.NewMergeRegistry(cfg, fetcher, logger)
//	pipeline := operations.NewPipeline(registry,
//		operations.WithLogger(logger),
//		operations.WithTelemetry(providers.Tracer, providers.Metrics))
//	state := operations.NewRunState(infrastructure.GenerateRunID())
//	err = pipeline.Run(ctx, state)
package operations
