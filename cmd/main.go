package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jbvmio/pumper"
	"github.com/jbvmio/pumper/internal/drivers"
	"github.com/jbvmio/pumper/internal/plugins"
	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/metrics"
	"github.com/jbvmio/pumper/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
)

func main() {
	pf := pflag.NewFlagSet(`pumper`, pflag.ExitOnError)
	cfgFile := pf.StringP("config", "c", "./config.yaml", "Path to config Yaml file.")
	logLevel := pf.StringP("log-level", "l", "info", "Log level: debug, info, warn or error.")
	metricsAddr := pf.StringP("metrics", "m", "", "Listen address for prometheus metrics, empty disables.")
	pf.Parse(os.Args[1:])

	L, err := log.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		os.Exit(1)
	}
	if err := run(L, *cfgFile, *metricsAddr); err != nil {
		L.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(L log.Logger, cfgFile, metricsAddr string) error {
	cfg, err := pumper.ConfigFromFile(cfgFile)
	if err != nil {
		return err
	}
	inputs, err := plugins.LoadInputs(cfg, L)
	if err != nil {
		return err
	}
	outputs, err := plugins.LoadOutputs(cfg, L)
	if err != nil {
		return err
	}
	processors, err := drivers.LoadProcessors(cfg)
	if err != nil {
		return err
	}

	var pipelines pumper.Pipelines
	pipelines.UseLogger(L)
	for name, input := range inputs {
		output, there := outputs[name]
		if !there {
			return fmt.Errorf("no output for %s", name)
		}
		var stages [][]pipeline.DataFunc
		for _, steps := range processors[name] {
			L.Debugf("pipeline %s: stage %d with %d step(s)", name, len(stages)+1, len(steps))
			stages = append(stages, []pipeline.DataFunc{drivers.MakeDriversFunc(steps)})
		}
		pipelines.AddPipeline(&pumper.Pipeline{
			Name:    name,
			Inputs:  input,
			Outputs: output,
			Stages:  stages,
		})
	}

	var srv *http.Server
	if metricsAddr != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle(`/metrics`, metrics.Handler())
		srv = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			L.Infof("serving metrics on %s", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				L.Errorf("metrics server failed: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := pipelines.Run(); err != nil {
		return err
	}

	go func(errs <-chan error) {
		for e := range errs {
			L.Errorf("%v", e)
		}
	}(pipelines.Errors())

	sig := <-sigChan
	L.Infof("received %v, stopping", sig)
	pipelines.Stop()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return nil
}
