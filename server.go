// SPDX-FileCopyrightText: 2021 Open Networking Foundation <info@opennetworking.org>
// SPDX-FileCopyrightText: 2025 Canonical Ltd
//
// SPDX-License-Identifier: Apache-2.0
//

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/canonical/sdcore-amf-k8s-operator/backend/amfconfig"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/charm"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/factory"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/juju"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/k8s"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/logger"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/metrics"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/operator_service"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/report"
	"github.com/canonical/sdcore-amf-k8s-operator/backend/workload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

func main() {
	app := newApp()
	logger.AppLog.Infoln(app.Name)
	if err := app.Run(os.Args); err != nil {
		logger.AppLog.Errorf("%s failed: %v", app.Name, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "amf-operator"
	app.Usage = "Juju operator for the SD-Core AMF"
	app.UsageText = "amf-operator [-cfg <operator_config_file.yaml>] [dispatch|serve|render]"
	app.Flags = factory.GetCliFlags()
	app.Action = dispatchAction
	app.Commands = []cli.Command{
		{
			Name:   "dispatch",
			Usage:  "handle the Juju hook named by JUJU_DISPATCH_PATH",
			Action: dispatchAction,
		},
		{
			Name:   "serve",
			Usage:  "serve the operator report and metrics",
			Action: serveAction,
		},
		{
			Name:  "render",
			Usage: "print the AMF configuration rendered from a context file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "context", Usage: "YAML file holding the template context", Required: true},
			},
			Action: renderAction,
		},
	}
	return app
}

// loadConfig reads the operator config. Without a file the defaults apply.
func loadConfig(path string) (*factory.Config, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if err := factory.InitConfigFactory(absPath); err != nil {
			return nil, err
		}
	} else if err := factory.OperatorConfig.Validate(); err != nil {
		return nil, err
	}
	operator_service.SetLogLevel(&factory.OperatorConfig)
	return &factory.OperatorConfig, nil
}

func dispatchAction(c *cli.Context) error {
	cfg, err := loadConfig(c.GlobalString("cfg"))
	if err != nil {
		return err
	}
	ctx := context.Background()
	event, err := juju.EventFromEnv(os.Getenv)
	if err != nil {
		return err
	}
	op, err := newOperator(ctx, cfg.Configuration)
	if err != nil {
		return err
	}
	return op.Dispatch(ctx, event)
}

func newOperator(ctx context.Context, cfg *factory.Configuration) (*charm.Operator, error) {
	tools, err := juju.NewHookTools(ctx, os.Getenv)
	if err != nil {
		return nil, err
	}
	container, err := workload.NewPebbleContainer(cfg.ContainerName, cfg.PebbleSocket)
	if err != nil {
		return nil, err
	}
	clientset, err := k8s.NewClientset(cfg.Kubeconfig)
	if err != nil {
		return nil, err
	}
	podIndex, err := juju.UnitIndex(tools.UnitName())
	if err != nil {
		return nil, err
	}
	services := k8s.NewServiceManager(clientset, tools.ModelName(), tools.AppName(), amfconfig.NGAPPort, podIndex)
	return charm.New(charm.Deps{
		Model:     tools,
		Container: container,
		Services:  services,
		Options:   charm.OptionsFromFactory(cfg),
	}), nil
}

type server interface {
	Start(ctx context.Context) error
}

type metricsServer struct {
	addr     string
	registry *prometheus.Registry
}

func (m *metricsServer) Start(ctx context.Context) error {
	return metrics.InitMetrics(ctx, m.addr, m.registry)
}

type apiServer struct {
	addr    string
	service *operator_service.OperatorService
}

func (a *apiServer) Start(ctx context.Context) error {
	return a.service.Start(ctx, a.addr)
}

// runServers runs api and metrics until ctx is done or one of them fails.
func runServers(ctx context.Context, api, metricsSrv server) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := api.Start(ctx); err != nil {
			return fmt.Errorf("operator API failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := metricsSrv.Start(ctx); err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c.GlobalString("cfg"))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stateDir := cfg.Configuration.StateDir
	load := func() (*report.Report, error) { return report.Load(stateDir) }
	return runServers(ctx,
		&apiServer{addr: cfg.Configuration.Service.ListenAddr, service: operator_service.NewOperatorService(stateDir)},
		&metricsServer{addr: cfg.Configuration.Service.MetricsAddr, registry: metrics.NewRegistry(load)},
	)
}

func renderAction(c *cli.Context) error {
	return renderContextFile(c.String("context"), os.Stdout)
}

// renderContextFile renders the context in path over the fixed defaults.
func renderContextFile(path string, w io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ctx := amfconfig.NewContext()
	if err := yaml.Unmarshal(content, &ctx); err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	rendered, err := amfconfig.Render(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}
