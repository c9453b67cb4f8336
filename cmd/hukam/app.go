package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/hukam/internal/config"
	"github.com/John-Robertt/hukam/internal/domain"
	"github.com/John-Robertt/hukam/internal/infra/httpx"
	"github.com/John-Robertt/hukam/internal/locate"
	"github.com/John-Robertt/hukam/internal/logging"
	"github.com/John-Robertt/hukam/internal/provider"
	"github.com/John-Robertt/hukam/internal/provider/sgpc"
	"github.com/John-Robertt/hukam/internal/retrieve"
)

// app 汇总一次进程运行所需的全部依赖（配置加载后只读）。
type app struct {
	eff      config.EffectiveConfig
	logger   *zap.Logger
	provider provider.Provider
	svc      *retrieve.Service
}

// cliArgs 把 cobra flag 转为 config.CLIArgs：只有显式指定的 flag 才标记 Set。
func cliArgs(cmd *cobra.Command, rf *rootFlags, listen string) (config.CLIArgs, error) {
	fs := cmd.Flags()
	cli := config.CLIArgs{
		ConfigPath:   rf.configPath,
		Listen:       listen,
		ListenSet:    fs.Changed("addr"),
		SourceURL:    rf.sourceURL,
		SourceURLSet: fs.Changed("source-url"),
		LogLevel:     rf.logLevel,
		LogLevelSet:  fs.Changed("log-level"),
	}
	if fs.Changed("timeout") {
		d, err := time.ParseDuration(rf.timeout)
		if err != nil {
			return config.CLIArgs{}, fmt.Errorf("--timeout 无效：%w", err)
		}
		cli.Timeout = d
		cli.TimeoutSet = true
	}
	return cli, nil
}

func newApp(cmd *cobra.Command, rf *rootFlags, listen string) (*app, error) {
	cli, err := cliArgs(cmd, rf, listen)
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("读取当前目录失败：%w", err)
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(eff.Log)
	if err != nil {
		return nil, err
	}

	sp, err := sgpc.New(eff.Source.URL, eff.Source.Origin, eff.Locators)
	if err != nil {
		return nil, fmt.Errorf("初始化 sgpc provider 失败：%w", err)
	}
	reg, err := provider.NewRegistry(sp)
	if err != nil {
		return nil, fmt.Errorf("初始化 provider registry 失败：%w", err)
	}
	p, err := reg.Lookup(eff.Provider)
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: eff.Path, Err: err}
	}

	client, err := httpx.NewClient(eff.HTTPOptions())
	if err != nil {
		return nil, fmt.Errorf("初始化 http client 失败：%w", err)
	}

	logger.Debug("config loaded",
		zap.String("config", eff.Path),
		zap.String("provider", eff.Provider),
		zap.String("source_url", eff.Source.URL),
		zap.Duration("timeout", eff.Source.Timeout),
		zap.String("timezone", eff.Location.String()),
	)
	if logger.Core().Enabled(zap.DebugLevel) {
		for _, f := range domain.Fields {
			logger.Debug("locator",
				zap.String("field", string(f)),
				zap.Strings("strategies", strategyNames(sp.Locator.Strategies(f))),
			)
		}
	}

	return &app{
		eff:      eff,
		logger:   logger,
		provider: p,
		svc: &retrieve.Service{
			Provider: p,
			Client:   client,
			Policy:   eff.Policy(),
			Logger:   logger.Named("retrieve"),
			Timeout:  eff.Source.Timeout,
		},
	}, nil
}

func strategyNames(ss []locate.Strategy) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.String())
	}
	return out
}

func (a *app) close() {
	_ = a.logger.Sync()
}
