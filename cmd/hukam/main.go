package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errDegraded 表示 fetch 得到的是兜底内容；JSON 已输出，只需要非零退出码。
var errDegraded = errors.New("degraded response")

type rootFlags struct {
	configPath string
	sourceURL  string
	timeout    string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errDegraded) {
			fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	root := &cobra.Command{
		Use:           "hukam",
		Short:         "每日 Hukamnama 抓取服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&rf.configPath, "config", "", "配置文件路径（默认尝试 ./hukam.yaml）")
	pf.StringVar(&rf.sourceURL, "source-url", "", "覆盖 source.url")
	pf.StringVar(&rf.timeout, "timeout", "", "覆盖 source.timeout（例如 10s）")
	pf.StringVar(&rf.logLevel, "log-level", "", "覆盖 log.level（debug/info/warn/error）")

	root.AddCommand(newServeCmd(rf), newFetchCmd(rf))
	return root
}
