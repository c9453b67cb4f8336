package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/hukam/internal/infra/snapshot"
)

type fetchFlags struct {
	snapshotDir string
	replay      string
	pretty      bool
}

func newFetchCmd(rf *rootFlags) *cobra.Command {
	ff := &fetchFlags{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "检索一次并把响应 JSON 输出到 stdout",
		Long: `检索一次并把与 GET /api/hukamnama 相同的 JSON 输出到 stdout。

--snapshot DIR：把原始 HTML 与响应 JSON 保存到 DIR/<provider>/<YYYY-MM-DD>.{html,json}
--replay DAY：不访问网络，用 DIR 中已保存的 DAY（YYYY-MM-DD）HTML 重新解析

返回兜底内容时退出码为 1。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, rf, "")
			if err != nil {
				return err
			}
			defer a.close()
			return a.fetch(cmd, *ff)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&ff.snapshotDir, "snapshot", "", "快照目录")
	fs.StringVar(&ff.replay, "replay", "", "回放某天的快照（需要 --snapshot）")
	fs.BoolVar(&ff.pretty, "pretty", false, "缩进输出 JSON")
	return cmd
}

func (a *app) fetch(cmd *cobra.Command, ff fetchFlags) error {
	store := snapshot.New(ff.snapshotDir)
	svc := *a.svc

	if ff.replay != "" {
		if ff.snapshotDir == "" {
			return fmt.Errorf("--replay 需要同时指定 --snapshot")
		}
		day, err := time.ParseInLocation(snapshot.DayLayout, ff.replay, a.eff.Location)
		if err != nil {
			return fmt.Errorf("--replay 日期无效：%w", err)
		}
		html, err := store.ReadHTML(a.provider.Name(), day)
		if err != nil {
			return err
		}
		svc.Provider = snapshot.Replay{Provider: a.provider, HTML: html, URL: a.eff.Source.URL}
	}

	tr := svc.RetrieveTrace(cmd.Context())

	var (
		b   []byte
		err error
	)
	if ff.pretty {
		b, err = json.MarshalIndent(tr.Response, "", "  ")
	} else {
		b, err = json.Marshal(tr.Response)
	}
	if err != nil {
		return err
	}

	if ff.snapshotDir != "" && ff.replay == "" {
		day := tr.Response.Timestamp.In(a.eff.Location)
		if err := store.Write(a.provider.Name(), day, tr.HTML, b); err != nil {
			return fmt.Errorf("写入快照失败：%w", err)
		}
		a.logger.Info("snapshot saved", zap.String("dir", ff.snapshotDir), zap.String("day", day.Format(snapshot.DayLayout)))
	}

	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(b)); err != nil {
		return err
	}
	if tr.Response.Degraded() {
		return errDegraded
	}
	return nil
}
