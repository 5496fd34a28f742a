// hashid 离线编码/解码实体 id，使用和 api 相同的配置来源（.env、环境变量、HASHIDS_CONFIG）。
package main

import (
	"log/slog"
	"os"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
