package main

import (
	"github.com/spf13/cobra"

	"github.com/weisyn/poseidon-prover/internal/app"
)

func newServeCmd() *cobra.Command {
	var noAPI bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动证明服务（HTTP）",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []app.Option{app.WithConfigFile(globalFlags.ConfigPath)}
			if noAPI {
				opts = append(opts, app.WithoutAPI())
			}
			return app.Run(opts...)
		},
	}
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "不启动 HTTP 接口")
	return cmd
}
