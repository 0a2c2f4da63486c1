package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/redroid-script/rds/internal/component"
	"github.com/redroid-script/rds/internal/version"
)

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the rds version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			printVersion()
		},
	}
}

// joinKinds 用于帮助信息中列出某一组的组件。
func joinKinds(group component.Group) string {
	return strings.Join(component.Kinds(group), "|")
}
