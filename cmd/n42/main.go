// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/n42-ledger/params"
)

const banner = `
 ███╗   ██╗██╗  ██╗██████╗
 ████╗  ██║██║  ██║╚════██╗
 ██╔██╗ ██║███████║ █████╔╝
 ██║╚██╗██║╚════██║██╔═══╝
 ██║ ╚████║     ██║███████╗
 ╚═╝  ╚═══╝     ╚═╝╚══════╝
`

const usageText = `n42 [options]

快速启动：
  n42                             以默认配置启动账本节点
  n42 --config ./config.yaml      从配置文件启动
  n42 --p2p.listen 0.0.0.0:30311  指定 P2P 监听地址

数据目录：
  n42 --data.dir /data/n42        指定数据目录

详细帮助：
  n42 --help                      查看所有选项`

func main() {
	fmt.Print(banner)

	app := &cli.App{
		Name:                   "n42",
		Usage:                  "N42 账本节点",
		UsageText:              usageText,
		Version:                params.VersionWithCommit(params.GitCommit, ""),
		Flags:                  allFlags(),
		UseShortOptionHandling: true,
		Action:                 appRun,
		Suggest:                true,
		EnableBashCompletion:   true,
		Copyright:              "Copyright 2022-2026 The N42 Authors",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
