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
	"os"

	"gopkg.in/yaml.v2"

	"github.com/n42blockchain/n42-ledger/conf"
	"github.com/urfave/cli/v2"
)

// GenesisConfig 创世块参数
type GenesisConfig struct {
	GroupMark    string   `yaml:"group_mark"`
	TxCountLimit uint64   `yaml:"tx_count_limit"`
	TxGasLimit   uint64   `yaml:"tx_gas_limit"`
	Miners       []string `yaml:"miners"`
	Observers    []string `yaml:"observers"`
}

// Config 节点完整配置
type Config struct {
	NodeCfg    conf.NodeConfig    `yaml:"node"`
	LoggerCfg  conf.LoggerConfig  `yaml:"logger"`
	P2PCfg     conf.P2PConfig     `yaml:"p2p"`
	StorageCfg conf.StorageConfig `yaml:"storage"`
	GenesisCfg GenesisConfig      `yaml:"genesis"`
}

var DefaultConfig = Config{
	NodeCfg:    conf.DefaultNodeConfig(),
	LoggerCfg:  conf.DefaultLoggerConfig(),
	P2PCfg:     conf.DefaultP2PConfig(),
	StorageCfg: conf.DefaultStorageConfig(),
	GenesisCfg: GenesisConfig{
		GroupMark:    "group0-pbft-mdbx-mpt-1-0-0",
		TxCountLimit: 1000,
		TxGasLimit:   300000000,
	},
}

var cfgFile string

// loadConfig merges the yaml config file (if any) over DefaultConfig; CLI
// flags were bound with Destination pointers into DefaultConfig, so flag
// values already sit underneath.
func loadConfig() (*Config, error) {
	cfg := DefaultConfig
	if cfgFile == "" {
		return &cfg, nil
	}
	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func allFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "配置文件路径 (yaml)",
			Category:    "NODE",
			Destination: &cfgFile,
		},
		&cli.StringFlag{
			Name:        "data.dir",
			Usage:       "数据目录",
			Category:    "NODE",
			Value:       DefaultConfig.NodeCfg.DataDir,
			Destination: &DefaultConfig.NodeCfg.DataDir,
		},
		&cli.StringFlag{
			Name:        "p2p.listen",
			Usage:       "P2P 监听地址",
			Category:    "P2P NETWORK",
			Value:       DefaultConfig.P2PCfg.ListenAddress,
			Destination: &DefaultConfig.P2PCfg.ListenAddress,
		},
		&cli.StringFlag{
			Name:        "p2p.cert",
			Usage:       "节点 TLS 证书路径",
			Category:    "P2P NETWORK",
			Destination: &DefaultConfig.P2PCfg.TLSCertFile,
		},
		&cli.StringFlag{
			Name:        "p2p.key",
			Usage:       "节点 TLS 私钥路径",
			Category:    "P2P NETWORK",
			Destination: &DefaultConfig.P2PCfg.TLSKeyFile,
		},
		&cli.StringFlag{
			Name:        "p2p.ca",
			Usage:       "对端证书校验 CA 路径",
			Category:    "P2P NETWORK",
			Destination: &DefaultConfig.P2PCfg.TLSClientCAFile,
		},
		&cli.StringFlag{
			Name:        "log.level",
			Usage:       "日志级别: trace, debug, info, warn, error",
			Category:    "LOGGER",
			Value:       DefaultConfig.LoggerCfg.Level,
			Destination: &DefaultConfig.LoggerCfg.Level,
		},
		&cli.StringFlag{
			Name:        "log.file",
			Usage:       "日志文件名 (留空则只输出到控制台)",
			Category:    "LOGGER",
			Destination: &DefaultConfig.LoggerCfg.LogFile,
		},
	}
}
