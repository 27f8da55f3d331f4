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
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ledgerwatch/erigon-lib/kv"
	"github.com/ledgerwatch/erigon-lib/kv/mdbx"
	mdbxlog "github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/n42blockchain/n42-ledger/common/block"
	"github.com/n42blockchain/n42-ledger/common/types"
	"github.com/n42blockchain/n42-ledger/conf"
	"github.com/n42blockchain/n42-ledger/log"
	"github.com/n42blockchain/n42-ledger/modules/kvtable"
	"github.com/n42blockchain/n42-ledger/modules/rawdb"
	"github.com/n42blockchain/n42-ledger/modules/sync"
	"github.com/n42blockchain/n42-ledger/params"
	"github.com/n42blockchain/n42-ledger/pkg/errors"
)

func appRun(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Init(cfg.NodeCfg, cfg.LoggerCfg)
	log.Info("starting n42 node", "version", params.Version, "data_dir", cfg.NodeCfg.DataDir)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// A single long-lived write transaction backs the node's table store;
	// it is committed once on shutdown. mdbx allows exactly one writer,
	// which the commit lock in the ledger already guarantees.
	tx, err := db.BeginRw(context.Background())
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := params.SetN42Version(tx, params.VersionKeyCreated); err != nil {
		return err
	}

	storage := kvtable.NewKVStorage(tx, cfg.StorageCfg.Bucket)
	ledger := rawdb.NewLedger(storage)

	param := &rawdb.GenesisBlockParam{
		GroupMark:    cfg.GenesisCfg.GroupMark,
		TxCountLimit: cfg.GenesisCfg.TxCountLimit,
		TxGasLimit:   cfg.GenesisCfg.TxGasLimit,
	}
	for _, s := range cfg.GenesisCfg.Miners {
		id, err := types.ParseNodeId(s)
		if err != nil {
			return errors.Wrap(err, "genesis miner list")
		}
		param.MinerList = append(param.MinerList, id)
	}
	for _, s := range cfg.GenesisCfg.Observers {
		id, err := types.ParseNodeId(s)
		if err != nil {
			return errors.Wrap(err, "genesis observer list")
		}
		param.ObserverList = append(param.ObserverList, id)
	}
	ok, err := ledger.CheckAndBuildGenesisBlock(param)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("genesis group_mark mismatch: %q", cfg.GenesisCfg.GroupMark)
	}
	log.Info("ledger ready", "height", ledger.Number())

	selfID, err := selfNodeID(cfg.NodeCfg)
	if err != nil {
		return err
	}

	pool := newQueuePool()
	engine := sync.NewEngine(selfID, ledger, pool, cfg.P2PCfg, func(*block.Block) (rawdb.ExecutiveContext, error) {
		return &nodeExecCtx{f: kvtable.NewTableFactory(storage, ledger.Number())}, nil
	})
	pool.notify = engine.NotifyNewTransactions

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine.Start(ctx)
	defer engine.Stop()

	ln, err := listen(cfg.P2PCfg)
	if err != nil {
		return err
	}
	defer ln.Close()
	go acceptLoop(ln, engine, selfID)
	log.Info("p2p listening", "addr", cfg.P2PCfg.ListenAddress)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	if err := params.SetN42Version(tx, params.VersionKeyFinished); err != nil {
		return err
	}
	return tx.Commit()
}

func openDB(cfg *Config) (kv.RwDB, error) {
	opts := mdbx.NewMDBX(mdbxlog.New()).
		Label(kv.ChainDB).
		WithTableCfg(func(defaultBuckets kv.TableCfg) kv.TableCfg {
			return kv.TableCfg{
				cfg.StorageCfg.Bucket: {},
				"DatabaseInfo":        {},
			}
		})
	if cfg.StorageCfg.Backend == "memory" {
		opts = opts.InMem("")
	} else {
		dir := cfg.StorageCfg.DataDir
		if dir == "" {
			dir = filepath.Join(cfg.NodeCfg.DataDir, "chaindata")
		}
		opts = opts.Path(dir)
	}
	return opts.Open()
}

// selfNodeID derives the node's 64-byte identity from its configured
// private key, or generates an ephemeral one.
func selfNodeID(cfg conf.NodeConfig) (types.NodeId, error) {
	if cfg.NodePrivate == "" {
		var id types.NodeId
		if _, err := rand.Read(id[:]); err != nil {
			return types.NodeId{}, err
		}
		log.Warn("no node key configured, using ephemeral identity", "node_id", id.Hex())
		return id, nil
	}
	keyBytes, err := hex.DecodeString(strings.TrimPrefix(cfg.NodePrivate, "0x"))
	if err != nil || len(keyBytes) != 32 {
		return types.NodeId{}, errors.Errorf("node.node_private must be a hex-encoded 32-byte private key")
	}
	_, pub := btcec.PrivKeyFromBytes(keyBytes)
	return types.BytesToNodeId(pub.SerializeUncompressed()[1:]), nil
}

func listen(cfg conf.P2PConfig) (net.Listener, error) {
	if cfg.TLSCertFile == "" {
		log.Warn("p2p TLS disabled: no certificate configured")
		return net.Listen("tcp", cfg.ListenAddress)
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, err
	}
	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if cfg.TLSClientCAFile != "" {
		pem, err := os.ReadFile(cfg.TLSClientCAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no CA certificates in %s", cfg.TLSClientCAFile)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tls.Listen("tcp", cfg.ListenAddress, tlsCfg)
}

func acceptLoop(ln net.Listener, engine *sync.Engine, selfID types.NodeId) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		id, err := peerNodeID(conn)
		if err != nil {
			log.Warn("rejecting peer without identity", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
			continue
		}
		if _, err := engine.AcceptPeer(id, conn); err != nil {
			log.Warn("rejecting peer", "remote", conn.RemoteAddr(), "err", err)
			conn.Close()
		}
	}
}

// peerNodeID extracts the peer's 64-byte public key from its verified TLS
// client certificate.
func peerNodeID(conn net.Conn) (types.NodeId, error) {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		// TLS disabled: fall back to an address-derived identity so a dev
		// cluster without certificates still interconnects.
		var id types.NodeId
		copy(id[:], conn.RemoteAddr().String())
		return id, nil
	}
	if err := tlsConn.Handshake(); err != nil {
		return types.NodeId{}, err
	}
	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return types.NodeId{}, errors.Errorf("peer presented no certificate")
	}
	pub, ok := state.PeerCertificates[0].PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return types.NodeId{}, errors.Errorf("peer certificate key is not ECDSA")
	}
	raw := elliptic.Marshal(pub.Curve, pub.X, pub.Y)
	return types.BytesToNodeId(raw[1:]), nil
}

// nodeExecCtx is the launcher's ExecutiveContext: with no execution engine
// attached, committing a block is exactly flushing the table factory.
type nodeExecCtx struct {
	f *kvtable.TableFactory
}

func (c *nodeExecCtx) MemoryTableFactory() *kvtable.TableFactory { return c.f }

func (c *nodeExecCtx) DbCommit(*block.Block) error {
	_, err := c.f.CommitDB()
	return err
}

func (c *nodeExecCtx) BlockInfo() (int64, types.Hash) { return 0, types.Hash{} }
