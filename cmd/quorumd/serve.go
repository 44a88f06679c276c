package main

import (
	"fmt"
	"net/http"

	"github.com/ngaut/log"
	"github.com/spf13/cobra"

	"github.com/quorumdb/quorumdb/config"
	"github.com/quorumdb/quorumdb/httpd"
	"github.com/quorumdb/quorumdb/raftstore"
	"github.com/quorumdb/quorumdb/sqlstore"
	"github.com/quorumdb/quorumdb/status"
)

func newServeCommand() *cobra.Command {
	var configPath string
	var peerCount int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run a quorumdb node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, peerCount)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "quorumd.toml", "path to the node's TOML config file")
	cmd.Flags().IntVar(&peerCount, "cluster-size", 1, "number of peer ids to build the in-process reference transport's mesh for (only this node's own peer is started)")
	return cmd
}

func serve(configPath string, peerCount int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if peerCount < 1 {
		peerCount = 1
	}

	engine, err := sqlstore.Open(cfg.Node.DataDir + "/node.db")
	if err != nil {
		return fmt.Errorf("open sqlstore: %w", err)
	}
	defer engine.Close()

	vn := raftstore.NewVirtualNetwork(peerCount)
	defer vn.Stop()
	vn.Start()

	bootCfg := raftstore.BootstrapConfig{
		ID:            cfg.Node.ID,
		ElectionTick:  cfg.Raft.ElectionTick,
		HeartbeatTick: cfg.Raft.HeartbeatTick,
		Initialize:    cfg.Cluster.Bootstrap,
	}
	store, poller, err := raftstore.Start(bootCfg, vn.Inbound(cfg.Node.ID), vn.Outbound(cfg.Node.ID), vn.ProposalQueue(cfg.Node.ID), engine.Apply)
	if err != nil {
		return fmt.Errorf("start raftstore: %w", err)
	}
	go poller.Run()
	defer poller.Stop()

	reporter := status.NewReporter(cfg.Node.DataDir)
	server := httpd.NewServer(engine, store, reporter)

	log.Infof("quorumd: node %d listening on %s", cfg.Node.ID, cfg.HTTP.ListenAddr)
	return http.ListenAndServe(cfg.HTTP.ListenAddr, server)
}
