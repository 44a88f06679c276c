package raftstore

import "github.com/ngaut/log"

// raftLogger adapts github.com/ngaut/log to go.etcd.io/etcd/raft/v3's
// Logger interface, so the vendored consensus core logs through the same
// sink as the rest of this package instead of raft's own default logger.
type raftLogger struct{}

func (raftLogger) Debug(v ...interface{})                   { log.Debug(v...) }
func (raftLogger) Debugf(format string, v ...interface{})   { log.Debugf(format, v...) }
func (raftLogger) Error(v ...interface{})                   { log.Error(v...) }
func (raftLogger) Errorf(format string, v ...interface{})   { log.Errorf(format, v...) }
func (raftLogger) Info(v ...interface{})                    { log.Info(v...) }
func (raftLogger) Infof(format string, v ...interface{})    { log.Infof(format, v...) }
func (raftLogger) Warning(v ...interface{})                 { log.Warn(v...) }
func (raftLogger) Warningf(format string, v ...interface{}) { log.Warnf(format, v...) }
func (raftLogger) Fatal(v ...interface{})                   { log.Fatal(v...) }
func (raftLogger) Fatalf(format string, v ...interface{})   { log.Fatalf(format, v...) }
func (raftLogger) Panic(v ...interface{})                   { log.Panic(v...) }
func (raftLogger) Panicf(format string, v ...interface{})   { log.Panicf(format, v...) }
