// Command client dials example/cmd/mockserver (or any RESP2/RESP3
// server) with the respstream package and logs every decoded reply.
// Logging follows the teacher's zap-with-lumberjack-rotation shape:
// console-ish fields to stdout by default, or a rotated file when
// -logFile is set.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/IceFireDB/respstream"
	"github.com/IceFireDB/respstream/pkg/resp"
)

func newLogger(logFile string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Local().Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	var w zapcore.WriteSyncer
	if logFile == "" {
		w = zapcore.AddSync(zapcore.Lock(zapcore.AddSync(os.Stdout)))
	} else {
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(encoder, w, zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller())
}

func main() {
	var network string
	var addr string
	var logFile string
	var command string

	flag.StringVar(&network, "network", "tcp", "server network")
	flag.StringVar(&addr, "addr", "127.0.0.1:6381", "server address")
	flag.StringVar(&logFile, "logFile", "", "rotate logs to this file instead of stdout")
	flag.StringVar(&command, "command", "map", "scripted command to send to the mock server")
	flag.Parse()

	logger := newLogger(logFile)
	defer logger.Sync()

	done := make(chan struct{})

	sink := respstream.Sink{
		OnOpen: func(c *respstream.Conn) respstream.Action {
			logger.Info("connected")
			return respstream.None
		},
		OnClose: func(c *respstream.Conn, err error) {
			logger.Info("closed", zap.Error(err))
			close(done)
		},
		OnReply: func(c *respstream.Conn, r resp.Reply) {
			logger.Info("reply", zap.Stringer("kind", r.Kind), zap.Any("value", r))
		},
		OnError: func(c *respstream.Conn, err error) {
			logger.Warn("server error", zap.Error(err))
		},
		OnFatal: func(c *respstream.Conn, err error) respstream.Action {
			logger.Error("protocol violation", zap.Error(err))
			return respstream.Close
		},
		OnPush: func(c *respstream.Conn, r resp.Reply) {
			logger.Info("push", zap.Any("value", r))
		},
		OnAttribute: func(c *respstream.Conn, r resp.Reply) {
			logger.Info("attribute", zap.Any("value", r))
		},
	}

	cl, err := respstream.New(sink, respstream.Options{
		Logger: logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := cl.Dial(network, addr); err != nil {
		log.Fatal(err)
	}

	if err := cl.Write(buildCommand(command)); err != nil {
		log.Fatal(err)
	}

	<-done
}

func buildCommand(name string) []byte {
	return []byte(name + "\n")
}
