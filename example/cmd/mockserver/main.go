// Command mockserver scripts canned RESP2/RESP3 replies for driving
// example/cmd/client against. It is the minimum a parser demo needs:
// no command protocol, no connection-pool framework, just a listener
// that reads one newline-terminated script name per line and writes
// back the matching reply, built with pkg/respwire's Append* encoders
// so every reply Kind pkg/resp can decode (array, map, attribute,
// push, double, big number, boolean, verbatim string, blob error, set)
// has a script that produces it.
package main

import (
	"bufio"
	"flag"
	"log"
	"math/big"
	"net"
	"strings"

	"github.com/IceFireDB/respstream/pkg/respwire"
)

func scriptedReply(name string) []byte {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ping":
		return respwire.AppendString(nil, "PONG")
	case "array":
		out := respwire.AppendArray(nil, 2)
		out = respwire.AppendArray(out, 2)
		out = respwire.AppendInt(out, 1)
		out = respwire.AppendInt(out, 2)
		return respwire.AppendInt(out, 3)
	case "map":
		out := respwire.AppendMap(nil, 2)
		out = respwire.AppendBulkString(out, "region")
		out = respwire.AppendBulkString(out, "us-east")
		out = respwire.AppendBulkString(out, "replicas")
		return respwire.AppendInt(out, 3)
	case "attr":
		out := respwire.AppendAttribute(nil, 1)
		out = respwire.AppendBulkString(out, "ttl-left")
		out = respwire.AppendInt(out, 30)
		return respwire.AppendBulkString(out, "value")
	case "push":
		out := respwire.AppendPush(nil, 2)
		out = respwire.AppendBulkString(out, "message")
		return respwire.AppendBulkString(out, "channel one")
	case "double":
		return respwire.AppendDouble(nil, 3.14159)
	case "bignum":
		n, _ := new(big.Int).SetString("3492890328409238509324850943850943825024385", 10)
		return respwire.AppendBigNumber(nil, n)
	case "bool":
		return respwire.AppendBoolean(nil, true)
	case "verbatim":
		return respwire.AppendVerbatim(nil, "txt", "some long verbatim text")
	case "bloberr":
		return respwire.AppendBlobError(nil, "ERR", "a blob error message")
	case "set":
		out := respwire.AppendSet(nil, 2)
		out = respwire.AppendInt(out, 1)
		return respwire.AppendInt(out, 2)
	default:
		return respwire.AppendError(nil, "ERR unknown script '"+name+"'")
	}
}

func handleConn(c net.Conn) {
	defer c.Close()
	r := bufio.NewReader(c)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if strings.EqualFold(line, "quit") {
				c.Write(respwire.AppendString(nil, "OK"))
				return
			}
			if _, werr := c.Write(scriptedReply(line)); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func main() {
	var addr string
	flag.StringVar(&addr, "addr", "127.0.0.1:6381", "server address")
	flag.Parse()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("started mockserver at %s", addr)

	for {
		c, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		go handleConn(c)
	}
}
