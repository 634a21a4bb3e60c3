package command

import (
	"fmt"
	"strings"

	"github.com/lojhan/hashchain/internal/resp"
)

const Version = "0.3.0"

func PingCommand(args []resp.Value) resp.Value {
	if len(args) == 0 {
		return resp.PongValue()
	}

	if len(args) > 1 {
		return wrongArgs("ping")
	}

	if args[0].Type != resp.BulkString {
		return resp.ErrorValue("ERR invalid argument type")
	}

	return args[0]
}

func EchoCommand(args []resp.Value) resp.Value {
	if len(args) != 1 {
		return wrongArgs("echo")
	}

	if args[0].Type != resp.BulkString {
		return resp.ErrorValue("ERR invalid argument type")
	}

	return args[0]
}

func CommandCommand(args []resp.Value) resp.Value {
	return resp.ArrayValue()
}

func InfoCommand(ks *Keyspace) func([]resp.Value) resp.Value {
	return func(args []resp.Value) resp.Value {
		section := "all"
		if len(args) > 0 && args[0].Type == resp.BulkString {
			section = strings.ToLower(args[0].Str)
		}

		var b strings.Builder
		if section == "all" || section == "server" {
			b.WriteString("# Server\r\n")
			fmt.Fprintf(&b, "hashchain_version:%s\r\n", Version)
			b.WriteString("os:Go\r\n")
		}
		if section == "all" || section == "keyspace" {
			ks.Do(func(t *Table) {
				b.WriteString("# Keyspace\r\n")
				fmt.Fprintf(&b, "keys:%d\r\n", t.Len())
				fmt.Fprintf(&b, "capacity:%d\r\n", t.Capacity())
				fmt.Fprintf(&b, "load_factor:%.2f\r\n", float64(t.Len())/float64(t.Capacity()))
			})
		}
		return resp.BulkStringValue(b.String())
	}
}

func wrongArgs(cmd string) resp.Value {
	return resp.ErrorValue("ERR wrong number of arguments for '" + cmd + "' command")
}

func errorReply(err error) resp.Value {
	return resp.ErrorValue("ERR " + err.Error())
}

// bulkStrings returns the string payloads of args, or false if any of them
// is not a bulk string.
func bulkStrings(args []resp.Value) ([]string, bool) {
	strs := make([]string, len(args))
	for i, arg := range args {
		if arg.Type != resp.BulkString || arg.Null {
			return nil, false
		}
		strs[i] = arg.Str
	}
	return strs, true
}
