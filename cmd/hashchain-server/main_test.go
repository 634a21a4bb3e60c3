package main

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lojhan/hashchain/internal/command"
	"github.com/lojhan/hashchain/internal/resp"
	"github.com/lojhan/hashchain/internal/server"
)

func TestServerEndToEnd(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ks := command.NewKeyspace(zap.NewNop())
	srv := server.NewServer("tcp://"+addr, server.WithMulticore(true))
	registerCommands(srv, ks)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-errCh)
	}()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start in time")
	}

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(10*time.Second)))

	ser := resp.NewSerializer(conn)
	parser := resp.NewParser(conn)
	do := func(cmd string, args ...string) resp.Value {
		require.NoError(t, ser.Serialize(resp.CommandValue(cmd, args...)))
		reply, err := parser.Parse()
		require.NoError(t, err)
		return reply
	}

	for i := 0; i < 305; i++ {
		require.Equal(t, resp.OKValue(), do("SET", fmt.Sprintf("key-%d", i), fmt.Sprint(i)))
	}
	require.Equal(t, resp.IntegerValue(305), do("DBSIZE"))

	info := do("INFO", "keyspace")
	require.True(t, strings.Contains(info.Str, "capacity:203"), info.Str)

	for i := 0; i < 305; i++ {
		require.Equal(t, resp.BulkStringValue(fmt.Sprint(i)), do("GET", fmt.Sprintf("key-%d", i)))
	}

	require.Equal(t, resp.BulkStringValue("0"), do("SET", "key-0", "zero", "GET"))
	require.Equal(t, resp.BulkStringValue("zero"), do("GETDEL", "key-0"))
	require.Equal(t, resp.IntegerValue(0), do("EXISTS", "key-0"))
	require.Equal(t, resp.IntegerValue(1), do("DELVALUE", "1"))

	require.Equal(t, resp.OKValue(), do("FLUSHALL"))
	require.Equal(t, resp.IntegerValue(0), do("DBSIZE"))
	info = do("INFO", "keyspace")
	require.True(t, strings.Contains(info.Str, "capacity:101"), info.Str)
}
