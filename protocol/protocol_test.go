package protocol

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

func TestRESPEncode(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{
			name: "write",
			op:   Write("7", "m_value_7"),
			want: "*3\r\n$3\r\nSET\r\n$1\r\n7\r\n$9\r\nm_value_7\r\n",
		},
		{
			name: "read",
			op:   Read("12345"),
			want: "*2\r\n$3\r\nGET\r\n$5\r\n12345\r\n",
		},
		{
			name: "binary safe value",
			op:   Write("k", "a b\r\nc"),
			want: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$6\r\na b\r\nc\r\n",
		},
		{
			name: "multibyte value counts bytes",
			op:   Write("k", "héllo"),
			want: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$6\r\nhéllo\r\n",
		},
		{
			name: "empty value",
			op:   Write("k", ""),
			want: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$0\r\n\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(RESPEncoder{}.Encode(tt.op)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeCommandArgCount(t *testing.T) {
	got := string(EncodeCommand("PING"))
	if got != "*1\r\n$4\r\nPING\r\n" {
		t.Errorf("EncodeCommand(PING) = %q", got)
	}
}

func TestLineEncode(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"write", Write("7", "m_value_7"), "SET 7 m_value_7\n"},
		{"read", Read("7"), "GET 7\n"},
		{"write with space", Write("7", "hello world"), "SET 7 \"hello world\"\n"},
		{"write with quotes", Write("7", `he said "hi"`), `SET 7 "he said \"hi\""` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(LineEncoder{}.Encode(tt.op)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	tests := []struct {
		in      string
		escaped string
	}{
		{"hello world", `"hello world"`},
		{`he said "hi"`, `"he said \"hi\""`},
		{"nospaces", "nospaces"},
		{`"`, `"\""`},
		{`back\slash`, `back\slash`},
		{`a\"b`, `"a\\"b"`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := EscapeValue(tt.in)
			if got != tt.escaped {
				t.Fatalf("EscapeValue(%q) = %q, want %q", tt.in, got, tt.escaped)
			}
			back, err := UnescapeValue(got)
			if err != nil {
				t.Fatalf("UnescapeValue(%q) error = %v", got, err)
			}
			if back != tt.in {
				t.Errorf("UnescapeValue(%q) = %q, want %q", got, back, tt.in)
			}
		})
	}
}

func TestUnescapeMalformed(t *testing.T) {
	for _, in := range []string{`"`, `"open`, `"in"ner"`} {
		if _, err := UnescapeValue(in); !errors.Is(err, ErrMalformedQuoted) {
			t.Errorf("UnescapeValue(%q) error = %v, want ErrMalformedQuoted", in, err)
		}
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		p, err := Lookup(name, Options{})
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, p.Name())
		}
	}
	if _, err := Lookup("memcache", Options{}); err == nil {
		t.Error("Lookup(memcache) expected error")
	}
}

// echoLines answers every received line with "Ok".
func echoLines(t *testing.T, ln net.Listener, got chan<- string) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			close(got)
			return
		}
		got <- line
		if _, err := io.WriteString(conn, "Ok\n"); err != nil {
			return
		}
	}
}

func TestWireConnSendsFramesAndDrains(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	got := make(chan string, 4)
	go echoLines(t, ln, got)

	p, _ := Lookup("line", Options{})
	conn, err := p.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	ops := []Operation{Write("1", "m_value_1"), Read("1")}
	want := []string{"SET 1 m_value_1\n", "GET 1\n"}
	for i, op := range ops {
		if err := conn.Do(context.Background(), op); err != nil {
			t.Fatalf("Do(%v) error = %v", op, err)
		}
		select {
		case line := <-got:
			if line != want[i] {
				t.Errorf("server received %q, want %q", line, want[i])
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for server")
		}
	}
	conn.Close()
}

func TestWireConnDrainFailure(t *testing.T) {
	client, server := net.Pipe()
	go func() {
		buf := make([]byte, 64)
		server.Read(buf)
		server.Close()
	}()

	conn := NewWireConn(client, RESPEncoder{}, 16)
	err := conn.Do(context.Background(), Write("1", "v"))
	var drainErr *DrainError
	if !errors.As(err, &drainErr) {
		t.Fatalf("Do() error = %v, want *DrainError", err)
	}

	err = conn.Do(context.Background(), Write("2", "v"))
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Do() after close error = %v, want *WriteError", err)
	}
}

func TestWireDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	p, _ := Lookup("resp", Options{})
	if _, err := p.Dial(context.Background(), addr); err == nil {
		t.Error("Dial() to a closed port expected error")
	}
}

func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestNativeDialUnreachable(t *testing.T) {
	addr := closedAddr(t)
	driver := NewNativeDriver(300*time.Millisecond, nil)

	start := time.Now()
	conn, err := driver.Dial(context.Background(), addr)
	if err == nil {
		conn.Close()
		t.Fatal("Dial() to a closed port expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Dial() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Dial() took %v, dial timeout not applied", elapsed)
	}
}

type fakeKV struct {
	clientv3.KV
	puts []string
	gets []string
	err  error
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.puts = append(f.puts, key+"="+val)
	return &clientv3.PutResponse{}, f.err
}

func (f *fakeKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.gets = append(f.gets, key)
	return &clientv3.GetResponse{}, f.err
}

func TestNativeConnDelegates(t *testing.T) {
	kv := &fakeKV{}
	conn := &nativeConn{kv: kv}

	if err := conn.Do(context.Background(), Write("3", "m_value_3")); err != nil {
		t.Fatalf("Do(write) error = %v", err)
	}
	if err := conn.Do(context.Background(), Read("3")); err != nil {
		t.Fatalf("Do(read) error = %v", err)
	}
	if strings.Join(kv.puts, ",") != "3=m_value_3" {
		t.Errorf("puts = %v", kv.puts)
	}
	if strings.Join(kv.gets, ",") != "3" {
		t.Errorf("gets = %v", kv.gets)
	}

	kv.err = errors.New("etcdserver: request timed out")
	if err := conn.Do(context.Background(), Read("3")); !errors.Is(err, kv.err) {
		t.Errorf("Do() error = %v, want library error", err)
	}
}
