package protocol

import (
	"context"
	"testing"
)

type fakeTransport struct {
	sent    [][]byte
	recvSeq [][]byte
	recvIdx int
	closed  bool
}

func (f *fakeTransport) Send(ctx context.Context, b []byte) (int, error) {
	cp := make([]byte, len(b))
	copy(cp, b)
	f.sent = append(f.sent, cp)
	return len(b), nil
}

func (f *fakeTransport) Recv(ctx context.Context, max int) ([]byte, error) {
	if f.recvIdx >= len(f.recvSeq) {
		return nil, nil
	}
	r := f.recvSeq[f.recvIdx]
	f.recvIdx++
	return r, nil
}

func (f *fakeTransport) Ping(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeTransport) Close() error                           { f.closed = true; return nil }

func TestMySQLPing_OKPacket(t *testing.T) {
	fake := &fakeTransport{recvSeq: [][]byte{{0x01, 0x00, 0x00, 0x01, 0x00}}}
	w := Wrap(KindMySQL, fake)

	healthy, err := w.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !healthy {
		t.Errorf("expected OK packet to report healthy")
	}
	if len(fake.sent) != 1 || string(fake.sent[0]) != string(comPingPacket) {
		t.Errorf("expected exact COM_PING bytes sent, got %x", fake.sent)
	}
}

func TestMySQLPing_ErrPacket(t *testing.T) {
	fake := &fakeTransport{recvSeq: [][]byte{{0x01, 0x00, 0x00, 0x01, 0xff}}}
	w := Wrap(KindMySQL, fake)

	healthy, err := w.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if healthy {
		t.Errorf("expected non-OK packet to report unhealthy")
	}
}

func TestRedisPing_Pong(t *testing.T) {
	fake := &fakeTransport{recvSeq: [][]byte{[]byte("+PONG\r\n")}}
	w := Wrap(KindRedis, fake)

	healthy, err := w.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !healthy {
		t.Errorf("expected +PONG to report healthy")
	}
	if string(fake.sent[0]) != "PING\r\n" {
		t.Errorf("expected exact inline PING bytes, got %q", fake.sent[0])
	}
}

func TestRedisPing_WrongReply(t *testing.T) {
	fake := &fakeTransport{recvSeq: [][]byte{[]byte("-ERR\r\n")}}
	w := Wrap(KindRedis, fake)

	healthy, err := w.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if healthy {
		t.Errorf("expected non-PONG reply to report unhealthy")
	}
}

func TestPostgresPing_Delegates(t *testing.T) {
	fake := &fakeTransport{}
	w := Wrap(KindPostgres, fake)

	healthy, err := w.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !healthy {
		t.Errorf("expected delegated ping result to be healthy")
	}
	if len(fake.sent) != 0 {
		t.Errorf("expected postgres ping to send no bytes, got %d sends", len(fake.sent))
	}
}

func TestDelegation_SendRecvClose(t *testing.T) {
	fake := &fakeTransport{recvSeq: [][]byte{[]byte("hello")}}
	w := Wrap(KindRedis, fake)

	if _, err := w.Send(context.Background(), []byte("data")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := w.Recv(context.Background(), 16)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Recv = %q, want hello", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fake.closed {
		t.Errorf("expected Close to delegate to underlying transport")
	}
}
