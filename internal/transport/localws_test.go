package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLocalWSSendRecvRoundTrip(t *testing.T) {
	var serverPeer *LocalWS
	ready := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		p, err := AcceptLocalWS(w, r)
		if err != nil {
			t.Errorf("AcceptLocalWS: %v", err)
			return
		}
		serverPeer = p
		close(ready)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, err := DialLocalWS(wsURL, time.Second)
	if err != nil {
		t.Fatalf("DialLocalWS: %v", err)
	}
	defer client.Close()

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
	}
	defer serverPeer.Close()

	if err := client.Send(Message{Type: MessageInput, Frame: 7, Bits: 42}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-serverPeer.Recv():
		if msg.Type != MessageInput || msg.Frame != 7 || msg.Bits != 42 {
			t.Fatalf("received %+v, want frame=7 bits=42", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	if st := client.Stats(); st.PacketsSent != 1 {
		t.Fatalf("PacketsSent = %d, want 1", st.PacketsSent)
	}
}

func TestLocalWSCloseStopsDelivery(t *testing.T) {
	var serverPeer *LocalWS
	ready := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		p, err := AcceptLocalWS(w, r)
		if err != nil {
			return
		}
		serverPeer = p
		close(ready)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client, err := DialLocalWS(wsURL, time.Second)
	if err != nil {
		t.Fatalf("DialLocalWS: %v", err)
	}

	select {
	case <-ready:
	case <-time.After(time.Second):
		t.Fatal("server never accepted the connection")
	}
	defer serverPeer.Close()

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Send(Message{Type: MessagePing}); err != ErrClosed {
		t.Fatalf("Send after Close = %v, want ErrClosed", err)
	}
}
