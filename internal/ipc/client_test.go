package ipc

import (
	"os"
	"testing"
	"time"
)

func startTestServer(t *testing.T, m ManagerInterface) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	errCh := make(chan error, 1)
	go func() {
		errCh <- Start(m)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := os.Stat(SocketPath()); err == nil {
			return
		}
		select {
		case err := <-errCh:
			t.Fatalf("control-plane server exited early: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the control-plane socket to appear")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestClientGetStatusRoundTrip(t *testing.T) {
	m := &fakeManager{status: StatusResponse{Status: "ok", PID: 42, PowerMode: "doze"}}
	startTestServer(t, m)

	status, err := GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.PID != 42 || status.PowerMode != "doze" {
		t.Errorf("GetStatus() = %+v, want PID=42 PowerMode=doze", status)
	}
}

func TestClientSendCommandRoundTrip(t *testing.T) {
	m := &fakeManager{}
	startTestServer(t, m)

	resp, err := SendCommand(Command{Type: CommandRefresh})
	if err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("SendCommand response status = %q, want \"ok\"", resp.Status)
	}
	if len(m.enqueued) != 1 || m.enqueued[0].Type != CommandRefresh {
		t.Errorf("expected the refresh command to reach the manager, got %+v", m.enqueued)
	}
}
