package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"xarb-scanner/internal/command"
	"xarb-scanner/internal/config"

	"go.uber.org/zap"
)

func TestTelegramSendDisabled(t *testing.T) {
	cfg := config.TelegramConfig{Enabled: false}
	client := newTelegram(cfg, zap.NewNop(), "http://unused", nil)
	if err := client.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("expected nil error when disabled, got %v", err)
	}
	client.Notify(command.TradeCommand{Kind: command.KindOpen})
	client.Wait()
}

func TestTelegramSendMissingConfig(t *testing.T) {
	cfg := config.TelegramConfig{Enabled: true}
	client := newTelegram(cfg, zap.NewNop(), "http://unused", nil)
	if err := client.Send(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for missing token/chat_id")
	}
}

func TestTelegramSendReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	cfg := config.TelegramConfig{Enabled: true, Token: "token", ChatID: "1"}
	client := newTelegram(cfg, zap.NewNop(), server.URL, server.Client())
	err := client.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestTelegramNotifyPostsCommand(t *testing.T) {
	var (
		mu       sync.Mutex
		gotPath  string
		gotChat  string
		gotText  string
		requests int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		gotPath = r.URL.Path
		gotChat = payload["chat_id"]
		gotText = payload["text"]
		requests++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	cfg := config.TelegramConfig{Enabled: true, Token: "token", ChatID: "123"}
	client := newTelegram(cfg, zap.NewNop(), server.URL, server.Client())
	client.Notify(command.TradeCommand{
		ID:     "id-1",
		Kind:   command.KindOpen,
		Symbol: "BTC",
		Short:  "binance",
		Long:   "bybit",
		Basis:  0.002,
		Tier:   "GREAT_ENTRY",
	})
	client.Wait()

	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Fatalf("expected one request, got %d", requests)
	}
	if gotPath != "/bottoken/sendMessage" {
		t.Fatalf("expected path /bottoken/sendMessage, got %s", gotPath)
	}
	if gotChat != "123" {
		t.Fatalf("expected chat_id 123, got %q", gotChat)
	}
	if !strings.Contains(gotText, "OPEN BTC") || !strings.Contains(gotText, "0.2000%") {
		t.Fatalf("unexpected alert text %q", gotText)
	}
}

func TestFormatCommandClose(t *testing.T) {
	msg := FormatCommand(command.TradeCommand{Kind: command.KindClose, Symbol: "ETH", Short: "bybit", Long: "hyperliquid"})
	if !strings.HasPrefix(msg, "CLOSE ETH") || !strings.Contains(msg, "short bybit / long hyperliquid") {
		t.Fatalf("unexpected close message %q", msg)
	}
}
