package zalo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/order-intake/internal/config"
	"github.com/Rrens/order-intake/internal/domain"
)

type fakePlatform struct {
	mu        sync.Mutex
	validTok  string
	refreshes atomic.Int32
	sent      []csRequest
	history   []conversationMessage
}

func (f *fakePlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v3.0/oa/message/cs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("access_token") != f.validTok {
			json.NewEncoder(w).Encode(envelope{Error: codeTokenInvalid, Message: "Access token is invalid"})
			return
		}
		var req csRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		f.sent = append(f.sent, req)
		w.Write([]byte(`{"error":0,"message":"Success","data":{"message_id":"m1"}}`))
	})
	mux.HandleFunc("GET /v2.0/oa/conversation", func(w http.ResponseWriter, r *http.Request) {
		var q map[string]any
		assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("data")), &q))
		assert.Equal(t, "user-1", q["user_id"])
		data, _ := json.Marshal(f.history)
		json.NewEncoder(w).Encode(envelope{Data: data})
	})
	mux.HandleFunc("POST /v4/oa/access_token", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		assert.Equal(t, "refresh-1", form.Get("refresh_token"))
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "secret", r.Header.Get("secret_key"))

		f.refreshes.Add(1)
		time.Sleep(20 * time.Millisecond)
		f.mu.Lock()
		f.validTok = "fresh"
		f.mu.Unlock()
		w.Write([]byte(`{"access_token":"fresh","refresh_token":"refresh-2","expires_in":"90000"}`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakePlatform) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(config.ZaloConfig{
		APIBase:       srv.URL,
		OAuthBase:     srv.URL,
		AppID:         "app",
		SecretKey:     "secret",
		AccessToken:   "stale",
		RefreshToken:  "refresh-1",
		Timeout:       5 * time.Second,
		RatePerSecond: 1000,
		Burst:         10,
		HistoryCount:  10,
	})
}

func TestClient_Send_RefreshesRejectedToken(t *testing.T) {
	f := &fakePlatform{validTok: "fresh"}
	client := newTestClient(t, f)

	reply := domain.Reply{
		Text: "Xin chào",
		Buttons: []domain.Button{
			{Label: "Đặt hàng", ActionType: domain.ActionSendQuery, Payload: "đặt hàng"},
			{Label: "Gọi hỗ trợ", ActionType: domain.ActionDialPhone, Payload: "0900000000"},
		},
	}
	require.NoError(t, client.Send(context.Background(), "user-1", reply))

	assert.Equal(t, int32(1), f.refreshes.Load())
	require.Len(t, f.sent, 1)
	sent := f.sent[0]
	assert.Equal(t, "user-1", sent.Recipient.UserID)
	assert.Equal(t, "Xin chào", sent.Message.Text)
	require.NotNil(t, sent.Message.Attachment)
	buttons := sent.Message.Attachment.Payload.Buttons
	require.Len(t, buttons, 2)
	assert.Equal(t, buttonQuery, buttons[0].Type)
	assert.Equal(t, "đặt hàng", buttons[0].Payload)
	assert.Equal(t, buttonPhone, buttons[1].Type)
	assert.Equal(t, map[string]any{"phone_code": "0900000000"}, buttons[1].Payload)

	client.mu.RLock()
	assert.Equal(t, "refresh-2", client.refreshToken)
	client.mu.RUnlock()
}

func TestClient_Send_ConcurrentRefreshOnce(t *testing.T) {
	f := &fakePlatform{validTok: "fresh"}
	client := newTestClient(t, f)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Send(context.Background(), "user-1", domain.Reply{Text: "hi"}))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.refreshes.Load())
	assert.Len(t, f.sent, 5)
}

func TestClient_Send_NoButtonsOmitsAttachment(t *testing.T) {
	msg := toCSMessage(domain.Reply{Text: "hi"})
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hi"}`, string(data))
}

func TestClient_Send_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":-213,"message":"User has not followed OA"}`))
	}))
	defer srv.Close()
	client := NewClient(config.ZaloConfig{APIBase: srv.URL, OAuthBase: srv.URL, AccessToken: "tok", Timeout: time.Second})

	err := client.Send(context.Background(), "user-1", domain.Reply{Text: "hi"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, -213, apiErr.Code)
}

func TestClient_FetchHistory_OldestFirst(t *testing.T) {
	f := &fakePlatform{
		validTok: "stale",
		history: []conversationMessage{
			{MessageID: "3", Src: 0, Time: 3000, Type: "text", Message: "📦 Bước 1/4"},
			{MessageID: "s", Src: 1, Time: 2500, Type: "sticker"},
			{MessageID: "2", Src: 1, Time: 2000, Type: "text", Message: "đặt hàng"},
			{MessageID: "1", Src: 1, Time: 1000, Type: "text", Message: "bắt đầu"},
		},
	}
	client := newTestClient(t, f)

	history, err := client.FetchHistory(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "bắt đầu", history[0].Text)
	assert.True(t, history[0].IsFromCustomer)
	assert.Equal(t, time.UnixMilli(1000).UTC(), history[0].Timestamp)
	assert.False(t, history[2].IsFromCustomer)
	assert.Equal(t, "user-1", history[2].CustomerID)
	assert.Zero(t, f.refreshes.Load())
}

func TestAPIError_IsPlatformRejected(t *testing.T) {
	var err error = &APIError{Code: -213, Message: "not followed"}
	assert.ErrorIs(t, err, domain.ErrPlatformRejected)
}
