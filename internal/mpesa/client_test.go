package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type daraja struct {
	tokenCalls atomic.Int32
	tokenFail  bool
	push       func(w http.ResponseWriter, body stkPushBody)
	query      func(w http.ResponseWriter, body stkQueryBody)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (d *daraja) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := chi.NewRouter()
	mux.Get("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		d.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if d.tokenFail || !ok || user != "key" || pass != "secret" || r.URL.Query().Get("grant_type") != "client_credentials" {
			writeJSON(w, http.StatusBadRequest, apiError{ErrorCode: "400.008.01", ErrorMessage: "Invalid Authentication passed"})
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: "tok-1", ExpiresIn: "3599"})
	})
	mux.Post("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			writeJSON(w, http.StatusUnauthorized, apiError{ErrorCode: "404.001.03", ErrorMessage: "Invalid Access Token"})
			return
		}
		var body stkPushBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		d.push(w, body)
	})
	mux.Post("/mpesa/stkpushquery/v1/query", func(w http.ResponseWriter, r *http.Request) {
		var body stkQueryBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		d.query(w, body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:        baseURL,
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "pass",
		CallbackURL:    "https://shop.example/payments/mpesa/callback",
		Timeout:        2 * time.Second,
	}, nil, zaptest.NewLogger(t))
	// 2024-03-01 09:30:15 UTC is 12:30:15 in Nairobi
	c.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 15, 0, time.UTC) }
	return c
}

func TestClient_STKPush(t *testing.T) {
	d := &daraja{}
	var got stkPushBody
	d.push = func(w http.ResponseWriter, body stkPushBody) {
		got = body
		writeJSON(w, http.StatusOK, STKPushResponse{
			MerchantRequestID: "29115-34620561-1",
			CheckoutRequestID: "ws_CO_191220191020363925",
			ResponseCode:      "0",
			CustomerMessage:   "Success. Request accepted for processing",
		})
	}
	c := newTestClient(t, d.server(t).URL)

	resp, err := c.STKPush(context.Background(), STKPushRequest{
		Phone: "254712345678", Amount: 11600, AccountReference: "EE123456ABCD", Description: "Payment for order EE123456ABCD",
	})
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_191220191020363925", resp.CheckoutRequestID)

	assert.Equal(t, "20240301123015", got.Timestamp)
	want := base64.StdEncoding.EncodeToString([]byte("174379" + "pass" + "20240301123015"))
	assert.Equal(t, want, got.Password)
	assert.Equal(t, TransactionType, got.TransactionType)
	assert.Equal(t, int64(11600), got.Amount)
	assert.Equal(t, "254712345678", got.PartyA)
	assert.Equal(t, "174379", got.PartyB)
	assert.Equal(t, "EE123456ABCD", got.AccountReference)

	_, err = c.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 1, AccountReference: "EE123456ABCE"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), d.tokenCalls.Load(), "token should be cached")
}

func TestClient_STKPush_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		tokenFail bool
		push      func(w http.ResponseWriter, body stkPushBody)
		wantKind  ErrorKind
		wantMsg   string
	}{
		{
			name:      "credentials refused",
			tokenFail: true,
			wantKind:  KindCredentials,
			wantMsg:   "Invalid Authentication passed",
		},
		{
			name: "provider rejects",
			push: func(w http.ResponseWriter, _ stkPushBody) {
				writeJSON(w, http.StatusBadRequest, apiError{ErrorCode: "400.002.02", ErrorMessage: "Bad Request - Invalid PhoneNumber"})
			},
			wantKind: KindRejected,
			wantMsg:  "Bad Request - Invalid PhoneNumber",
		},
		{
			name: "non-zero response code",
			push: func(w http.ResponseWriter, _ stkPushBody) {
				writeJSON(w, http.StatusOK, STKPushResponse{ResponseCode: "1", ResponseDescription: "Unable to lock subscriber"})
			},
			wantKind: KindRejected,
			wantMsg:  "Unable to lock subscriber",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &daraja{tokenFail: tc.tokenFail, push: tc.push}
			c := newTestClient(t, d.server(t).URL)

			_, err := c.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 10, AccountReference: "EE1"})
			var ge *GatewayError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tc.wantKind, ge.Kind)
			assert.Contains(t, ge.Error(), tc.wantMsg)
		})
	}
}

func TestClient_STKPush_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 10})
	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	// the token call is the first to fail
	assert.Equal(t, KindCredentials, ge.Kind)
	assert.Error(t, ge.Unwrap())
}

func TestClient_TokenRefreshIsShared(t *testing.T) {
	d := &daraja{push: func(w http.ResponseWriter, _ stkPushBody) {
		writeJSON(w, http.StatusOK, STKPushResponse{ResponseCode: "0", CheckoutRequestID: "ws_CO_1"})
	}}
	c := newTestClient(t, d.server(t).URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.STKPush(context.Background(), STKPushRequest{Phone: "254712345678", Amount: 10})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, d.tokenCalls.Load(), int32(2))
}

func TestClient_STKQuery(t *testing.T) {
	testCases := []struct {
		name     string
		reply    func(w http.ResponseWriter, body stkQueryBody)
		want     QueryResult
		wantKind ErrorKind
	}{
		{
			name: "paid",
			reply: func(w http.ResponseWriter, body stkQueryBody) {
				writeJSON(w, http.StatusOK, stkQueryResponse{ResponseCode: "0", CheckoutRequestID: body.CheckoutRequestID, ResultCode: "0", ResultDesc: "The service request is processed successfully."})
			},
			want: QueryResult{CheckoutRequestID: "ws_CO_1", ResultCode: 0, ResultDesc: "The service request is processed successfully."},
		},
		{
			name: "cancelled by user",
			reply: func(w http.ResponseWriter, body stkQueryBody) {
				writeJSON(w, http.StatusOK, stkQueryResponse{ResponseCode: "0", ResultCode: "1032", ResultDesc: "Request cancelled by user"})
			},
			want: QueryResult{CheckoutRequestID: "ws_CO_1", ResultCode: 1032, ResultDesc: "Request cancelled by user"},
		},
		{
			name: "still processing",
			reply: func(w http.ResponseWriter, _ stkQueryBody) {
				writeJSON(w, http.StatusInternalServerError, apiError{ErrorCode: codeStillProcessing, ErrorMessage: "The transaction is being processed"})
			},
			want: QueryResult{CheckoutRequestID: "ws_CO_1", Pending: true, ResultDesc: "The transaction is being processed"},
		},
		{
			name: "unknown request",
			reply: func(w http.ResponseWriter, _ stkQueryBody) {
				writeJSON(w, http.StatusBadRequest, apiError{ErrorCode: "400.002.02", ErrorMessage: "Bad Request - Invalid CheckoutRequestID"})
			},
			wantKind: KindRejected,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &daraja{query: tc.reply}
			c := newTestClient(t, d.server(t).URL)

			res, err := c.STKQuery(context.Background(), "ws_CO_1")
			if tc.wantKind != 0 {
				var ge *GatewayError
				require.ErrorAs(t, err, &ge)
				assert.Equal(t, tc.wantKind, ge.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, res)
		})
	}
}

func TestMemoryTokenCache(t *testing.T) {
	now := time.Now()
	m := &MemoryTokenCache{now: func() time.Time { return now }}
	_, ok, _ := m.Get(context.Background())
	assert.False(t, ok)

	require.NoError(t, m.Set(context.Background(), "tok", time.Minute))
	tok, ok, _ := m.Get(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(context.Background())
	assert.False(t, ok)
}

func TestTokenResponse_TTL(t *testing.T) {
	assert.Equal(t, 3599*time.Second-tokenSkew, tokenResponse{ExpiresIn: "3599"}.ttl())
	assert.Equal(t, 3599*time.Second-tokenSkew, tokenResponse{ExpiresIn: "soon"}.ttl())
	assert.Equal(t, 30*time.Second, tokenResponse{ExpiresIn: "30"}.ttl())
}
