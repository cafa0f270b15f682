package strapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/minecom/minedash/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenKey struct{}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(&config.StrapiConfig{URL: server.URL + "/api", Timeout: 5 * time.Second}, opts...)
}

func TestClient_InjectsBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `{"id": 7, "username": "alice", "role": {"id": 1, "name": "Admin"}}`)
	}, WithTokenSource(func(ctx context.Context) string {
		token, _ := ctx.Value(tokenKey{}).(string)
		return token
	}))

	ctx := context.WithValue(context.Background(), tokenKey{}, "abc")
	user, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, 7, user.ID)
	assert.Equal(t, 1, user.RoleID())

	_, err = client.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "anonymous requests carry no token")

	_, err = client.Me(ctx, WithToken("override"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer override", gotAuth, "explicit header wins")
}

func TestClient_UnauthorizedCallsHook(t *testing.T) {
	called := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"data":null,"error":{"status":401,"name":"UnauthorizedError","message":"Missing or invalid credentials"}}`)
	}, WithUnauthorizedHandler(func(ctx context.Context) {
		called++
	}))

	_, err := client.ListUsers(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, called)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "UnauthorizedError", httpErr.Name)
	assert.Equal(t, "Missing or invalid credentials", httpErr.Message)
}

func TestClient_HTTPErrorPassThrough(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"data":null,"error":{"status":400,"name":"ApplicationError","message":"Email already taken"}}`)
	}, WithUnauthorizedHandler(func(ctx context.Context) {
		called = true
	}))

	_, err := client.Register(context.Background(), Registration{Username: "bob"})
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, "Email already taken", Message(err, "fallback"))
}

func TestClient_RawErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	err := client.DeleteUser(context.Background(), 3)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "bad gateway", httpErr.Message)
}

func TestClient_TransportError(t *testing.T) {
	client := New(&config.StrapiConfig{URL: "http://127.0.0.1:1/api", Timeout: time.Second})

	_, err := client.Roles(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodGet, transportErr.Method)
	assert.Equal(t, "fallback", Message(err, "fallback"))
}

func TestClient_DecodeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"data": [`},
		{name: "missing id", body: `{"data": [{"users_permissions_users": []}]}`},
		{name: "bad date", body: `{"data": [{"id": 1, "users_permissions_users": [{"id": 2, "dashboard": {"deposits": [{"deposit_date": "yesterday"}]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := client.BankUsers(context.Background())
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestClient_BankUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/banks-data", r.URL.Path)
		assert.Equal(t, "users_permissions_users.dashboard.deposits", r.URL.Query().Get("populate"))
		_, _ = io.WriteString(w, `{"data": [{
			"id": 1,
			"users_permissions_users": [
				{"id": 10, "username": "alice", "recommenderId": "R1",
				 "dashboard": {"id": 3, "balance": "1250.50", "deposits": [
					{"id": 1, "amount": 100, "deposit_date": "2024-03-01"},
					{"id": 2, "amount": "20.25", "deposit_date": null}
				 ]}},
				{"id": 11, "username": "bob", "recommenderId": "R2"}
			]
		}]}`)
	})

	entries, err := client.BankUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Users, 2)

	alice := entries[0].Users[0]
	require.NotNil(t, alice.Dashboard)
	assert.True(t, alice.Dashboard.Balance.Equal(decimal.RequireFromString("1250.5")))
	require.Len(t, alice.Dashboard.Deposits, 2)
	assert.Equal(t, "2024-03-01", alice.Dashboard.Deposits[0].DepositDate.String())
	assert.True(t, alice.Dashboard.Deposits[1].DepositDate.IsZero())
	assert.Nil(t, entries[0].Users[1].Dashboard)
}

func TestClient_TransactionForms(t *testing.T) {
	t.Run("first entry", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data": [
				{"id": 1, "transactions_forms": [{"id": 5, "iban": "DE89", "type": "deposit", "recommenderId": "R1"}]},
				{"id": 2, "transactions_forms": [{"id": 6, "iban": "FR76", "type": "deposit", "recommenderId": "R2"}]}
			]}`)
		})
		forms, err := client.TransactionForms(context.Background())
		require.NoError(t, err)
		require.Len(t, forms, 1)
		assert.Equal(t, "DE89", forms[0].IBAN)
	})

	t.Run("empty collection", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data": []}`)
		})
		forms, err := client.TransactionForms(context.Background())
		require.NoError(t, err)
		assert.Empty(t, forms)
	})

	t.Run("unknown type", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data": [{"id": 1, "transactions_forms": [{"id": 5, "type": "refund"}]}]}`)
		})
		_, err := client.TransactionForms(context.Background())
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
	})
}

func TestClient_CreateTransactionForm(t *testing.T) {
	var got map[string]map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transactions-forms", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"data": {"id": 9, "iban": "DE89", "type": "withdrawal", "recommenderId": "R1"}}`)
	})

	form, err := client.CreateTransactionForm(context.Background(), TransactionForm{
		IBAN:              "DE89",
		BIC:               "COBADEFF",
		BankName:          "Commerzbank",
		AccountHolderName: "Alice",
		Type:              TransactionWithdrawal,
		RecommenderID:     "R1",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, form.ID)

	data := got["data"]
	assert.Equal(t, "DE89", data["iban"])
	assert.Equal(t, "COBADEFF", data["bic"])
	assert.Equal(t, "Commerzbank", data["bank_name"])
	assert.Equal(t, "Alice", data["account_holder_name"])
	assert.Equal(t, "withdrawal", data["type"])
	assert.Equal(t, "R1", data["recommenderId"])
	assert.NotContains(t, data, "id")
}

func TestClient_Roles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users-permissions/roles", r.URL.Path)
		_, _ = io.WriteString(w, `{"roles": [{"id": 1, "name": "Admin"}, {"id": 2, "name": "Authenticated"}]}`)
	})

	roles, err := client.Roles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Role{{ID: 1, Name: "Admin"}, {ID: 2, Name: "Authenticated"}}, roles)
}

func TestClient_Contact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "*", r.URL.Query().Get("populate"))
		_, _ = io.WriteString(w, `{"data": {"TelegramGroup": "https://t.me/x", "users_permissions_user": {"id": 4, "email": "ops@example.com", "recommenderId": "R9"}}}`)
	})

	contact, err := client.Contact(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://t.me/x", contact.TelegramGroup)
	require.NotNil(t, contact.Owner)
	assert.Equal(t, "ops@example.com", contact.Owner.Email)
}

func TestClient_ContextCancellation(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListUsers(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-12-31T10:00:00.000Z"`), &d))
	assert.Equal(t, "2024-12-31", d.String())

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-12-31"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
