package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceline/sliceline/internal/auth"
	"github.com/sliceline/sliceline/internal/authz"
	"github.com/sliceline/sliceline/internal/shared"
)

type mockRepository struct {
	menu        []MenuItem
	orders      map[int64][]Order
	nextOrderID int64
	perPage     int
}

func newMockRepo() *mockRepository {
	return &mockRepository{orders: make(map[int64][]Order), nextOrderID: 1, perPage: 10}
}

func (m *mockRepository) Menu(context.Context) ([]MenuItem, error) {
	return append([]MenuItem{}, m.menu...), nil
}

func (m *mockRepository) AddMenuItem(_ context.Context, item MenuItem) (MenuItem, error) {
	item.ID = int64(len(m.menu) + 1)
	m.menu = append(m.menu, item)
	return item, nil
}

func (m *mockRepository) OrdersForDiner(_ context.Context, dinerID int64, page int) (OrderPage, error) {
	if page <= 0 {
		page = 1
	}
	all := m.orders[dinerID]
	offset := shared.Offset(page, m.perPage)
	pageOrders := []Order{}
	for i := offset; i < len(all) && i < offset+m.perPage; i++ {
		pageOrders = append(pageOrders, all[i])
	}
	return OrderPage{DinerID: dinerID, Orders: pageOrders, Page: page}, nil
}

func (m *mockRepository) AddDinerOrder(_ context.Context, dinerID int64, order NewOrder) (Order, error) {
	for _, item := range order.Items {
		found := false
		for _, mi := range m.menu {
			if mi.ID == item.MenuID {
				found = true
				break
			}
		}
		if !found {
			return Order{}, fmt.Errorf("%w: no menu item %d", shared.ErrNotFound, item.MenuID)
		}
	}
	placed := Order{
		ID:          m.nextOrderID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		Date:        time.Now(),
		Items:       order.Items,
	}
	m.nextOrderID++
	m.orders[dinerID] = append(m.orders[dinerID], placed)
	return placed, nil
}

type stubFulfiller struct {
	result FulfillmentResult
	err    error
}

func (s *stubFulfiller) Fulfill(context.Context, Diner, Order) (FulfillmentResult, error) {
	return s.result, s.err
}

type saleRecorder struct {
	items   int
	revenue float64
	ok      *bool
}

func (s *saleRecorder) FactoryLatency(time.Duration) {}
func (s *saleRecorder) Sale(items int, revenue float64, ok bool) {
	s.items, s.revenue, s.ok = items, revenue, &ok
}

func requireClaims(claims *auth.Claims) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims == nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func newOrderServer(t *testing.T, repo Repository, fulfiller Fulfiller, metrics Metrics, claims *auth.Claims) *httptest.Server {
	t.Helper()
	handler := NewHandler(slog.New(slog.DiscardHandler), NewService(repo), fulfiller, metrics)
	r := chi.NewRouter()
	handler.MountRoutes(r, requireClaims(claims))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dinerClaims() *auth.Claims {
	return &auth.Claims{UserID: 5, Name: "pizza diner", Email: "d@jwt.com",
		Roles: []authz.RoleGrant{{Role: authz.RoleDiner}}}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: 1, Roles: []authz.RoleGrant{{Role: authz.RoleAdmin}}}
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, payload
}

func TestMenuIsPublic(t *testing.T) {
	repo := newMockRepo()
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	srv := newOrderServer(t, repo, nil, nil, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/menu", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var menu []MenuItem
	require.NoError(t, json.Unmarshal(body, &menu))
	require.Len(t, menu, 1)
	assert.Equal(t, "Veggie", menu[0].Title)
}

func TestAddMenuItemRequiresAdmin(t *testing.T) {
	srv := newOrderServer(t, newMockRepo(), nil, nil, dinerClaims())

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/menu", `{"title":"Student","price":0.0001}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "unable to add menu item")
}

func TestAddMenuItemReturnsUpdatedMenu(t *testing.T) {
	repo := newMockRepo()
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	srv := newOrderServer(t, repo, nil, nil, adminClaims())

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/menu", `{"title":"Student","price":0.0001}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var menu []MenuItem
	require.NoError(t, json.Unmarshal(body, &menu))
	assert.Len(t, menu, 2)
}

func TestHistoryRequiresAuth(t *testing.T) {
	srv := newOrderServer(t, newMockRepo(), nil, nil, nil)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHistoryPaginates(t *testing.T) {
	repo := newMockRepo()
	repo.perPage = 2
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	for i := 0; i < 5; i++ {
		_, err := repo.AddDinerOrder(context.Background(), 5,
			NewOrder{FranchiseID: 1, StoreID: 1, Items: []OrderItem{{MenuID: 1, Price: 0.05}}})
		require.NoError(t, err)
	}
	srv := newOrderServer(t, repo, nil, nil, dinerClaims())

	for page, want := range map[string]int{"1": 2, "2": 2, "3": 1, "4": 0} {
		resp, body := doJSON(t, http.MethodGet, srv.URL+"/?page="+page, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var result OrderPage
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Len(t, result.Orders, want, "page %s", page)
		assert.Equal(t, int64(5), result.DinerID)
	}
}

func TestPlaceWithoutFulfiller(t *testing.T) {
	repo := newMockRepo()
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	srv := newOrderServer(t, repo, nil, nil, dinerClaims())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/",
		`{"franchiseId":1,"storeId":1,"items":[{"menuId":1,"description":"Veggie","price":0.05}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var placed placedOrderResponse
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.NotZero(t, placed.Order.ID)
	assert.Empty(t, placed.JWT)
}

func TestPlaceUnknownMenuItem(t *testing.T) {
	srv := newOrderServer(t, newMockRepo(), nil, nil, dinerClaims())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/",
		`{"franchiseId":1,"storeId":1,"items":[{"menuId":42,"price":0.05}]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "no menu item 42")
}

func TestPlaceFulfilled(t *testing.T) {
	repo := newMockRepo()
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	metrics := &saleRecorder{}
	fulfiller := &stubFulfiller{result: FulfillmentResult{JWT: "factory.jwt.sig", ReportURL: "https://factory/report/1"}}
	srv := newOrderServer(t, repo, fulfiller, metrics, dinerClaims())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/",
		`{"franchiseId":1,"storeId":1,"items":[{"menuId":1,"price":0.05},{"menuId":1,"price":0.05}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var placed placedOrderResponse
	require.NoError(t, json.Unmarshal(body, &placed))
	assert.Equal(t, "factory.jwt.sig", placed.JWT)
	assert.Equal(t, "https://factory/report/1", placed.ReportURL)

	require.NotNil(t, metrics.ok)
	assert.True(t, *metrics.ok)
	assert.Equal(t, 2, metrics.items)
	assert.InDelta(t, 0.10, metrics.revenue, 1e-9)
}

func TestPlaceFactoryFailure(t *testing.T) {
	repo := newMockRepo()
	repo.menu = []MenuItem{{ID: 1, Title: "Veggie", Price: 0.05}}
	metrics := &saleRecorder{}
	fulfiller := &stubFulfiller{
		result: FulfillmentResult{ReportURL: "https://factory/report/err"},
		err:    errors.New("factory responded 500"),
	}
	srv := newOrderServer(t, repo, fulfiller, metrics, dinerClaims())

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/",
		`{"franchiseId":1,"storeId":1,"items":[{"menuId":1,"price":0.05}]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "failed to fulfill order at factory")
	assert.Contains(t, string(body), "https://factory/report/err")

	require.NotNil(t, metrics.ok)
	assert.False(t, *metrics.ok)
	assert.Equal(t, 0, metrics.items)
}
