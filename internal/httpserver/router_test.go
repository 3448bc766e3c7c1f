package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/catalog"
	"ecommerce-core/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type stubPlatform struct {
	categories []domain.Category
	products   []domain.Product
	cartItems  []domain.CartItem
	cartTotal  string
	order      domain.Order
	receipt    domain.PaymentReceipt
	methods    []string

	checkoutErr error
	confirmErr  error
	catalogErr  error
	cartErr     error
	receiptErr  error
	ordersErr   error

	lastCheckoutMethod string
	lastCartUserID     string
	lastCartProductID  string
	lastCartQuantity   int
	lastEvidence       map[string]string
}

func (s *stubPlatform) CreateCategory(name, description string, actingUser domain.User) (domain.Category, error) {
	if s.catalogErr != nil {
		return domain.Category{}, s.catalogErr
	}
	return domain.Category{ID: "cat-1", Name: name, Description: description}, nil
}

func (s *stubPlatform) DeleteCategory(id string, actingUser domain.User) error { return s.catalogErr }

func (s *stubPlatform) ListCategories() []domain.Category { return s.categories }

func (s *stubPlatform) AddProduct(in catalog.AddProductInput, actingUser domain.User) (domain.Product, error) {
	if s.catalogErr != nil {
		return domain.Product{}, s.catalogErr
	}
	return domain.Product{ID: "prod-1", Name: in.Name, Price: in.Price, Stock: in.Stock, CategoryID: in.CategoryID}, nil
}

func (s *stubPlatform) RemoveProduct(id string, actingUser domain.User) error { return s.catalogErr }

func (s *stubPlatform) ListProducts() []domain.Product { return s.products }

func (s *stubPlatform) AddToCart(userID, productID string, quantity int) error {
	s.lastCartUserID = userID
	s.lastCartProductID = productID
	s.lastCartQuantity = quantity
	return s.cartErr
}

func (s *stubPlatform) RemoveFromCart(userID, productID string, quantity int) error {
	s.lastCartUserID = userID
	s.lastCartProductID = productID
	s.lastCartQuantity = quantity
	return s.cartErr
}

func (s *stubPlatform) CartItems(userID string) []domain.CartItem { return s.cartItems }

func (s *stubPlatform) CartTotal(userID string) string { return s.cartTotal }

func (s *stubPlatform) Checkout(userID, paymentMethod string) (domain.Order, error) {
	s.lastCheckoutMethod = paymentMethod
	if s.checkoutErr != nil {
		return domain.Order{}, s.checkoutErr
	}
	return s.order, nil
}

func (s *stubPlatform) ConfirmPayment(reference string, evidence map[string]string) (domain.Order, error) {
	s.lastEvidence = evidence
	if s.confirmErr != nil {
		return domain.Order{}, s.confirmErr
	}
	return s.order, nil
}

func (s *stubPlatform) Receipt(reference string) (domain.PaymentReceipt, error) {
	if s.receiptErr != nil {
		return domain.PaymentReceipt{}, s.receiptErr
	}
	return s.receipt, nil
}

func (s *stubPlatform) ListOrders(actingUser domain.User) ([]domain.Order, error) {
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return []domain.Order{s.order}, nil
}

func (s *stubPlatform) OrdersForUser(userID string) []domain.Order { return []domain.Order{s.order} }

func (s *stubPlatform) PaymentMethods() []string { return s.methods }

type stubAuth struct {
	token    string
	user     domain.User
	loginErr error
	userErr  error
	resetErr error

	registerErr error
	adminErr    error

	loggedOut        []string
	resetToken       string
	lastRegistered   auth.RegisterInput
	lastRegisteredBy *domain.User
	deleted          []string
	unlocked         []string
}

func (s *stubAuth) Login(username, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.token, nil
}

func (s *stubAuth) Logout(token string) { s.loggedOut = append(s.loggedOut, token) }

func (s *stubAuth) ResolveUser(token string) (domain.User, error) {
	if s.userErr != nil {
		return domain.User{}, s.userErr
	}
	return s.user, nil
}

func (s *stubAuth) RequestPasswordReset(username string) (string, error) {
	if s.resetErr != nil {
		return "", s.resetErr
	}
	return s.resetToken, nil
}

func (s *stubAuth) ResetPassword(token, newPassword string) error { return s.resetErr }

func (s *stubAuth) Register(in auth.RegisterInput, actingUser *domain.User) (domain.User, error) {
	if s.registerErr != nil {
		return domain.User{}, s.registerErr
	}
	s.lastRegistered = in
	s.lastRegisteredBy = actingUser
	return domain.User{ID: "user-new", Username: in.Username, Role: in.Role, Active: true}, nil
}

func (s *stubAuth) Users() []domain.User { return []domain.User{s.user} }

func (s *stubAuth) DeleteUser(username string, actingUser domain.User) error {
	s.deleted = append(s.deleted, username)
	return s.adminErr
}

func (s *stubAuth) Unlock(username string, actingUser domain.User) error {
	s.unlocked = append(s.unlocked, username)
	return s.adminErr
}

func newTestRouter(platform *stubPlatform, authSvc *stubAuth) http.Handler {
	return buildRouter(zap.NewNop().Sugar(), Deps{Platform: platform, Auth: authSvc})
}

func doRequest(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&stubPlatform{}, &stubAuth{})
	rec := doRequest(t, handler, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
}

func TestLoginReturnsToken(t *testing.T) {
	authSvc := &stubAuth{token: "session-token"}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["token"] != "session-token" {
		t.Fatalf("token: got %q", resp["token"])
	}
}

func TestLoginFailureTranslatesTo401(t *testing.T) {
	authSvc := &stubAuth{loginErr: fmt.Errorf("invalid credentials: %w", domain.ErrAuthentication)}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/login", "", `{"username":"alice","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	handler := newTestRouter(&stubPlatform{}, &stubAuth{token: "t"})
	rec := doRequest(t, handler, http.MethodPost, "/auth/login", "", `{"username":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestLogoutForwardsToken(t *testing.T) {
	authSvc := &stubAuth{}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/logout", "session-token", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204", rec.Code)
	}
	if len(authSvc.loggedOut) != 1 || authSvc.loggedOut[0] != "session-token" {
		t.Fatalf("logout calls: got %v", authSvc.loggedOut)
	}
}

func TestAuthedRoutesRequireToken(t *testing.T) {
	handler := newTestRouter(&stubPlatform{}, &stubAuth{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/me"},
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/checkout"},
		{http.MethodGet, "/orders"},
	} {
		rec := doRequest(t, handler, tc.method, tc.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: got %d, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestExpiredSessionTranslatesTo401(t *testing.T) {
	authSvc := &stubAuth{userErr: fmt.Errorf("session expired: %w", domain.ErrAuthentication)}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodGet, "/me", "stale-token", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestCheckoutCreated(t *testing.T) {
	platform := &stubPlatform{order: domain.Order{ID: "order-1", Status: domain.OrderPaid, PaymentReference: "UPI-abc"}}
	authSvc := &stubAuth{user: domain.User{ID: "user-1", Username: "alice", Role: domain.RoleCustomer}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/checkout", "token", `{"paymentMethod":"upi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body %s", rec.Code, rec.Body)
	}
	if platform.lastCheckoutMethod != "upi" {
		t.Fatalf("method forwarded: got %q", platform.lastCheckoutMethod)
	}
	var order domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.ID != "order-1" || order.Status != domain.OrderPaid {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestCheckoutPaymentErrorTranslatesTo402(t *testing.T) {
	platform := &stubPlatform{checkoutErr: fmt.Errorf("unknown payment method: %w", domain.ErrPayment)}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/checkout", "token", `{"paymentMethod":"cheque"}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status: got %d, want 402", rec.Code)
	}
}

func TestCheckoutEmptyCartTranslatesTo400(t *testing.T) {
	platform := &stubPlatform{checkoutErr: fmt.Errorf("cart is empty: %w", domain.ErrInvalidInput)}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/checkout", "token", `{"paymentMethod":"upi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}

func TestAddToCartDefaultsQuantity(t *testing.T) {
	platform := &stubPlatform{}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/cart/items", "token", `{"productId":"prod-1"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want 204, body %s", rec.Code, rec.Body)
	}
	if platform.lastCartUserID != "user-1" || platform.lastCartProductID != "prod-1" || platform.lastCartQuantity != 1 {
		t.Fatalf("forwarded call: user %q product %q qty %d", platform.lastCartUserID, platform.lastCartProductID, platform.lastCartQuantity)
	}
}

func TestAddToCartInventoryConflict(t *testing.T) {
	platform := &stubPlatform{cartErr: fmt.Errorf("insufficient stock: %w", domain.ErrInventory)}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/cart/items", "token", `{"productId":"prod-1","quantity":99}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
}

func TestGetCart(t *testing.T) {
	platform := &stubPlatform{
		cartItems: []domain.CartItem{{ProductID: "prod-1", ProductName: "Novel", UnitPrice: decimal.RequireFromString("15"), Quantity: 2}},
		cartTotal: "30",
	}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodGet, "/cart", "token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var resp struct {
		Items []domain.CartItem `json:"items"`
		Total string            `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Total != "30" {
		t.Fatalf("unexpected cart %+v", resp)
	}
}

func TestAdminErrorTranslatesTo403(t *testing.T) {
	platform := &stubPlatform{catalogErr: fmt.Errorf("admin privileges required: %w", domain.ErrAuthorization)}
	authSvc := &stubAuth{user: domain.User{ID: "user-1", Role: domain.RoleCustomer}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/catalog/categories", "token", `{"name":"Toys"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rec.Code)
	}
}

func TestAddProductParsesPrice(t *testing.T) {
	platform := &stubPlatform{}
	authSvc := &stubAuth{user: domain.User{ID: "admin-1", Role: domain.RoleAdmin}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/catalog/products", "token",
		`{"name":"Novel","price":"15.00","stock":5,"categoryId":"cat-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, handler, http.MethodPost, "/catalog/products", "token",
		`{"name":"Novel","price":"fifteen","stock":5,"categoryId":"cat-1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad price status: got %d, want 400", rec.Code)
	}
}

func TestRemoveMissingProductTranslatesTo404(t *testing.T) {
	platform := &stubPlatform{catalogErr: fmt.Errorf("product missing: %w", domain.ErrNotFound)}
	authSvc := &stubAuth{user: domain.User{ID: "admin-1", Role: domain.RoleAdmin}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodDelete, "/catalog/products/missing", "token", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
}

func TestConfirmPaymentForwardsEvidence(t *testing.T) {
	platform := &stubPlatform{order: domain.Order{ID: "order-1", Status: domain.OrderPaid}}
	authSvc := &stubAuth{user: domain.User{ID: "user-1"}}
	handler := newTestRouter(platform, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/payments/CARD-ref/confirm", "token", `{"evidence":{"otp":"123456"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body %s", rec.Code, rec.Body)
	}
	if platform.lastEvidence["otp"] != "123456" {
		t.Fatalf("evidence forwarded: got %v", platform.lastEvidence)
	}
}

func TestPublicCatalogAndMethods(t *testing.T) {
	platform := &stubPlatform{
		categories: []domain.Category{{ID: "cat-1", Name: "Books"}},
		methods:    []string{"bank_transfer", "card", "cod", "upi"},
	}
	handler := newTestRouter(platform, &stubAuth{})

	rec := doRequest(t, handler, http.MethodGet, "/catalog/categories", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("categories status: got %d, want 200", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/payments/methods", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("methods status: got %d, want 200", rec.Code)
	}
	var resp struct {
		Methods []string `json:"methods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Methods) != 4 {
		t.Fatalf("methods: got %v", resp.Methods)
	}
}

func TestPasswordResetFlowEndpoints(t *testing.T) {
	authSvc := &stubAuth{resetToken: "reset-token"}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/password-reset/request", "", `{"username":"alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("request status: got %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["resetToken"] != "reset-token" {
		t.Fatalf("reset token: got %q", resp["resetToken"])
	}

	rec = doRequest(t, handler, http.MethodPost, "/auth/password-reset/confirm", "", `{"token":"reset-token","newPassword":"newpass"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("confirm status: got %d, want 204", rec.Code)
	}
}

func TestSelfRegistrationCreatesCustomers(t *testing.T) {
	authSvc := &stubAuth{}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/register", "", `{"username":"bob","password":"secret"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body %s", rec.Code, rec.Body)
	}
	if authSvc.lastRegistered.Role != domain.RoleCustomer {
		t.Fatalf("role: got %s, want customer", authSvc.lastRegistered.Role)
	}

	rec = doRequest(t, handler, http.MethodPost, "/auth/register", "", `{"username":"eve","password":"secret","role":"admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("privileged self-registration: got %d, want 400", rec.Code)
	}
}

func TestAdminUserManagementRoutes(t *testing.T) {
	authSvc := &stubAuth{user: domain.User{ID: "admin-1", Username: "admin", Role: domain.RoleAdmin}}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodGet, "/users", "token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/users", "token", `{"username":"carol","password":"secret","role":"support"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201, body %s", rec.Code, rec.Body)
	}
	if authSvc.lastRegisteredBy == nil || authSvc.lastRegisteredBy.Username != "admin" {
		t.Fatalf("acting user forwarded: got %+v", authSvc.lastRegisteredBy)
	}

	rec = doRequest(t, handler, http.MethodDelete, "/users/carol", "token", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", rec.Code)
	}
	if len(authSvc.deleted) != 1 || authSvc.deleted[0] != "carol" {
		t.Fatalf("deleted: got %v", authSvc.deleted)
	}

	rec = doRequest(t, handler, http.MethodPost, "/users/carol/unlock", "token", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unlock status: got %d, want 204", rec.Code)
	}
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	authSvc := &stubAuth{user: domain.User{ID: "user-1", Username: "alice", Role: domain.RoleCustomer}}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodGet, "/users", "token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("list status: got %d, want 403", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodPost, "/users", "token", `{"username":"carol","password":"secret"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create status: got %d, want 403", rec.Code)
	}
}

func TestResetUnknownTokenTranslatesTo401(t *testing.T) {
	authSvc := &stubAuth{resetErr: fmt.Errorf("invalid reset token: %w", domain.ErrAuthentication)}
	handler := newTestRouter(&stubPlatform{}, authSvc)

	rec := doRequest(t, handler, http.MethodPost, "/auth/password-reset/confirm", "", `{"token":"bad","newPassword":"x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}
