package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"rempah/internal/app"
	"rempah/internal/config"
	"rempah/internal/models"
	"rempah/pkg/logging"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
	os.Exit(m.Run())
}

// setupApp builds the full API over a private in-memory SQLite database.
func setupApp(t *testing.T) *app.App {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()))
	v.Set("JWT_SECRET", "test_jwt_secret")

	a, err := app.New(context.Background(), config.FromViper(v))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

// call sends a JSON request and decodes the JSON response into out, if given.
func call(t *testing.T, a *app.App, method, path, token string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type session struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func register(t *testing.T, a *app.App, name, email string) session {
	t.Helper()
	var s session
	status := call(t, a, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, &s)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, s.Token)
	return s
}

func makeAdmin(t *testing.T, a *app.App, id string) {
	t.Helper()
	ctx := context.Background()
	u, err := a.Users.GetByID(ctx, id)
	require.NoError(t, err)
	u.IsAdmin = true
	require.NoError(t, a.Users.Update(ctx, u))
}

func TestAuthRegisterAndLogin(t *testing.T) {
	a := setupApp(t)
	s := register(t, a, "Asha", "asha@example.com")

	userID, err := a.Auth.ValidateToken(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.ID, userID)

	var errBody map[string]any
	status := call(t, a, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Other", "email": "asha@example.com", "password": "password123",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "user already exists with this email", errBody["message"])

	var login session
	status = call(t, a, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "asha@example.com", "password": "password123",
	}, &login)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, login.Token)

	status = call(t, a, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	var validation map[string]any
	status = call(t, a, http.MethodPost, "/api/users/register", "", map[string]string{"email": "not-an-email"}, &validation)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", validation["message"])
}

func TestTwoFactorLogin(t *testing.T) {
	a := setupApp(t)
	s := register(t, a, "Asha", "asha@example.com")

	var toggled map[string]any
	status := call(t, a, http.MethodPut, "/api/users/2fa", s.Token, nil, &toggled)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2FA turned ON", toggled["message"])

	var challenge struct {
		TwoFactorRequired bool   `json:"twoFactorRequired"`
		UserID            string `json:"userId"`
		Token             string `json:"token"`
	}
	status = call(t, a, http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "asha@example.com", "password": "password123",
	}, &challenge)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, challenge.TwoFactorRequired)
	assert.Equal(t, s.ID, challenge.UserID)
	assert.Empty(t, challenge.Token)

	stored, err := a.Users.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	code := stored.TwoFactorCode
	require.Len(t, code, 6)

	var errBody map[string]any
	status = call(t, a, http.MethodPost, "/api/users/login/verify2fa", "", map[string]string{
		"userId": s.ID, "code": "000000",
	}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid or expired code", errBody["message"])

	var verified session
	status = call(t, a, http.MethodPost, "/api/users/login/verify2fa", "", map[string]string{
		"userId": s.ID, "code": code,
	}, &verified)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, verified.Token)

	status = call(t, a, http.MethodPost, "/api/users/login/verify2fa", "", map[string]string{
		"userId": s.ID, "code": code,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "code is single use")
}

func TestProductAndReviewEndpoints(t *testing.T) {
	a := setupApp(t)
	admin := register(t, a, "Admin", "admin@example.com")
	makeAdmin(t, a, admin.ID)
	asha := register(t, a, "Asha", "asha@example.com")
	ravi := register(t, a, "Ravi", "ravi@example.com")

	status := call(t, a, http.MethodPost, "/api/products", asha.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var product models.Product
	status = call(t, a, http.MethodPost, "/api/products", admin.Token, nil, &product)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, product.ID)

	status = call(t, a, http.MethodPut, "/api/products/"+product.ID, admin.Token, map[string]any{
		"name": "Garam Masala", "price": 150,
	}, &product)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Garam Masala", product.Name)
	assert.Equal(t, 150.0, product.Price)

	path := "/api/products/" + product.ID + "/reviews"
	var summary struct {
		Rating     float64 `json:"rating"`
		NumReviews int     `json:"numReviews"`
	}
	status = call(t, a, http.MethodPost, path, asha.Token, map[string]any{"rating": 4, "comment": "fragrant"}, &summary)
	require.Equal(t, http.StatusCreated, status)
	status = call(t, a, http.MethodPost, path, ravi.Token, map[string]any{"rating": 5}, &summary)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 4.5, summary.Rating)
	assert.Equal(t, 2, summary.NumReviews)

	var errBody map[string]any
	status = call(t, a, http.MethodPost, path, asha.Token, map[string]any{"rating": 2}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "product already reviewed", errBody["message"])

	status = call(t, a, http.MethodPost, path, admin.Token, map[string]any{"rating": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, a, http.MethodPut, path, asha.Token, map[string]any{"rating": 2}, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3.5, summary.Rating)

	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/products/"+product.ID, "", nil, &product))
	var ashaReview models.Review
	for _, r := range product.Reviews {
		if r.UserID == asha.ID {
			ashaReview = r
		}
	}
	require.NotEmpty(t, ashaReview.ID)

	var like struct {
		Liked bool     `json:"liked"`
		Likes []string `json:"likes"`
	}
	likePath := path + "/" + ashaReview.ID + "/like"
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPut, likePath, ravi.Token, nil, &like))
	assert.True(t, like.Liked)
	assert.Equal(t, []string{ravi.ID}, like.Likes)
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPut, likePath, ravi.Token, nil, &like))
	assert.False(t, like.Liked)
	assert.Empty(t, like.Likes)

	status = call(t, a, http.MethodPut, path+"/missing/like", ravi.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = call(t, a, http.MethodDelete, path, ravi.Token, nil, &summary)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2.0, summary.Rating)
	assert.Equal(t, 1, summary.NumReviews)

	status = call(t, a, http.MethodDelete, path, ravi.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var page struct {
		Products      []models.Product `json:"products"`
		Pages         int              `json:"pages"`
		TotalProducts int              `json:"totalProducts"`
	}
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/products?keyword=garam", "", nil, &page))
	assert.Equal(t, 1, page.TotalProducts)
	assert.Equal(t, 1, page.Pages)

	require.Equal(t, http.StatusOK, call(t, a, http.MethodDelete, "/api/products/"+product.ID, admin.Token, nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, a, http.MethodGet, "/api/products/"+product.ID, "", nil, nil))
}

func TestOrderLifecycle(t *testing.T) {
	a := setupApp(t)
	admin := register(t, a, "Admin", "admin@example.com")
	makeAdmin(t, a, admin.ID)
	asha := register(t, a, "Asha", "asha@example.com")
	ravi := register(t, a, "Ravi", "ravi@example.com")

	var product models.Product
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/products", admin.Token, nil, &product))
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPut, "/api/products/"+product.ID, admin.Token,
		map[string]any{"name": "Hing", "price": 50}, &product))

	orderBody := map[string]any{
		"orderItems": []map[string]any{{"product": product.ID, "qty": 2, "price": 1}},
		"shippingAddress": map[string]string{
			"fullName": "Asha", "addressLine1": "1 MG Road", "city": "Pune", "state": "MH", "postalCode": "411001",
		},
		"shippingPrice": 40,
	}
	var order models.Order
	status := call(t, a, http.MethodPost, "/api/orders", asha.Token, orderBody, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, 140.0, order.TotalPrice, "client-supplied prices are ignored")

	orderBody["shippingAddress"].(map[string]string)["postalCode"] = "MH-411"
	assert.Equal(t, http.StatusBadRequest, call(t, a, http.MethodPost, "/api/orders", asha.Token, orderBody, nil))

	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodGet, "/api/orders/"+order.ID, ravi.Token, nil, nil))
	assert.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/orders/"+order.ID, asha.Token, nil, nil))

	statusPath := "/api/orders/" + order.ID + "/status"
	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodPut, statusPath, asha.Token, map[string]string{"status": "Delivered"}, nil))

	status = call(t, a, http.MethodPut, statusPath, admin.Token, map[string]string{
		"status": "Shipped", "courierName": "BlueDart", "trackingId": "T123",
	}, &order)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.Equal(t, &models.TrackingInfo{CourierName: "BlueDart", TrackingID: "T123", TrackingURL: ""}, order.TrackingInfo)
	assert.False(t, order.IsDelivered)

	var errBody map[string]any
	status = call(t, a, http.MethodPut, statusPath, admin.Token, map[string]string{"status": "Lost"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid order status", errBody["message"])

	status = call(t, a, http.MethodPut, "/api/orders/missing/status", admin.Token, map[string]string{"status": "Shipped"}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = call(t, a, http.MethodPut, statusPath, admin.Token, map[string]string{"status": "Delivered"}, &order)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, order.IsDelivered)
	assert.NotNil(t, order.DeliveredAt)

	var mine []models.Order
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/orders/myorders", asha.Token, nil, &mine))
	assert.Len(t, mine, 1)
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/orders/myorders", ravi.Token, nil, &mine))
	assert.Empty(t, mine)

	var stats map[string]float64
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/orders/stats", admin.Token, nil, &stats))
	assert.Equal(t, 1.0, stats["totalOrders"])
	assert.Equal(t, 3.0, stats["totalUsers"])
	assert.Equal(t, 140.0, stats["totalSales"])
}

func TestUserEndpoints(t *testing.T) {
	a := setupApp(t)
	admin := register(t, a, "Admin", "admin@example.com")
	makeAdmin(t, a, admin.ID)
	asha := register(t, a, "Asha", "asha@example.com")

	var product models.Product
	require.Equal(t, http.StatusCreated, call(t, a, http.MethodPost, "/api/products", admin.Token, nil, &product))

	var toggled struct {
		IsAdded bool `json:"isAdded"`
	}
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPut, "/api/users/wishlist", asha.Token,
		map[string]string{"productId": product.ID}, &toggled))
	assert.True(t, toggled.IsAdded)

	var wishlist []models.Product
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/users/wishlist", asha.Token, nil, &wishlist))
	require.Len(t, wishlist, 1)
	assert.Equal(t, product.ID, wishlist[0].ID)

	var profile session
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPut, "/api/users/profile", asha.Token,
		map[string]string{"email": "asha.k@example.com"}, &profile))
	assert.Equal(t, "asha.k@example.com", profile.Email)
	assert.NotEmpty(t, profile.Token)

	assert.Equal(t, http.StatusForbidden, call(t, a, http.MethodGet, "/api/users", asha.Token, nil, nil))
	var users []models.User
	require.Equal(t, http.StatusOK, call(t, a, http.MethodGet, "/api/users", admin.Token, nil, &users))
	assert.Len(t, users, 2)

	var generic map[string]string
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/users/forgotpassword", "",
		map[string]string{"email": "nobody@example.com"}, &generic))
	unknown := generic["message"]
	require.Equal(t, http.StatusOK, call(t, a, http.MethodPost, "/api/users/forgotpassword", "",
		map[string]string{"email": "asha.k@example.com"}, &generic))
	assert.Equal(t, unknown, generic["message"], "response does not reveal whether the account exists")

	assert.Equal(t, http.StatusBadRequest, call(t, a, http.MethodPut, "/api/users/resetpassword/valid_reset_token", "",
		map[string]string{"password": "new-password"}, nil))
}

func TestContactMessage(t *testing.T) {
	a := setupApp(t)

	var resp map[string]string
	status := call(t, a, http.MethodPost, "/api/messages", "", map[string]string{
		"name": "<b>Asha</b>", "email": "asha@example.com", "subject": "Bulk order", "message": "Need 5kg",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Asha", resp["name"])
	assert.Equal(t, "Message sent successfully!", resp["message"])

	status = call(t, a, http.MethodPost, "/api/messages", "", map[string]string{"name": "Asha"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
