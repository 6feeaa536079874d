package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pasal/internal/session"
)

// VerifyStatusCompleted is the status flag the verify endpoint expects for a
// completed gateway callback. The API historically accepted several
// conventions; this client always sends "1".
const VerifyStatusCompleted = "1"

// APIError is a non-success response from the commerce API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce api: http=%d message=%q", e.Status, e.Message)
}

// IsAuthError reports whether err is the API rejecting our credentials.
func IsAuthError(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

// Client is the single HTTP wrapper around the remote commerce API. It
// centralizes the base URL, attaches the bearer token found in the request
// context's session, and reports authorization failures through the
// injected hook so the caller can clear the session.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	onAuthFailure func(ctx context.Context)
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetAuthFailureHook installs the hook invoked when the API answers 401/403.
func (c *Client) SetAuthFailureHook(fn func(ctx context.Context)) {
	c.onAuthFailure = fn
}

type envelope struct {
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Succeeded *bool           `json:"succeeded,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s := session.FromContext(ctx); s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	var env envelope
	// Some endpoints return a bare object rather than the envelope; fall
	// back to treating the whole body as data.
	if err := json.Unmarshal(raw, &env); err != nil || env.Data == nil {
		env = envelope{Data: raw}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		if c.onAuthFailure != nil {
			c.onAuthFailure(ctx)
		}
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if env.Succeeded != nil && !*env.Succeeded {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// ---------- Catalog ----------

type ProductQuery struct {
	PageNumber int
	PageSize   int
	SearchTerm string
	OnSaleOnly bool
	CategoryID int64
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.PageNumber > 0 {
		v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	}
	if q.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.SearchTerm != "" {
		v.Set("searchTerm", q.SearchTerm)
	}
	if q.OnSaleOnly {
		v.Set("onSaleOnly", "true")
	}
	return v
}

func (c *Client) Products(ctx context.Context, q ProductQuery) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/products/getAllProducts", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductByID(ctx context.Context, productID int64) (*Product, error) {
	v := url.Values{"productId": {strconv.FormatInt(productID, 10)}}
	var out Product
	if err := c.do(ctx, http.MethodGet, "/products/getProductById", v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Categories(ctx context.Context, pageNumber, pageSize int) ([]Category, error) {
	v := url.Values{
		"pageNumber": {strconv.Itoa(pageNumber)},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/category/getAllCategory", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, pageNumber, pageSize int) ([]Product, error) {
	v := url.Values{
		"categoryId": {strconv.FormatInt(categoryID, 10)},
		"pageNumber": {strconv.Itoa(pageNumber)},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/category/getAllProductByCategoryId", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------- Auth ----------

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password, contact string) error {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"contact":  contact,
	}
	return c.do(ctx, http.MethodPost, "/auth/register", nil, body, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	body := map[string]string{"email": email, "otp": otp}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/verify-otp", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------- Cart ----------

func (c *Client) CartItems(ctx context.Context, userID int64) ([]CartItem, error) {
	v := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	var out []CartItem
	if err := c.do(ctx, http.MethodGet, "/cart/getCartItems", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	body := map[string]any{"userId": userID, "productId": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/cart/addProductToCart", nil, body, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, cartItemID int64, quantity int) error {
	body := map[string]any{"cartItemId": cartItemID, "quantity": quantity}
	return c.do(ctx, http.MethodPut, "/cart/updateCartItem", nil, body, nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, cartItemID int64) error {
	v := url.Values{"cartItemId": {strconv.FormatInt(cartItemID, 10)}}
	return c.do(ctx, http.MethodDelete, "/cart/removeCartItem", v, nil, nil)
}

// ---------- Orders ----------

func (c *Client) PlaceOrder(ctx context.Context, userID int64, shippingAddress, shippingCity string) (*Order, error) {
	body := map[string]any{
		"userId":          userID,
		"shippingAddress": shippingAddress,
		"shippingCity":    shippingCity,
	}
	var out Order
	if err := c.do(ctx, http.MethodPost, "/order/placeOrder", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context, userID int64, pageNumber, pageSize int) ([]Order, error) {
	v := url.Values{
		"userId":     {strconv.FormatInt(userID, 10)},
		"pageNumber": {strconv.Itoa(pageNumber)},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/order/getAllOrders", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) OrderByID(ctx context.Context, userID, orderID int64) (*Order, error) {
	v := url.Values{
		"userId":  {strconv.FormatInt(userID, 10)},
		"orderId": {strconv.FormatInt(orderID, 10)},
	}
	var out Order
	if err := c.do(ctx, http.MethodGet, "/order/getOrderById", v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------- Payments ----------

func (c *Client) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var out []PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/payment/getAllPaymentMethods", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, userID, orderID, paymentMethodID int64, description string) (*PaymentIntent, error) {
	body := map[string]any{
		"userId":          userID,
		"orderId":         orderID,
		"paymentMethodId": paymentMethodID,
		"description":     description,
	}
	var out PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payment/initiate", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPayment settles a payment attempt against the backend. Exactly one
// of esewaTransactionID / khaltiPidx is set, matching the gateway the
// callback came from; both empty means cash on delivery and is never sent
// (the reconciler short-circuits that path).
func (c *Client) VerifyPayment(ctx context.Context, paymentRequestID int64, esewaTransactionID, khaltiPidx, status string) (*VerifyResult, error) {
	body := map[string]any{
		"paymentRequestId": paymentRequestID,
		"status":           status,
	}
	if esewaTransactionID != "" {
		body["esewaTransactionId"] = esewaTransactionID
	}
	if khaltiPidx != "" {
		body["khaltiPidx"] = khaltiPidx
	}
	var out VerifyResult
	if err := c.do(ctx, http.MethodPost, "/payment/verify", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LatestPayment(ctx context.Context, userID int64) (*PaymentSummary, error) {
	v := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	var out []PaymentSummary
	if err := c.do(ctx, http.MethodGet, "/payment/getLatestPaymentByUserId", v, nil, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// ---------- Notifications ----------

func (c *Client) Notifications(ctx context.Context, userID int64) ([]Notification, error) {
	v := url.Values{"userId": {strconv.FormatInt(userID, 10)}}
	var out []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications/getByUserId", v, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
