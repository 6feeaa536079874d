package commerce

import "time"

// Wire types for the remote commerce API. Only the fields the storefront
// renders or forwards are mapped; everything else rides along unparsed.

type Product struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Description   string         `json:"description"`
	MarketPrice   float64        `json:"marketPrice"`
	CurrentPrice  float64        `json:"currentPrice"`
	DiscountPrice *float64       `json:"discountPrice,omitempty"`
	StockQuantity int            `json:"stockQuantity"`
	IsInStock     bool           `json:"isInStock"`
	IsOnSale      bool           `json:"isOnSale"`
	CanAddToCart  bool           `json:"canAddToCart"`
	DisplayPrice  string         `json:"displayPrice"`
	CategoryID    int64          `json:"categoryId"`
	Rating        float64        `json:"rating"`
	Images        []ProductImage `json:"images"`
}

type ProductImage struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"imageUrl"`
	IsMain   bool   `json:"isMain"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type CartItem struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	ProductID       int64     `json:"productId"`
	Quantity        int       `json:"quantity"`
	IsStockReserved bool      `json:"isStockReserved"`
	ExpiresAt       time.Time `json:"expiresAt"`
	Product         Product   `json:"product"`
}

type PaymentMethod struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	IsActive    bool   `json:"isActive"`
	Description string `json:"description,omitempty"`
}

type Order struct {
	OrderID     int64     `json:"orderId"`
	UserID      int64     `json:"userId"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PaymentIntent is the result of the second checkout step. The correlators
// (EsewaTransactionID / KhaltiPidx) are what the callback reconciler later
// matches the gateway redirect against.
type PaymentIntent struct {
	PaymentRequestID   int64             `json:"paymentRequestId"`
	PaymentURL         string            `json:"paymentUrl"`
	EsewaTransactionID string            `json:"esewaTransactionId,omitempty"`
	KhaltiPidx         string            `json:"khaltiPidx,omitempty"`
	PaymentAmount      float64           `json:"paymentAmount"`
	ExpiresAt          time.Time         `json:"expiresAt"`
	RequiresRedirect   bool              `json:"requiresRedirect"`
	Instructions       string            `json:"instructions,omitempty"`
	FormFields         map[string]string `json:"formFields,omitempty"`
}

type VerifyResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// PaymentSummary is the "latest payment" record used only to enrich the
// cash-on-delivery success page.
type PaymentSummary struct {
	PaymentRequestID  int64   `json:"paymentRequestId"`
	OrderID           int64   `json:"orderId"`
	PaymentMethodName string  `json:"paymentMethodName"`
	PaymentStatus     string  `json:"paymentStatus"`
	OrderTotal        float64 `json:"orderTotal"`
}

type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	Message      string `json:"message,omitempty"`
}

type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
