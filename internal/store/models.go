package store

import (
	"database/sql"
	"time"
)

type Language struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	IsRtl      bool      `json:"is_rtl"`
	IsDefault  bool      `json:"is_default"`
	IsActive   bool      `json:"is_active"`
	Position   int64     `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Account struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"password_hash"`
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Lookup struct {
	ID       string         `json:"id"`
	ParentID sql.NullString `json:"parent_id"`
	Position int64          `json:"position"`
	IsActive bool           `json:"is_active"`
}

type LookupTranslation struct {
	Kind         string `json:"kind"`
	LookupID     string `json:"lookup_id"`
	LanguageCode string `json:"language_code"`
	Name         string `json:"name"`
}

type Order struct {
	ID               string         `json:"id"`
	CustomerName     string         `json:"customer_name"`
	CustomerEmail    string         `json:"customer_email"`
	CustomerPhone    string         `json:"customer_phone"`
	CustomerCompany  sql.NullString `json:"customer_company"`
	CountryID        sql.NullString `json:"country_id"`
	CityID           sql.NullString `json:"city_id"`
	PortID           sql.NullString `json:"port_id"`
	DeliveryMethodID sql.NullString `json:"delivery_method_id"`
	Notes            string         `json:"notes"`
	Status           string         `json:"status"`
	LanguageCode     string         `json:"language_code"`
	SearchKey        string         `json:"search_key"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID          int64          `json:"id"`
	OrderID     string         `json:"order_id"`
	ProductID   sql.NullString `json:"product_id"`
	Description string         `json:"description"`
	Quantity    float64        `json:"quantity"`
	Unit        string         `json:"unit"`
}

type OrderMessage struct {
	ID         int64     `json:"id"`
	OrderID    string    `json:"order_id"`
	SenderType string    `json:"sender_type"`
	SenderName string    `json:"sender_name"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type Translation struct {
	EntityID     string    `json:"entity_id"`
	LanguageCode string    `json:"language_code"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	Content      string    `json:"content"`
	Slug         string    `json:"slug"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Article struct {
	ID          string         `json:"id"`
	CategoryID  sql.NullString `json:"category_id"`
	ImageUrl    string         `json:"image_url"`
	IsPublished bool           `json:"is_published"`
	PublishedAt sql.NullTime   `json:"published_at"`
	AuthorID    sql.NullString `json:"author_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Product struct {
	ID         string         `json:"id"`
	CategoryID sql.NullString `json:"category_id"`
	Price      float64        `json:"price"`
	Unit       string         `json:"unit"`
	ImageUrl   string         `json:"image_url"`
	IsFeatured bool           `json:"is_featured"`
	IsActive   bool           `json:"is_active"`
	Position   int64          `json:"position"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type SiteSetting struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Media struct {
	ID         string         `json:"id"`
	Bucket     string         `json:"bucket"`
	Path       string         `json:"path"`
	Filename   string         `json:"filename"`
	MimeType   string         `json:"mime_type"`
	Size       int64          `json:"size"`
	Width      sql.NullInt64  `json:"width"`
	Height     sql.NullInt64  `json:"height"`
	UploadedBy sql.NullString `json:"uploaded_by"`
	CreatedAt  time.Time      `json:"created_at"`
}

type MediaVariant struct {
	ID        int64     `json:"id"`
	MediaID   string    `json:"media_id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Width     int64     `json:"width"`
	Height    int64     `json:"height"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type BackgroundImage struct {
	ID        string    `json:"id"`
	PageKey   string    `json:"page_key"`
	MediaID   string    `json:"media_id"`
	Position  int64     `json:"position"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Event struct {
	ID         int64          `json:"id"`
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	UserID     sql.NullString `json:"user_id"`
	Metadata   string         `json:"metadata"`
	IpAddress  string         `json:"ip_address"`
	RequestUrl string         `json:"request_url"`
	CreatedAt  time.Time      `json:"created_at"`
}

type PageView struct {
	ID           int64     `json:"id"`
	Path         string    `json:"path"`
	LanguageCode string    `json:"language_code"`
	Browser      string    `json:"browser"`
	Os           string    `json:"os"`
	DeviceType   string    `json:"device_type"`
	CountryCode  string    `json:"country_code"`
	CreatedAt    time.Time `json:"created_at"`
}

type Notification struct {
	ID            int64          `json:"id"`
	OrderID       string         `json:"order_id"`
	Kind          string         `json:"kind"`
	Payload       string         `json:"payload"`
	Status        string         `json:"status"`
	Attempts      int64          `json:"attempts"`
	LastError     sql.NullString `json:"last_error"`
	NextAttemptAt sql.NullTime   `json:"next_attempt_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
