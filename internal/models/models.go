// Package models defines the core data structures for accounts, listings
// and the records attached to them.
package models

import "time"

// Account represents a registered identity with credentials and a role.
type Account struct {
	// ID is the unique identifier for the account.
	ID string `json:"id" db:"id"`
	// Email is unique and stored normalized (trimmed, lower-cased).
	Email string `json:"email" db:"email"`
	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string `json:"-" db:"password_hash"`
	// Role is always one of RoleUser or RoleAdmin.
	Role Role `json:"role" db:"role"`
	// Name is the optional display name.
	Name string `json:"name" db:"name"`
	// Phone is the optional contact phone number.
	Phone string `json:"phoneNumber" db:"phone"`
	// Location is optional free text.
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Identity is the verified session subject attached to a request.
type Identity struct {
	AccountID string `json:"userId"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
}

// IsAdmin reports whether the identity carries the administrator role.
// A nil identity is anonymous.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Listing is a property record owned by exactly one account.
type Listing struct {
	ID          string        `json:"id" db:"id"`
	OwnerID     string        `json:"userId" db:"owner_id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Price       float64       `json:"price" db:"price"`
	Address     string        `json:"address" db:"address"`
	Area        string        `json:"area" db:"area"`
	City        string        `json:"city" db:"city"`
	District    string        `json:"district" db:"district"`
	Division    string        `json:"division" db:"division"`
	Type        string        `json:"type" db:"type"`
	Category    string        `json:"category" db:"category"`
	ContactInfo string        `json:"contactInfo,omitempty" db:"contact_info"`
	Status      ListingStatus `json:"status" db:"status"`
	Featured    bool          `json:"isFeatured" db:"is_featured"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
	// Images is loaded separately from the images table.
	Images []Image `json:"images" db:"-"`
}

// Image is a stored file attached to a listing.
type Image struct {
	ID        string `json:"id" db:"id"`
	ListingID string `json:"propertyId" db:"listing_id"`
	// Key addresses the file inside the image store.
	Key       string    `json:"-" db:"storage_key"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ListingFilter narrows a catalogue query.
type ListingFilter struct {
	Location string
	MinPrice *float64
	MaxPrice *float64
	Type     string
	Category string
	Featured *bool
	// Status restricts results; empty means any status.
	Status ListingStatus
	// OwnerID restricts results to one owner.
	OwnerID string
	Limit   int
	Offset  int
}

// Bookmark records a user's saved interest in a listing.
type Bookmark struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"userId" db:"account_id"`
	ListingID string    `json:"propertyId" db:"listing_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Listing   *Listing  `json:"property,omitempty" db:"-"`
}

// Inquiry is a free-text question about a listing.
type Inquiry struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"userId" db:"account_id"`
	ListingID string    `json:"propertyId" db:"listing_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	// ListingTitle is filled when listing inquiries for display.
	ListingTitle string `json:"propertyTitle,omitempty" db:"listing_title"`
}

// Chat is the single support thread of an account.
type Chat struct {
	ID        string        `json:"id" db:"id"`
	AccountID string        `json:"userId" db:"account_id"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
	Messages  []ChatMessage `json:"messages" db:"-"`
	// AccountEmail is filled in admin listings.
	AccountEmail string `json:"userEmail,omitempty" db:"account_email"`
}

// ChatMessage is one message in a chat thread.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chatId" db:"chat_id"`
	SenderID  string    `json:"senderId" db:"sender_id"`
	Body      string    `json:"content" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
