package models

import (
	"fmt"
	"strings"
	"time"
)

// PropertyStatus is the moderation state of a submitted listing.
type PropertyStatus string

// Moderation states. Any state may follow any other.
const (
	StatusPending  PropertyStatus = "pending"
	StatusApproved PropertyStatus = "approved"
	StatusRejected PropertyStatus = "rejected"
)

// DefaultPropertyType is used when a submission does not name a property type.
const DefaultPropertyType = "apartment"

// Valid reports whether s is one of the known moderation states.
func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParsePropertyStatus converts user input into a PropertyStatus.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParsePropertyStatus(s string) (PropertyStatus, error) {
	status := PropertyStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("invalid status %q: must be one of pending, approved, rejected", s)
	}
	return status, nil
}

// Property represents a real-estate listing submission.
// ID, Status and the timestamps are owned by the store; everything else
// comes from the submitter.
type Property struct {
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Title        string         `json:"title"`
	Location     string         `json:"location"`
	Description  string         `json:"description"`
	PropertyType string         `json:"propertyType"`
	ImageURL     string         `json:"image"`
	ContactEmail string         `json:"contactEmail"`
	ContactPhone string         `json:"contactPhone"`
	Status       PropertyStatus `json:"status"`
	Price        float64        `json:"price"`
	Area         float64        `json:"sqft"`
	Bathrooms    float64        `json:"bathrooms"`
	ID           int64          `json:"id"`
	Bedrooms     int            `json:"bedrooms"`
	YearBuilt    int            `json:"yearBuilt"`
}
