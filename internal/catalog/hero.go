package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// HeroDoc is the raw homepage hero-slide document stored under
// heroes/<id>. Desktop and mobile carry separate image sets; the link
// is optional.
type HeroDoc struct {
	DesktopImages []string  `json:"desktopImages"`
	MobileImages  []string  `json:"mobileImages"`
	Link          string    `json:"link,omitempty"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Hero is the normalized hero slide.
type Hero struct {
	ID            string    `json:"id"`
	DesktopImages []string  `json:"desktopImages"`
	MobileImages  []string  `json:"mobileImages"`
	Link          string    `json:"link,omitempty"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HeroFromDoc normalizes a raw hero document.
func HeroFromDoc(id string, raw json.RawMessage) (Hero, error) {
	var doc HeroDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Hero{}, fmt.Errorf("malformed hero document %s: %w", id, err)
	}
	desktop := doc.DesktopImages
	if desktop == nil {
		desktop = []string{}
	}
	mobile := doc.MobileImages
	if mobile == nil {
		mobile = []string{}
	}
	return Hero{
		ID:            id,
		DesktopImages: desktop,
		MobileImages:  mobile,
		Link:          doc.Link,
		Order:         doc.Order,
		CreatedAt:     doc.CreatedAt,
	}, nil
}
