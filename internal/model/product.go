package model

import "time"

// Product is a tracked e-commerce product. The collector treats products as
// an immutable snapshot per round; lifecycle is managed by the products
// commands, never by the pipeline.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
