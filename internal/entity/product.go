package entity

// Product is one catalog entry as served to the storefront. Image is always
// populated; Thumbnail and Images carry whatever the upstream catalog sent.
type Product struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Image       string   `json:"image"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Images      []string `json:"images,omitempty"`
	Rating      float64  `json:"rating"`
}
