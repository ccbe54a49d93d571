package cart

// LineItem is one line of the cart as shown to the shopper. Prices are in minor units.
type LineItem struct {
	SkuID    string `json:"sku_id"`
	ShopID   string `json:"shop_id"`
	Name     string `json:"name"`
	SkuName  string `json:"sku_name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Image    string `json:"image"`
	Selected bool   `json:"isSelected"`
	Pending  bool   `json:"pending,omitempty"`
}

func (li LineItem) Total() int64 {
	return li.Price * int64(li.Quantity)
}

type AddItemRequest struct {
	SkuID    string
	ShopID   string
	Name     string
	SkuName  string
	Price    int64
	Image    string
	Quantity int
}

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// MigrationReport tells which local lines made it into the remote cart after login.
type MigrationReport struct {
	UID      string
	Migrated []LineItem
	Failed   []MigrationFailure
}

type MigrationFailure struct {
	Item   LineItem
	Reason string
}

func (r MigrationReport) Complete() bool {
	return len(r.Failed) == 0
}

func subtotal(items []LineItem) int64 {
	total := int64(0)
	for _, item := range items {
		if item.Selected {
			total += item.Total()
		}
	}
	return total
}
