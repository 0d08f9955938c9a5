package commerce

import (
	"context"
	"fmt"
)

// availabilityQuery resolves a product's purchasability by handle.
const availabilityQuery = `
query ProductAvailability($handle: String!) {
  productByHandle(handle: $handle) {
    handle
    availableForSale
  }
}`

type availabilityData struct {
	ProductByHandle *struct {
		Handle           string `json:"handle"`
		AvailableForSale bool   `json:"availableForSale"`
	} `json:"productByHandle"`
}

// ProductAvailability returns whether the product identified by handle is
// available for sale. A nil result means the product does not exist.
func (c *Client) ProductAvailability(ctx context.Context, handle string) (*bool, error) {
	if handle == "" {
		return nil, fmt.Errorf("empty product handle")
	}

	var data availabilityData
	if err := c.storefrontQuery(ctx, availabilityQuery, map[string]interface{}{"handle": handle}, &data); err != nil {
		return nil, fmt.Errorf("availability lookup for %q failed: %w", handle, err)
	}
	if data.ProductByHandle == nil {
		return nil, nil
	}

	available := data.ProductByHandle.AvailableForSale
	return &available, nil
}
