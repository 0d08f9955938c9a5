package commerce

import (
	"context"
	"fmt"
	"strings"
)

// ordersQuery fetches order statuses in bulk via the nodes lookup.
const ordersQuery = `
query GetOrdersByIds($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Order {
      id
      cancelledAt
      cancelReason
      displayFulfillmentStatus
      displayFinancialStatus
      fulfillments(first: 50) {
        trackingInfo(first: 50) {
          number
        }
      }
    }
  }
}`

// orderByNameQuery resolves a single order by its storefront-visible name,
// scoped to the customer email so one customer cannot read another's order.
const orderByNameQuery = `
query GetOrderByName($query: String!) {
  orders(first: 1, query: $query) {
    edges {
      node {
        id
        cancelledAt
        cancelReason
        displayFulfillmentStatus
        displayFinancialStatus
        fulfillments(first: 50) {
          trackingInfo(first: 50) {
            number
          }
        }
      }
    }
  }
}`

// OrderStatus is the storefront-facing view of an order's progress.
type OrderStatus struct {
	ID                       string   `json:"id"`
	CancelledAt              string   `json:"cancelledAt,omitempty"`
	CancelReason             string   `json:"cancelReason,omitempty"`
	DisplayFulfillmentStatus string   `json:"displayFulfillmentStatus"`
	DisplayFinancialStatus   string   `json:"displayFinancialStatus"`
	IsCancelled              bool     `json:"isCancelled"`
	TrackingNumbers          []string `json:"trackingNumbers"`
}

type orderNode struct {
	ID                       string `json:"id"`
	CancelledAt              string `json:"cancelledAt"`
	CancelReason             string `json:"cancelReason"`
	DisplayFulfillmentStatus string `json:"displayFulfillmentStatus"`
	DisplayFinancialStatus   string `json:"displayFinancialStatus"`
	Fulfillments             []struct {
		TrackingInfo []struct {
			Number string `json:"number"`
		} `json:"trackingInfo"`
	} `json:"fulfillments"`
}

func (n *orderNode) toStatus() OrderStatus {
	status := OrderStatus{
		ID:                       n.ID,
		CancelledAt:              n.CancelledAt,
		CancelReason:             n.CancelReason,
		DisplayFulfillmentStatus: n.DisplayFulfillmentStatus,
		DisplayFinancialStatus:   n.DisplayFinancialStatus,
		IsCancelled:              n.CancelledAt != "",
	}
	for _, f := range n.Fulfillments {
		for _, ti := range f.TrackingInfo {
			if ti.Number != "" {
				status.TrackingNumbers = append(status.TrackingNumbers, ti.Number)
			}
		}
	}
	return status
}

type ordersData struct {
	Nodes []*orderNode `json:"nodes"`
}

// OrderStatuses resolves the given order ids against the Admin API. Unknown
// ids are omitted from the result.
func (c *Client) OrderStatuses(ctx context.Context, orderIDs []string) (map[string]OrderStatus, error) {
	statuses := make(map[string]OrderStatus)
	if len(orderIDs) == 0 {
		return statuses, nil
	}

	ids := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = id
	}

	var data ordersData
	if err := c.adminQuery(ctx, ordersQuery, map[string]interface{}{"ids": ids}, &data); err != nil {
		return nil, fmt.Errorf("order status lookup failed: %w", err)
	}

	for _, node := range data.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		statuses[node.ID] = node.toStatus()
	}

	return statuses, nil
}

type orderSearchData struct {
	Orders struct {
		Edges []struct {
			Node *orderNode `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// OrderStatusByName looks up a single order by the name customers see on
// their confirmation (for example "#1001"). The email is part of the search
// so the lookup fails for a mismatched customer; a miss returns (nil, nil).
func (c *Client) OrderStatusByName(ctx context.Context, name, email string) (*OrderStatus, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, fmt.Errorf("order name and email are required")
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}

	search := fmt.Sprintf("name:%s AND email:%s", name, email)

	var data orderSearchData
	if err := c.adminQuery(ctx, orderByNameQuery, map[string]interface{}{"query": search}, &data); err != nil {
		return nil, fmt.Errorf("order lookup failed: %w", err)
	}

	for _, edge := range data.Orders.Edges {
		if edge.Node != nil && edge.Node.ID != "" {
			status := edge.Node.toStatus()
			return &status, nil
		}
	}
	return nil, nil
}
