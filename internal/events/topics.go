package events

import "strconv"

const (
	TopicOrderPlaced = "storefront.order.placed"
	TopicStockLow    = "storefront.stock.low"
)

// Partition key = order id, so events for one order keep their order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
