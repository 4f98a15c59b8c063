package orders

const (
	TopicOrderPlaced           = "order.placed"
	TopicOrderCancelled        = "order.cancelled"
	TopicStockReleaseRequested = "inventory.release.requested"
)

// Partition key = order_id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
