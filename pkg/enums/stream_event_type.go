package enums

// StreamEventType names the events pushed to live dashboards.
type StreamEventType string

const (
	StreamEventInitial      StreamEventType = "initial"
	StreamEventOrderCreated StreamEventType = "order_created"
	StreamEventOrderUpdated StreamEventType = "order_updated"
	StreamEventOrderDeleted StreamEventType = "order_deleted"
	StreamEventSessionEnded StreamEventType = "session_ended"
)

// String implements fmt.Stringer.
func (e StreamEventType) String() string {
	return string(e)
}
