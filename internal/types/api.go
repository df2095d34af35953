package types

// RequestType classifies API requests for proper parameter injection
type RequestType string

const (
	RequestTypeGetByID      RequestType = "GetById"
	RequestTypeListOrSearch RequestType = "ListOrSearch"
	RequestTypeMutation     RequestType = "Mutation"
	RequestTypeBatchOp      RequestType = "BatchOp"
)

// RequestContext carries context for API request shaping
type RequestContext struct {
	Profile            string
	InvolvedMessageIDs []string
	InvolvedThreadIDs  []string
	RequestType        RequestType
	TraceID            string
}
