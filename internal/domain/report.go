package domain

// Action is what a sync did with one upstream product.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// ItemResult is the outcome for one upstream product in a sync run.
type ItemResult struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	Page      int    `json:"page"`
	Action    Action `json:"action"`
	ProductID int64  `json:"product_id,omitempty"`
	Error     string `json:"error,omitempty"`
	// The product was written but a follow-up step was not.
	LinkError       string `json:"link_error,omitempty"`
	CollectionError string `json:"collection_error,omitempty"`
	HistoryError    string `json:"history_error,omitempty"`
}

// RunReport summarizes one sync run.
type RunReport struct {
	RunID        string           `json:"run_id"`
	BusinessCode string           `json:"business_code"`
	Pages        int              `json:"pages"`
	Items        []ItemResult     `json:"items"`
	Rejected     []RejectedRecord `json:"rejected,omitempty"`
	// Products holds every product written to Shopify in this run, in write order. A
	// product whose item later failed (linkage under LinkageFatal) is still listed, since
	// it exists on the shop and is part of the recorded snapshot.
	Products []TargetProduct `json:"products"`
}

// Count returns how many items ended with the given action.
func (r *RunReport) Count(a Action) int {
	n := 0
	for _, it := range r.Items {
		if it.Action == a {
			n++
		}
	}
	return n
}

// RollbackStatus is the outcome for one product in a rollback.
type RollbackStatus string

const (
	RollbackApplied      RollbackStatus = "applied"
	RollbackFailed       RollbackStatus = "failed"
	RollbackNotAttempted RollbackStatus = "not_attempted"
)

// RollbackItem is the outcome for one product in a rollback request.
type RollbackItem struct {
	ProductID   int64          `json:"product_id"`
	Title       string         `json:"title"`
	Status      RollbackStatus `json:"status"`
	SnapshotKey string         `json:"snapshot_key,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// RollbackReport lists per-product outcomes in request order.
type RollbackReport struct {
	BusinessCode string         `json:"business_code"`
	Items        []RollbackItem `json:"items"`
}

// MatchPair asks to link an existing Shopify product to an upstream code.
type MatchPair struct {
	ShopifyID    int64  `json:"shopify_id"`
	ExternalCode string `json:"external_code"`
}

// MatchResult is the outcome of one MatchPair.
type MatchResult struct {
	ShopifyID    int64  `json:"shopify_id"`
	ExternalCode string `json:"external_code"`
	MetafieldID  int64  `json:"metafield_id,omitempty"`
	Created      bool   `json:"created"`
	Error        string `json:"error,omitempty"`
}
